// internal/workers/chat/filter-catalog-facts/config.go
package filtercatalogfacts

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
