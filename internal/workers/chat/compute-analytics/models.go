// internal/workers/chat/compute-analytics/models.go
package computeanalytics

import "product-chat-workers/internal/models"

type Input struct {
	Op string `json:"op"`
}

type Output struct {
	Result   models.AnalyticsResult `json:"analyticsResult"`
	CacheHit bool                   `json:"cacheHit"`
}
