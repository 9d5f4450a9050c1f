// internal/workers/chat/classify-intent/models.go
package classifyintent

import "product-chat-workers/internal/models"

type Input struct {
	Query    string `json:"query"`
	Language string `json:"language"`
	Role     string `json:"role"`
}

type Output struct {
	Intent          models.Intent  `json:"intent"`
	Outcome         models.Outcome `json:"outcome"`
	MatchedProducts []string       `json:"matchedProducts,omitempty"`
	// RefusalTemplate names the registry template to render when Outcome
	// is denied. It never encodes what the hidden data would have been.
	RefusalTemplate string `json:"refusalTemplate,omitempty"`
}
