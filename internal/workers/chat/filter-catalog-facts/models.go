// internal/workers/chat/filter-catalog-facts/models.go
package filtercatalogfacts

import "product-chat-workers/internal/models"

type Input struct {
	Intent          models.Intent           `json:"intent"`
	Outcome         models.Outcome          `json:"outcome"`
	Role            string                  `json:"role"`
	MatchedProducts []string                `json:"matchedProducts,omitempty"`
	AnalyticsResult *models.AnalyticsResult `json:"analyticsResult,omitempty"`
}

type Output struct {
	Facts models.FactSet `json:"facts"`
}
