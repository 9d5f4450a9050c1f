// internal/models/analytics.go
package models

import "time"

// ProductSales is one row of the per-product sales ranking.
type ProductSales struct {
	Name      string `json:"name"`
	NameAR    string `json:"name_ar,omitempty"`
	UnitsSold int64  `json:"unitsSold"`
	Revenue   Money  `json:"revenue"`
}

// SalesSummary is the report header computed alongside the full ranking.
type SalesSummary struct {
	TotalProducts  int   `json:"totalProducts"`
	TotalUnitsSold int64 `json:"totalUnitsSold"`
	TotalRevenue   Money `json:"totalRevenue"`
}

// AnalyticsResult carries one deterministic aggregate. Only the fields
// relevant to Op are populated; the catalog version ties the result to the
// snapshot it was computed from so a reload can never serve stale numbers.
type AnalyticsResult struct {
	Op             AnalyticsOp    `json:"op"`
	CatalogVersion string         `json:"catalogVersion"`
	ComputedAt     time.Time      `json:"computedAt"`
	TotalRevenue   *Money         `json:"totalRevenue,omitempty"`
	TotalUnitsSold *int64         `json:"totalUnitsSold,omitempty"`
	BestSeller     *ProductSales  `json:"bestSeller,omitempty"`
	Ranking        []ProductSales `json:"ranking,omitempty"`
	Summary        *SalesSummary  `json:"summary,omitempty"`
}
