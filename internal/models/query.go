// internal/models/query.go
package models

// Role is the access tier of the requester. It is supplied by the session
// layer with every query and never inferred from query content.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// Valid reports whether the role is one of the two known tiers.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleStaff
}

// Language is the detected query language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// IntentType classifies what the query is asking for.
type IntentType string

const (
	IntentLookup    IntentType = "lookup"
	IntentAnalytics IntentType = "analytics"
	IntentGeneral   IntentType = "general"
)

// AnalyticsOp is one of the deterministic aggregate computations.
type AnalyticsOp string

const (
	OpTotalRevenue    AnalyticsOp = "total_revenue"
	OpTotalUnitsSold  AnalyticsOp = "total_units_sold"
	OpBestSeller      AnalyticsOp = "best_seller"
	OpPerProductSales AnalyticsOp = "per_product_sales"
)

// AllAnalyticsOps lists every op in a fixed order.
func AllAnalyticsOps() []AnalyticsOp {
	return []AnalyticsOp{OpTotalRevenue, OpTotalUnitsSold, OpBestSeller, OpPerProductSales}
}

// Intent is the classified purpose of a query.
type Intent struct {
	Type       IntentType  `json:"type"`
	Op         AnalyticsOp `json:"op,omitempty"`         // set when Type == analytics
	ProductRef string      `json:"productRef,omitempty"` // canonical product name when Type == lookup
}

// Outcome is the authorization result of routing. Denied is a first-class
// routed state, not an error: it produces a refusal response.
type Outcome string

const (
	OutcomeAuthorized Outcome = "authorized"
	OutcomeDenied     Outcome = "denied"
)
