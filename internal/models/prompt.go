// internal/models/prompt.go
package models

// ProductFacts is the role-filtered view of a Product. Staff-only fields are
// pointers so that a customer-facing fact set omits them entirely instead of
// serializing nulls or zeroes. Instances are built only by the access policy
// filter; no other code constructs them from raw catalog rows.
type ProductFacts struct {
	Name          string   `json:"name"`
	NameAR        string   `json:"name_ar,omitempty"`
	Price         Money    `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	Description   string   `json:"description"`
	DescriptionAR string   `json:"description_ar,omitempty"`
	Category      string   `json:"category"`
	Features      []string `json:"features,omitempty"`

	// Staff-only.
	UnitsSold *int64 `json:"unitsSold,omitempty"`
	Revenue   *Money `json:"revenue,omitempty"`
}

// FactSet is everything the Response Generator is allowed to know for one
// query: already-filtered product facts and, for authorized analytics
// requests, the precomputed aggregate. Raw catalog rows never appear here
// when an aggregate suffices.
type FactSet struct {
	Products  []ProductFacts   `json:"products,omitempty"`
	Analytics *AnalyticsResult `json:"analytics,omitempty"`
}

// Empty reports whether the set carries no facts at all.
func (f FactSet) Empty() bool {
	return len(f.Products) == 0 && f.Analytics == nil
}

// PromptPackage is the only payload handed to the Response Generator. Fields
// excluded by the access policy for the requesting role are removed before
// this struct is built, never inside it.
type PromptPackage struct {
	RequestID    string   `json:"requestId"`
	Language     Language `json:"language"`
	Query        string   `json:"query"`
	Outcome      Outcome  `json:"outcome"`
	Instructions string   `json:"instructions"`
	Facts        FactSet  `json:"facts"`
}
