// internal/models/product.go
package models

// Product is a single catalog record. Products are immutable once the
// catalog snapshot is loaded. Revenue comes from the catalog itself; it
// normally equals price times units sold but discounts and refunds can make
// it differ, so the stored figure is authoritative.
type Product struct {
	Name          string   `json:"name"`
	NameAR        string   `json:"name_ar,omitempty"`
	Price         Money    `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	Description   string   `json:"description"`
	DescriptionAR string   `json:"description_ar,omitempty"`
	Category      string   `json:"category"`
	Features      []string `json:"features,omitempty"`
	UnitsSold     int64    `json:"units_sold"`
	Revenue       Money    `json:"revenue"`
}

// LocalizedName returns the Arabic name when it exists and the response
// language is Arabic, the English name otherwise.
func (p Product) LocalizedName(lang Language) string {
	if lang == LanguageArabic && p.NameAR != "" {
		return p.NameAR
	}
	return p.Name
}

// LocalizedDescription mirrors LocalizedName for the description field.
func (p Product) LocalizedDescription(lang Language) string {
	if lang == LanguageArabic && p.DescriptionAR != "" {
		return p.DescriptionAR
	}
	return p.Description
}
