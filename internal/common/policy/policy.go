// Package policy is the single authorization table for the chat pipeline.
// It is consulted at exactly two points: when the router authorizes an
// analytics operation and when catalog rows are filtered into facts. No
// other code decides who sees what.
package policy

import (
	"product-chat-workers/internal/models"
)

// Field names the policy table works in terms of. They match the catalog
// JSON keys.
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldFeatures    = "features"
	FieldUnitsSold   = "units_sold"
	FieldRevenue     = "revenue"
)

// customerFields is the customer-visible subset. Staff sees these plus the
// sales fields, so the customer view is a strict subset of the staff view.
var customerFields = []string{
	FieldName, FieldPrice, FieldDescription, FieldCategory, FieldFeatures,
}

var staffOnlyFields = []string{
	FieldUnitsSold, FieldRevenue,
}

// PermittedFields returns the catalog fields a role may see.
func PermittedFields(role models.Role) []string {
	fields := append([]string(nil), customerFields...)
	if role == models.RoleStaff {
		fields = append(fields, staffOnlyFields...)
	}
	return fields
}

// CanSeeField reports whether the role may see a single catalog field.
func CanSeeField(role models.Role, field string) bool {
	for _, f := range PermittedFields(role) {
		if f == field {
			return true
		}
	}
	return false
}

// PermittedOps returns the analytics operations a role may run. Customers
// get none; every analytics request from a customer routes to Denied.
func PermittedOps(role models.Role) []models.AnalyticsOp {
	if role == models.RoleStaff {
		return models.AllAnalyticsOps()
	}
	return nil
}

// CanRunOp reports whether the role may run the given analytics operation.
func CanRunOp(role models.Role, op models.AnalyticsOp) bool {
	for _, allowed := range PermittedOps(role) {
		if allowed == op {
			return true
		}
	}
	return false
}

// Filter projects a catalog product onto the fields the role may see. This
// is the only constructor of ProductFacts: staff-only fields are left nil
// for customers so serialized facts omit them entirely.
func Filter(p models.Product, role models.Role) models.ProductFacts {
	facts := models.ProductFacts{
		Name:          p.Name,
		NameAR:        p.NameAR,
		Price:         p.Price,
		Currency:      p.Currency,
		Description:   p.Description,
		DescriptionAR: p.DescriptionAR,
		Category:      p.Category,
		Features:      append([]string(nil), p.Features...),
	}

	if role == models.RoleStaff {
		units := p.UnitsSold
		revenue := p.Revenue
		facts.UnitsSold = &units
		facts.Revenue = &revenue
	}

	return facts
}

// FilterAll applies Filter across a product list.
func FilterAll(products []models.Product, role models.Role) []models.ProductFacts {
	if len(products) == 0 {
		return nil
	}
	facts := make([]models.ProductFacts, 0, len(products))
	for _, p := range products {
		facts = append(facts, Filter(p, role))
	}
	return facts
}
