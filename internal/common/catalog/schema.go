// internal/common/catalog/schema.go
package catalog

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema is enforced against every catalog document before a single
// product is handed to the store. A document that fails here is rejected
// whole; there is no partial catalog.
const catalogSchema = `{
  "type": "object",
  "required": ["products"],
  "properties": {
    "products": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "price", "description", "category", "units_sold", "revenue"],
        "properties": {
          "name":           {"type": "string", "minLength": 1},
          "name_ar":        {"type": "string"},
          "price":          {"type": ["number", "string"]},
          "currency":       {"type": "string"},
          "description":    {"type": "string"},
          "description_ar": {"type": "string"},
          "category":       {"type": "string", "minLength": 1},
          "features":       {"type": "array", "items": {"type": "string"}},
          "units_sold":     {"type": "integer", "minimum": 0},
          "revenue":        {"type": ["number", "string"]}
        }
      }
    }
  }
}`

// validateDocument checks raw catalog JSON against the schema.
func validateDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("catalog validation failed: %v", errs)
	}

	return nil
}
