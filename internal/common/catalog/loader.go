// internal/common/catalog/loader.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"product-chat-workers/internal/common/errors"
	"product-chat-workers/internal/models"
)

// Source produces the complete product list from a backing store.
type Source interface {
	Load(ctx context.Context) ([]models.Product, error)
}

type catalogDocument struct {
	Products []models.Product `json:"products"`
}

// FileSource reads the catalog from a JSON file on disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(ctx context.Context) ([]models.Product, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Errorf("read %s: %w", s.Path, err))
	}

	if err := validateDocument(raw); err != nil {
		return nil, errors.NewCatalogLoadError(err)
	}

	var doc catalogDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Errorf("parse %s: %w", s.Path, err))
	}

	products, err := finalize(doc.Products)
	if err != nil {
		return nil, errors.NewCatalogLoadError(err)
	}

	return products, nil
}

// finalize applies cross-field rules the schema cannot express. Any
// violation rejects the whole catalog.
func finalize(products []models.Product) ([]models.Product, error) {
	seen := make(map[string]bool, len(products))

	for i := range products {
		p := &products[i]

		if p.Name == "" {
			return nil, fmt.Errorf("product %d: name is empty", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("product %q: duplicate name", p.Name)
		}
		seen[p.Name] = true

		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %q: negative price", p.Name)
		}
		if p.UnitsSold < 0 {
			return nil, fmt.Errorf("product %q: negative units_sold", p.Name)
		}
		// Stored revenue is the source of truth. It usually equals
		// price times units_sold but discounts and refunds make it
		// diverge, so it is validated, never recomputed.
		if p.Revenue.IsNegative() {
			return nil, fmt.Errorf("product %q: negative revenue", p.Name)
		}
		if p.Currency == "" {
			p.Currency = "USD"
		}
	}

	return products, nil
}
