// internal/common/catalog/postgres.go
package catalog

import (
	"context"
	"fmt"

	"product-chat-workers/internal/common/database"
	"product-chat-workers/internal/common/errors"
	"product-chat-workers/internal/models"

	"github.com/lib/pq"
)

// PostgresSource reads the catalog from a products table. Prices are selected
// as text so they reach ParseMoney without a float conversion in between.
type PostgresSource struct {
	db    *database.PostgresClient
	table string
}

func NewPostgresSource(db *database.PostgresClient, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.Product, error) {
	query := fmt.Sprintf(
		`SELECT name, name_ar, price::text, currency, description, description_ar, category, features, units_sold, revenue::text FROM %s ORDER BY name`,
		pq.QuoteIdentifier(s.table),
	)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Errorf("query products: %w", err))
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var (
			p          models.Product
			priceStr   string
			revenueStr string
		)
		if err := rows.Scan(
			&p.Name, &p.NameAR, &priceStr, &p.Currency,
			&p.Description, &p.DescriptionAR, &p.Category,
			pq.Array(&p.Features), &p.UnitsSold, &revenueStr,
		); err != nil {
			return nil, errors.NewCatalogLoadError(fmt.Errorf("scan product row: %w", err))
		}

		price, err := models.ParseMoney(priceStr)
		if err != nil {
			return nil, errors.NewCatalogLoadError(fmt.Errorf("product %q: %w", p.Name, err))
		}
		p.Price = price

		revenue, err := models.ParseMoney(revenueStr)
		if err != nil {
			return nil, errors.NewCatalogLoadError(fmt.Errorf("product %q revenue: %w", p.Name, err))
		}
		p.Revenue = revenue

		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Errorf("iterate products: %w", err))
	}

	if len(products) == 0 {
		return nil, errors.NewCatalogLoadError(fmt.Errorf("table %s is empty", s.table))
	}

	products, err = finalize(products)
	if err != nil {
		return nil, errors.NewCatalogLoadError(err)
	}

	return products, nil
}
