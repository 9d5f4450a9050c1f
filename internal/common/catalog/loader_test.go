// internal/common/catalog/loader_test.go
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"product-chat-workers/internal/common/errors"
	"product-chat-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validCatalog = `{
  "products": [
    {
      "name": "Enterprise CRM",
      "name_ar": "نظام إدارة علاقات العملاء",
      "price": 15000,
      "currency": "USD",
      "description": "Complete customer relationship management solution",
      "description_ar": "حل متكامل لإدارة علاقات العملاء",
      "category": "Software",
      "features": ["Cloud-based", "Multi-user", "Analytics dashboard"],
      "units_sold": 45,
      "revenue": 675000
    },
    {
      "name": "HR Management Solution",
      "name_ar": "نظام إدارة الموارد البشرية",
      "price": 8500.50,
      "currency": "USD",
      "description": "Payroll and employee management platform",
      "description_ar": "منصة إدارة الرواتب والموظفين",
      "category": "Software",
      "features": ["Payroll", "Attendance tracking"],
      "units_sold": 70,
      "revenue": 595035
    }
  ]
}`

func TestFileSourceLoad(t *testing.T) {
	path := writeCatalogFile(t, validCatalog)
	source := NewFileSource(path)

	products, err := source.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	crm := products[0]
	assert.Equal(t, "Enterprise CRM", crm.Name)
	assert.Equal(t, models.MustMoney("15000").Cents, crm.Price.Cents)
	assert.Equal(t, int64(45), crm.UnitsSold)
	assert.Equal(t, models.MustMoney("675000").Cents, crm.Revenue.Cents)

	hr := products[1]
	assert.Equal(t, models.MustMoney("8500.50").Cents, hr.Price.Cents)
	assert.Equal(t, models.MustMoney("595035").Cents, hr.Revenue.Cents)
}

// Stored revenue is authoritative even when it disagrees with price times
// units_sold, as happens after discounts or refunds.
func TestFileSourceKeepsStoredRevenue(t *testing.T) {
	path := writeCatalogFile(t, `{"products": [
		{"name": "Product", "price": 100, "description": "Discounted line", "category": "Software", "units_sold": 10, "revenue": 650.00}
	]}`)

	products, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, models.MustMoney("650.00").Cents, products[0].Revenue.Cents)
	assert.NotEqual(t, products[0].Price.Mul(products[0].UnitsSold).Cents, products[0].Revenue.Cents)
}

func TestFileSourceRejectsWholeCatalog(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing price on one product",
			content: `{"products": [
				{"name": "Good Product", "price": 100, "description": "d", "category": "Software", "units_sold": 5, "revenue": 500},
				{"name": "Broken Product", "description": "d", "category": "Software", "units_sold": 3, "revenue": 300}
			]}`,
		},
		{
			name: "missing description",
			content: `{"products": [
				{"name": "Product", "price": 100, "category": "Software", "units_sold": 5, "revenue": 500}
			]}`,
		},
		{
			name: "missing revenue",
			content: `{"products": [
				{"name": "Product", "price": 100, "description": "d", "category": "Software", "units_sold": 5}
			]}`,
		},
		{
			name: "negative revenue",
			content: `{"products": [
				{"name": "Product", "price": 100, "description": "d", "category": "Software", "units_sold": 5, "revenue": "-500"}
			]}`,
		},
		{
			name: "negative units sold",
			content: `{"products": [
				{"name": "Product", "price": 100, "description": "d", "category": "Software", "units_sold": -1, "revenue": 0}
			]}`,
		},
		{
			name: "empty product name",
			content: `{"products": [
				{"name": "", "price": 100, "description": "d", "category": "Software", "units_sold": 5, "revenue": 500}
			]}`,
		},
		{
			name: "duplicate product names",
			content: `{"products": [
				{"name": "Product", "price": 100, "description": "d", "category": "Software", "units_sold": 5, "revenue": 500},
				{"name": "Product", "price": 200, "description": "d", "category": "Software", "units_sold": 2, "revenue": 400}
			]}`,
		},
		{
			name:    "empty product list",
			content: `{"products": []}`,
		},
		{
			name:    "malformed json",
			content: `{"products": [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalogFile(t, tt.content)
			source := NewFileSource(path)

			products, err := source.Load(context.Background())
			require.Error(t, err)
			// No partial catalog is ever returned.
			assert.Nil(t, products)
			assert.Equal(t, errors.ErrCodeCatalogLoadFailed, errors.CodeOf(err))
		})
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))

	_, err := source.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCatalogLoadFailed, errors.CodeOf(err))
}

func TestFileSourcePriceAsString(t *testing.T) {
	path := writeCatalogFile(t, `{"products": [
		{"name": "Product", "price": "1234.56", "description": "d", "category": "Software", "units_sold": 2, "revenue": "2469.12"}
	]}`)

	products, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123456), products[0].Price.Cents)
	assert.Equal(t, "USD", products[0].Currency)
}
