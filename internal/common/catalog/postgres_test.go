// internal/common/catalog/postgres_test.go
package catalog

import (
	"context"
	"fmt"
	"testing"

	"product-chat-workers/internal/common/database"
	"product-chat-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*database.PostgresClient, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresClient{DB: db}, mock
}

func productColumns() []string {
	return []string{"name", "name_ar", "price", "currency", "description", "description_ar", "category", "features", "units_sold", "revenue"}
}

func TestPostgresSourceLoad(t *testing.T) {
	client, mock := setupMockDB(t)

	rows := sqlmock.NewRows(productColumns()).
		AddRow("Enterprise CRM", "نظام إدارة علاقات العملاء", "15000.00", "USD",
			"Complete CRM solution", "حل متكامل", "Software",
			[]byte(`{"Cloud-based","Multi-user"}`), int64(45), "660000.00").
		AddRow("HR Management Solution", "نظام إدارة الموارد البشرية", "8500.50", "USD",
			"Payroll platform", "منصة الرواتب", "Software",
			[]byte(`{"Payroll"}`), int64(70), "595035.00")

	mock.ExpectQuery(`SELECT name, name_ar, price::text`).WillReturnRows(rows)

	source := NewPostgresSource(client, "products")
	products, err := source.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Enterprise CRM", products[0].Name)
	assert.Equal(t, int64(1500000), products[0].Price.Cents)
	assert.Equal(t, []string{"Cloud-based", "Multi-user"}, products[0].Features)
	// The stored revenue column wins over price times units (45 * 15000
	// would be 675000, the table says 660000).
	assert.Equal(t, int64(66000000), products[0].Revenue.Cents)
	assert.Equal(t, int64(850050), products[1].Price.Cents)
	assert.Equal(t, int64(59503500), products[1].Revenue.Cents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceQueryFailure(t *testing.T) {
	client, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT name, name_ar, price::text`).
		WillReturnError(fmt.Errorf("connection refused"))

	_, err := NewPostgresSource(client, "products").Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCatalogLoadFailed, errors.CodeOf(err))
}

func TestPostgresSourceBadPrice(t *testing.T) {
	client, mock := setupMockDB(t)

	rows := sqlmock.NewRows(productColumns()).
		AddRow("Product", "", "not-a-number", "USD", "", "", "Software", []byte(`{}`), int64(5), "500.00")
	mock.ExpectQuery(`SELECT name, name_ar, price::text`).WillReturnRows(rows)

	products, err := NewPostgresSource(client, "products").Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, products)
	assert.Equal(t, errors.ErrCodeCatalogLoadFailed, errors.CodeOf(err))
}

func TestPostgresSourceEmptyTable(t *testing.T) {
	client, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT name, name_ar, price::text`).
		WillReturnRows(sqlmock.NewRows(productColumns()))

	_, err := NewPostgresSource(client, "products").Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCatalogLoadFailed, errors.CodeOf(err))
}
