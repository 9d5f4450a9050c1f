// internal/workers/chat/filter-catalog-facts/handler_test.go
package filtercatalogfacts

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"product-chat-workers/internal/common/catalog"
	"product-chat-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Test Helper Functions
// ==========================

type staticCatalog struct {
	snap *catalog.Snapshot
}

func (s *staticCatalog) Snapshot() *catalog.Snapshot {
	return s.snap
}

func testSnapshot() *catalog.Snapshot {
	products := []models.Product{
		{Name: "Enterprise CRM", Price: models.MustMoney("15000"), UnitsSold: 45, Category: "Software", Description: "CRM suite"},
		{Name: "HR Management Solution", Price: models.MustMoney("8500.50"), UnitsSold: 70, Category: "Software", Description: "HR platform"},
	}
	for i := range products {
		products[i].Revenue = products[i].Price.Mul(products[i].UnitsSold)
	}
	return &catalog.Snapshot{Version: "v1", Products: products}
}

func createTestConfig() *Config {
	return &Config{
		Timeout: 2 * time.Second,
	}
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), &staticCatalog{snap: testSnapshot()}, NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestFilterLookupForCustomer(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentLookup, ProductRef: "Enterprise CRM"},
		Outcome: models.OutcomeAuthorized,
		Role:    string(models.RoleCustomer),
	})
	require.NoError(t, err)

	require.Len(t, output.Facts.Products, 1)
	facts := output.Facts.Products[0]
	assert.Equal(t, "Enterprise CRM", facts.Name)
	assert.Nil(t, facts.UnitsSold)
	assert.Nil(t, facts.Revenue)
}

func TestFilterLookupForStaff(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentLookup, ProductRef: "HR Management Solution"},
		Outcome: models.OutcomeAuthorized,
		Role:    string(models.RoleStaff),
	})
	require.NoError(t, err)

	require.Len(t, output.Facts.Products, 1)
	facts := output.Facts.Products[0]
	require.NotNil(t, facts.UnitsSold)
	require.NotNil(t, facts.Revenue)
	assert.Equal(t, int64(70), *facts.UnitsSold)
}

func TestFilterAnalyticsPassesAggregateOnly(t *testing.T) {
	handler := newTestHandler(t)

	total := models.MustMoney("1270035")
	output, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentAnalytics, Op: models.OpTotalRevenue},
		Outcome: models.OutcomeAuthorized,
		Role:    string(models.RoleStaff),
		AnalyticsResult: &models.AnalyticsResult{
			Op:           models.OpTotalRevenue,
			TotalRevenue: &total,
		},
	})
	require.NoError(t, err)

	// The aggregate suffices: no raw rows travel with it.
	assert.Empty(t, output.Facts.Products)
	require.NotNil(t, output.Facts.Analytics)
	assert.Equal(t, total.Cents, output.Facts.Analytics.TotalRevenue.Cents)
}

func TestFilterAnalyticsMissingResult(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentAnalytics, Op: models.OpBestSeller},
		Outcome: models.OutcomeAuthorized,
		Role:    string(models.RoleStaff),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAnalytics)
}

func TestFilterDeniedCarriesNoFacts(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentAnalytics, Op: models.OpTotalRevenue},
		Outcome: models.OutcomeDenied,
		Role:    string(models.RoleCustomer),
	})
	require.NoError(t, err)
	assert.True(t, output.Facts.Empty())
}

func TestFilterGeneralIncludesWholeCatalogView(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Intent:  models.Intent{Type: models.IntentGeneral},
		Outcome: models.OutcomeAuthorized,
		Role:    string(models.RoleCustomer),
	})
	require.NoError(t, err)
	assert.Len(t, output.Facts.Products, 2)
	for _, facts := range output.Facts.Products {
		assert.Nil(t, facts.UnitsSold)
		assert.Nil(t, facts.Revenue)
	}
}

// Whatever path a customer query takes, the serialized fact set must never
// contain the staff-only fields.
func TestCustomerFactsNeverLeakAcrossIntents(t *testing.T) {
	handler := newTestHandler(t)

	inputs := []*Input{
		{Intent: models.Intent{Type: models.IntentLookup, ProductRef: "Enterprise CRM"}, Outcome: models.OutcomeAuthorized, Role: "customer"},
		{Intent: models.Intent{Type: models.IntentLookup}, Outcome: models.OutcomeAuthorized, Role: "customer", MatchedProducts: []string{"Enterprise CRM", "HR Management Solution"}},
		{Intent: models.Intent{Type: models.IntentGeneral}, Outcome: models.OutcomeAuthorized, Role: "customer"},
		{Intent: models.Intent{Type: models.IntentAnalytics, Op: models.OpTotalRevenue}, Outcome: models.OutcomeDenied, Role: "customer"},
	}

	for _, input := range inputs {
		output, err := handler.Execute(context.Background(), input)
		require.NoError(t, err)

		raw, err := json.Marshal(output.Facts)
		require.NoError(t, err)

		payload := string(raw)
		for _, forbidden := range []string{"unitsSold", "units_sold", "revenue"} {
			assert.False(t, strings.Contains(payload, forbidden),
				"intent %s leaked %q: %s", input.Intent.Type, forbidden, payload)
		}
	}
}

func TestFilterInvalidRole(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		Intent: models.Intent{Type: models.IntentGeneral},
		Role:   "root",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRole)
}
