// internal/conversation/pipeline_test.go
package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"product-chat-workers/internal/common/catalog"
	chaterrors "product-chat-workers/internal/common/errors"
	"product-chat-workers/internal/common/logger"
	"product-chat-workers/internal/models"
	classifyintent "product-chat-workers/internal/workers/chat/classify-intent"
	composeprompt "product-chat-workers/internal/workers/chat/compose-prompt"
	computeanalytics "product-chat-workers/internal/workers/chat/compute-analytics"
	detectlanguage "product-chat-workers/internal/workers/chat/detect-language"
	filtercatalogfacts "product-chat-workers/internal/workers/chat/filter-catalog-facts"
	generateresponse "product-chat-workers/internal/workers/chat/generate-response"
	"product-chat-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Per-worker logger adapters; each worker declares its own Logger interface.

type baseLogger struct {
	t *testing.T
}

func (l baseLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l baseLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l baseLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

type dlLogger struct{ baseLogger }

func (l dlLogger) With(fields map[string]interface{}) detectlanguage.Logger { return l }

type ciLogger struct{ baseLogger }

func (l ciLogger) With(fields map[string]interface{}) classifyintent.Logger { return l }

type caLogger struct{ baseLogger }

func (l caLogger) With(fields map[string]interface{}) computeanalytics.Logger { return l }

type ffLogger struct{ baseLogger }

func (l ffLogger) With(fields map[string]interface{}) filtercatalogfacts.Logger { return l }

type cpLogger struct{ baseLogger }

func (l cpLogger) With(fields map[string]interface{}) composeprompt.Logger { return l }

type grLogger struct{ baseLogger }

func (l grLogger) With(fields map[string]interface{}) generateresponse.Logger { return l }

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
		{
			Name: "Enterprise CRM", NameAR: "نظام إدارة علاقات العملاء",
			Price: models.MustMoney("15000"), Currency: "USD",
			Description: "Complete CRM solution", DescriptionAR: "حل متكامل",
			Category: "Software", UnitsSold: 45,
		},
		{
			Name: "HR Management Solution", NameAR: "نظام إدارة الموارد البشرية",
			Price: models.MustMoney("8500.50"), Currency: "USD",
			Description: "Payroll platform", DescriptionAR: "منصة الرواتب",
			Category: "Software", UnitsSold: 70,
		},
	}
	for i := range products {
		products[i].Revenue = products[i].Price.Mul(products[i].UnitsSold)
	}
	return &catalog.Snapshot{Version: "v1", LoadedAt: time.Now().UTC(), Products: products}
}

// generatorCapture records every prompt package the generator receives.
type generatorCapture struct {
	requests []map[string]interface{}
}

func newTestPipeline(t *testing.T, generatorURL string) *Pipeline {
	cat := &staticCatalog{snap: testSnapshot()}
	base := baseLogger{t: t}

	genConfig := &generateresponse.Config{
		GenAIBaseURL: generatorURL,
		Timeout:      2 * time.Second,
		MaxRetries:   1,
	}

	handlers := Handlers{
		DetectLanguage:     detectlanguage.NewHandler(&detectlanguage.Config{Timeout: time.Second}, dlLogger{base}),
		ClassifyIntent:     classifyintent.NewHandler(&classifyintent.Config{Timeout: time.Second}, cat, ciLogger{base}),
		ComputeAnalytics:   computeanalytics.NewHandler(&computeanalytics.Config{Timeout: time.Second, CacheTTL: time.Minute}, cat, nil, caLogger{base}),
		FilterCatalogFacts: filtercatalogfacts.NewHandler(&filtercatalogfacts.Config{Timeout: time.Second}, cat, ffLogger{base}),
		ComposePrompt:      composeprompt.NewHandler(&composeprompt.Config{Timeout: time.Second}, registry.Defaults(), cpLogger{base}),
		GenerateResponse:   generateresponse.NewHandler(genConfig, grLogger{base}),
	}

	return NewPipeline(handlers, registry.Defaults(), nil, logger.NewZapAdapter(zaptest.NewLogger(t)))
}

// echoGenerator answers with a canned response and captures what it saw.
func echoGenerator(t *testing.T, capture *generatorCapture) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if capture != nil {
			capture.requests = append(capture.requests, body)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "Generated answer."})
	}))
}

// ==========================
// Scenario Tests
// ==========================

// A customer asks for a product price in Arabic and gets an authorized
// answer assembled from customer-visible facts.
func TestCustomerArabicPriceQuestion(t *testing.T) {
	capture := &generatorCapture{}
	server := echoGenerator(t, capture)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	reply, err := pipeline.Process(context.Background(), Request{
		Text: "كم سعر نظام إدارة الموارد البشرية؟",
		Role: "customer",
	})
	require.NoError(t, err)

	assert.Equal(t, "ar", reply.Language)
	assert.Equal(t, models.OutcomeAuthorized, reply.Outcome)
	assert.False(t, reply.Fallback)
	assert.NotEmpty(t, reply.RequestID)

	require.Len(t, capture.requests, 1)
	payload, _ := json.Marshal(capture.requests[0])
	assert.Contains(t, string(payload), "HR Management Solution")
	// Customer payloads never carry sales figures.
	assert.NotContains(t, string(payload), "unitsSold")
}

// A customer asking for revenue is refused politely in their language and
// the generator is never called.
func TestCustomerRevenueRequestDenied(t *testing.T) {
	capture := &generatorCapture{}
	server := echoGenerator(t, capture)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	tests := []struct {
		name     string
		query    string
		language string
		contains string
	}{
		{"english", "What is our total revenue this year?", "en", "only available to staff members"},
		{"arabic", "كم إجمالي الإيرادات؟", "ar", "متاحة فقط لموظفي الشركة"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := pipeline.Process(context.Background(), Request{Text: tt.query, Role: "customer"})
			require.NoError(t, err, "a denial must not be an error")

			assert.Equal(t, models.OutcomeDenied, reply.Outcome)
			assert.Equal(t, tt.language, reply.Language)
			assert.Contains(t, reply.Text, tt.contains)
		})
	}

	assert.Empty(t, capture.requests, "denied queries must never reach the generator")
}

// A staff member asking for the best seller gets the exact deterministic
// aggregate in the prompt package.
func TestStaffBestSellerAnswered(t *testing.T) {
	capture := &generatorCapture{}
	server := echoGenerator(t, capture)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	reply, err := pipeline.Process(context.Background(), Request{
		Text: "Which product is our best seller?",
		Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAuthorized, reply.Outcome)

	require.Len(t, capture.requests, 1)
	facts := capture.requests[0]["facts"].(map[string]interface{})
	analytics := facts["analytics"].(map[string]interface{})
	best := analytics["bestSeller"].(map[string]interface{})
	assert.Equal(t, "HR Management Solution", best["name"])
	assert.Equal(t, float64(70), best["unitsSold"])
	// The aggregate answers the question; no raw product rows ride along.
	assert.Nil(t, facts["products"])
}

// When the generator is down, the user still gets a localized apology and
// the caller sees a GENERATOR_UNAVAILABLE error.
func TestGeneratorDownServesLocalizedFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	reply, err := pipeline.Process(context.Background(), Request{
		Text: "ما هي منتجاتكم؟",
		Role: "customer",
	})
	require.Error(t, err)
	assert.Equal(t, chaterrors.ErrCodeGeneratorUnavailable, chaterrors.CodeOf(err))

	require.NotNil(t, reply)
	assert.True(t, reply.Fallback)
	assert.Equal(t, "ar", reply.Language)
	assert.Contains(t, reply.Text, "أعتذر")
}

// Empty queries are rejected before any stage runs.
func TestEmptyQueryRejected(t *testing.T) {
	server := echoGenerator(t, nil)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	for _, text := range []string{"", "   ", "\t\n"} {
		reply, err := pipeline.Process(context.Background(), Request{Text: text, Role: "customer"})
		require.Error(t, err)
		assert.Nil(t, reply)
		assert.Equal(t, chaterrors.ErrCodeInvalidQuery, chaterrors.CodeOf(err))
	}
}

// ==========================
// Property Tests
// ==========================

// No phrasing a customer uses may pull units_sold or revenue into the
// generator payload or the final reply.
func TestCustomerProbingNeverLeaksSalesData(t *testing.T) {
	capture := &generatorCapture{}
	server := echoGenerator(t, capture)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	probes := []string{
		"What are your products?",
		"Tell me everything about the Enterprise CRM",
		"Which software do you sell and what does each cost?",
		"How well is the HR Management Solution doing?",
		"Which product do people buy the most?",
		"Is the Enterprise CRM popular?",
		"Give me the sales report",
		"How many units of Enterprise CRM were sold?",
		"What is your total revenue?",
		"ما هي منتجاتكم؟",
		"كم عدد الوحدات المباعة؟",
		"أعطني تقرير المبيعات",
	}

	for _, probe := range probes {
		reply, err := pipeline.Process(context.Background(), Request{Text: probe, Role: "customer"})
		require.NoError(t, err, "probe %q", probe)
		require.NotNil(t, reply)

		// Replies never restate the withheld figures.
		assert.NotContains(t, reply.Text, "675000")
		assert.NotContains(t, reply.Text, "595035")
	}

	for _, request := range capture.requests {
		payload, _ := json.Marshal(request)
		for _, forbidden := range []string{"unitsSold", "units_sold", "revenue", "bestSeller"} {
			assert.False(t, strings.Contains(string(payload), forbidden),
				"generator payload leaked %q: %s", forbidden, payload)
		}
	}
}

// The same staff analytics query always lands on the same numbers.
func TestStaffAnalyticsStableAcrossRuns(t *testing.T) {
	capture := &generatorCapture{}
	server := echoGenerator(t, capture)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	for i := 0; i < 3; i++ {
		_, err := pipeline.Process(context.Background(), Request{
			Text: "What is our total revenue?",
			Role: "staff",
		})
		require.NoError(t, err)
	}

	require.Len(t, capture.requests, 3)
	var values []interface{}
	for _, request := range capture.requests {
		facts := request["facts"].(map[string]interface{})
		analytics := facts["analytics"].(map[string]interface{})
		values = append(values, analytics["totalRevenue"])
	}
	assert.Equal(t, values[0], values[1])
	assert.Equal(t, values[1], values[2])
}

func TestUnknownRoleRejected(t *testing.T) {
	server := echoGenerator(t, nil)
	defer server.Close()

	pipeline := newTestPipeline(t, server.URL)

	_, err := pipeline.Process(context.Background(), Request{Text: "hello", Role: "intern"})
	require.Error(t, err)
	assert.Equal(t, chaterrors.ErrCodeInvalidQuery, chaterrors.CodeOf(err))
}
