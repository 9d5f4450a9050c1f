package classifyintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-chat-workers/internal/common/catalog"
	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/common/policy"
	"product-chat-workers/internal/models"
	"product-chat-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-intent"
)

var (
	ErrInvalidRole          = errors.New("INVALID_QUERY")
	ErrClassificationFailed = errors.New("INTENT_CLASSIFICATION_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// CatalogProvider supplies the current catalog snapshot.
type CatalogProvider interface {
	Snapshot() *catalog.Snapshot
}

type Handler struct {
	config  *Config
	catalog CatalogProvider
	logger  Logger
}

func NewHandler(config *Config, cat CatalogProvider, log Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: cat,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Keyword tables for the deterministic router. English terms are matched
// case-insensitively, Arabic terms verbatim. Ordering is significant:
// report requests win over revenue mentions inside the same query.
var (
	reportKeywords = []string{
		"sales report", "report", "analytics", "dashboard",
		"تقرير", "تقارير", "تحليلات",
	}

	bestSellerKeywords = []string{
		"best seller", "best-seller", "bestseller", "top seller",
		"most sold", "most selling",
		"الأكثر مبيعاً", "أفضل مبيعاً", "الأكثر مبيعا", "أكثر منتج",
	}

	// Units queries need both words present, in either order.
	unitsKeywordPairs = [][2]string{
		{"units", "sold"},
		{"وحدات", "مباعة"},
		{"الوحدات", "المباعة"},
	}

	revenueKeywords = []string{
		"revenue", "total sales", "sales revenue", "earnings", "performance",
		"إيرادات", "الإيرادات", "إجمالي المبيعات", "المبيعات",
	}

	// staffAttributeKeywords trigger the attribute-level refusal for
	// customers when no full analytics operation was recognised.
	staffAttributeKeywords = []string{
		"units sold", "sold units", "units", "sold", "sales volume",
		"وحدات مباعة", "الوحدات المباعة", "مباعة",
	}
)

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	role := models.Role(input.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRole, input.Role)
	}

	snap := h.catalog.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("%w: catalog not loaded", ErrClassificationFailed)
	}

	query := input.Query
	lower := strings.ToLower(query)

	// Analytics detection runs first. Authorization is decided here and
	// nowhere else on the analytics path.
	if op, ok := detectAnalyticsOp(query, lower); ok {
		intent := models.Intent{Type: models.IntentAnalytics, Op: op}

		if !policy.CanRunOp(role, op) {
			h.logger.Info("analytics request denied", map[string]interface{}{
				"role":      string(role),
				"operation": string(op),
			})
			return &Output{
				Intent:          intent,
				Outcome:         models.OutcomeDenied,
				RefusalTemplate: registry.TemplateRefusalAnalytics,
			}, nil
		}

		return &Output{
			Intent:  intent,
			Outcome: models.OutcomeAuthorized,
		}, nil
	}

	// A customer probing a staff-only attribute without a recognisable
	// aggregate still gets a refusal, not a lookup.
	if role == models.RoleCustomer && containsAny(query, lower, staffAttributeKeywords) {
		h.logger.Info("attribute access denied", map[string]interface{}{
			"role": string(role),
		})
		return &Output{
			Intent:          models.Intent{Type: models.IntentLookup},
			Outcome:         models.OutcomeDenied,
			RefusalTemplate: registry.TemplateRefusalAttribute,
		}, nil
	}

	if matched := snap.MatchInText(query); len(matched) > 0 {
		names := make([]string, 0, len(matched))
		for _, p := range matched {
			names = append(names, p.Name)
		}

		intent := models.Intent{Type: models.IntentLookup}
		if len(names) == 1 {
			intent.ProductRef = names[0]
		}

		return &Output{
			Intent:          intent,
			Outcome:         models.OutcomeAuthorized,
			MatchedProducts: names,
		}, nil
	}

	return &Output{
		Intent:  models.Intent{Type: models.IntentGeneral},
		Outcome: models.OutcomeAuthorized,
	}, nil
}

func detectAnalyticsOp(query, lower string) (models.AnalyticsOp, bool) {
	if containsAny(query, lower, reportKeywords) {
		// Revenue mentions inside a report request still mean the full
		// report, except when revenue is asked for explicitly by itself.
		if containsAny(query, lower, []string{"total revenue", "إجمالي الإيرادات"}) {
			return models.OpTotalRevenue, true
		}
		return models.OpPerProductSales, true
	}

	if containsAny(query, lower, bestSellerKeywords) {
		return models.OpBestSeller, true
	}

	for _, pair := range unitsKeywordPairs {
		if containsTerm(query, lower, pair[0]) && containsTerm(query, lower, pair[1]) {
			return models.OpTotalUnitsSold, true
		}
	}

	if containsAny(query, lower, revenueKeywords) {
		return models.OpTotalRevenue, true
	}

	return "", false
}

func containsAny(query, lower string, terms []string) bool {
	for _, term := range terms {
		if containsTerm(query, lower, term) {
			return true
		}
	}
	return false
}

func containsTerm(query, lower, term string) bool {
	if isArabicTerm(term) {
		return strings.Contains(query, term)
	}
	return strings.Contains(lower, term)
}

func isArabicTerm(term string) bool {
	for _, r := range term {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, ErrInvalidRole) {
		errorCode = "INVALID_QUERY"
	} else if errors.Is(err, ErrClassificationFailed) {
		errorCode = "INTENT_CLASSIFICATION_FAILED"
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
