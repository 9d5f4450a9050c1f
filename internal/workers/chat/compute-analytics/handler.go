package computeanalytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"product-chat-workers/internal/common/catalog"
	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "compute-analytics"
)

var (
	ErrUnknownOperation = errors.New("ANALYTICS_COMPUTE_FAILED")
	ErrCatalogNotLoaded = errors.New("ANALYTICS_COMPUTE_FAILED")
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
	cache   *redis.Client
	logger  Logger
}

// NewHandler builds the analytics worker. The cache client may be nil, in
// which case every request computes from the snapshot.
func NewHandler(config *Config, cat CatalogProvider, cache *redis.Client, log Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: cat,
		cache:   cache,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

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
	op := models.AnalyticsOp(input.Op)
	if !validOp(op) {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrUnknownOperation, input.Op)
	}

	snap := h.catalog.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("%w: catalog not loaded", ErrCatalogNotLoaded)
	}

	// Cached results are keyed by catalog version, so a reload invalidates
	// every cached aggregate without an explicit flush.
	cacheKey := fmt.Sprintf("chat:analytics:%s:%s", snap.Version, op)

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey).Result(); err == nil {
			var result models.AnalyticsResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				metrics.AnalyticsCacheHits.WithLabelValues("hit").Inc()
				return &Output{Result: result, CacheHit: true}, nil
			}
		}
		metrics.AnalyticsCacheHits.WithLabelValues("miss").Inc()
	}

	result := compute(op, snap)

	if h.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(ctx, cacheKey, payload, h.config.CacheTTL).Err(); err != nil {
				h.logger.Warn("failed to cache analytics result", map[string]interface{}{
					"key":   cacheKey,
					"error": err.Error(),
				})
			}
		}
	}

	h.logger.Info("analytics computed", map[string]interface{}{
		"operation":      string(op),
		"catalogVersion": snap.Version,
		"products":       len(snap.Products),
	})

	return &Output{Result: result}, nil
}

// compute produces the aggregate for one operation. All arithmetic is done
// here in integer cents; the Response Generator only ever restates these
// numbers.
func compute(op models.AnalyticsOp, snap *catalog.Snapshot) models.AnalyticsResult {
	result := models.AnalyticsResult{
		Op:             op,
		CatalogVersion: snap.Version,
		ComputedAt:     time.Now().UTC(),
	}

	switch op {
	case models.OpTotalRevenue:
		total := totalRevenue(snap.Products)
		result.TotalRevenue = &total

	case models.OpTotalUnitsSold:
		total := totalUnits(snap.Products)
		result.TotalUnitsSold = &total

	case models.OpBestSeller:
		if best := bestSeller(snap.Products); best != nil {
			result.BestSeller = best
		}

	case models.OpPerProductSales:
		result.Ranking = ranking(snap.Products)
		revenue := totalRevenue(snap.Products)
		units := totalUnits(snap.Products)
		result.Summary = &models.SalesSummary{
			TotalProducts:  len(snap.Products),
			TotalUnitsSold: units,
			TotalRevenue:   revenue,
		}
		if best := bestSeller(snap.Products); best != nil {
			result.BestSeller = best
		}
	}

	return result
}

func totalRevenue(products []models.Product) models.Money {
	var total models.Money
	for _, p := range products {
		total = total.Add(p.Revenue)
	}
	return total
}

func totalUnits(products []models.Product) int64 {
	var total int64
	for _, p := range products {
		total += p.UnitsSold
	}
	return total
}

// bestSeller picks the product with the most units sold. Ties break on the
// lexicographically smaller English name so repeated runs agree.
func bestSeller(products []models.Product) *models.ProductSales {
	if len(products) == 0 {
		return nil
	}

	best := products[0]
	for _, p := range products[1:] {
		if p.UnitsSold > best.UnitsSold ||
			(p.UnitsSold == best.UnitsSold && p.Name < best.Name) {
			best = p
		}
	}

	return &models.ProductSales{
		Name:      best.Name,
		NameAR:    best.NameAR,
		UnitsSold: best.UnitsSold,
		Revenue:   best.Revenue,
	}
}

// ranking orders every product by units sold descending, name ascending.
func ranking(products []models.Product) []models.ProductSales {
	rows := make([]models.ProductSales, 0, len(products))
	for _, p := range products {
		rows = append(rows, models.ProductSales{
			Name:      p.Name,
			NameAR:    p.NameAR,
			UnitsSold: p.UnitsSold,
			Revenue:   p.Revenue,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UnitsSold != rows[j].UnitsSold {
			return rows[i].UnitsSold > rows[j].UnitsSold
		}
		return rows[i].Name < rows[j].Name
	})

	return rows
}

func validOp(op models.AnalyticsOp) bool {
	for _, known := range models.AllAnalyticsOps() {
		if op == known {
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
	if errors.Is(err, ErrUnknownOperation) || errors.Is(err, ErrCatalogNotLoaded) {
		errorCode = "ANALYTICS_COMPUTE_FAILED"
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
