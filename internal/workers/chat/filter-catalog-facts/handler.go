package filtercatalogfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"product-chat-workers/internal/common/catalog"
	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/common/policy"
	"product-chat-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "filter-catalog-facts"
)

var (
	ErrInvalidRole      = errors.New("INVALID_QUERY")
	ErrMissingAnalytics = errors.New("PROMPT_COMPOSE_FAILED")
	ErrCatalogNotLoaded = errors.New("PROMPT_COMPOSE_FAILED")
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

	// A denied query carries no facts at all. The refusal text is fixed;
	// nothing about the withheld data may travel further down the pipeline.
	if input.Outcome == models.OutcomeDenied {
		return &Output{}, nil
	}

	switch input.Intent.Type {
	case models.IntentAnalytics:
		// The aggregate answers the question by itself; raw catalog rows
		// stay out of the fact set.
		if input.AnalyticsResult == nil {
			return nil, fmt.Errorf("%w: analytics result missing for %s", ErrMissingAnalytics, input.Intent.Op)
		}
		return &Output{
			Facts: models.FactSet{Analytics: input.AnalyticsResult},
		}, nil

	case models.IntentLookup:
		snap := h.catalog.Snapshot()
		if snap == nil {
			return nil, fmt.Errorf("%w: catalog not loaded", ErrCatalogNotLoaded)
		}

		products := h.resolveProducts(snap, input)
		facts := policy.FilterAll(products, role)

		h.logger.Info("catalog facts filtered", map[string]interface{}{
			"role":     string(role),
			"products": len(facts),
		})

		return &Output{
			Facts: models.FactSet{Products: facts},
		}, nil

	default:
		// General questions get the full customer-visible (or staff)
		// catalog view so the generator can describe the portfolio.
		snap := h.catalog.Snapshot()
		if snap == nil {
			return nil, fmt.Errorf("%w: catalog not loaded", ErrCatalogNotLoaded)
		}
		return &Output{
			Facts: models.FactSet{Products: policy.FilterAll(snap.Products, role)},
		}, nil
	}
}

func (h *Handler) resolveProducts(snap *catalog.Snapshot, input *Input) []models.Product {
	if input.Intent.ProductRef != "" {
		if p, ok := snap.FindByName(input.Intent.ProductRef); ok {
			return []models.Product{*p}
		}
	}

	if len(input.MatchedProducts) > 0 {
		var products []models.Product
		for _, name := range input.MatchedProducts {
			if p, ok := snap.FindByName(name); ok {
				products = append(products, *p)
			}
		}
		if len(products) > 0 {
			return products
		}
	}

	return snap.Products
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
	} else if errors.Is(err, ErrMissingAnalytics) || errors.Is(err, ErrCatalogNotLoaded) {
		errorCode = "PROMPT_COMPOSE_FAILED"
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
