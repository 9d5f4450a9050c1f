package composeprompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/models"
	"product-chat-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "compose-prompt"
)

var (
	ErrComposeFailed = errors.New("PROMPT_COMPOSE_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	templates *registry.Registry
	logger    Logger
}

func NewHandler(config *Config, templates *registry.Registry, log Logger) *Handler {
	return &Handler{
		config:    config,
		templates: templates,
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
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrComposeFailed)
	}

	language := models.Language(input.Language)
	if language != models.LanguageArabic {
		language = models.LanguageEnglish
	}

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	pkg := models.PromptPackage{
		RequestID: requestID,
		Language:  language,
		Query:     input.Query,
		Outcome:   input.Outcome,
	}

	// Denied queries resolve to a fixed refusal. The text names the access
	// rule, never the data that was withheld, and skips the generator.
	if input.Outcome == models.OutcomeDenied {
		templateID := input.RefusalTemplate
		if templateID == "" {
			templateID = registry.TemplateRefusalAnalytics
		}

		text, ok := h.templates.Get(templateID, string(language))
		if !ok {
			return nil, fmt.Errorf("%w: refusal template %q not registered", ErrComposeFailed, templateID)
		}

		h.logger.Info("refusal composed", map[string]interface{}{
			"requestId": requestID,
			"template":  templateID,
			"language":  string(language),
		})

		return &Output{Package: pkg, RefusalText: text}, nil
	}

	pkg.Facts = input.Facts
	pkg.Instructions = h.buildInstructions(language, models.Role(input.Role), input.Intent)

	h.logger.Info("prompt composed", map[string]interface{}{
		"requestId":    requestID,
		"language":     string(language),
		"intent":       string(input.Intent.Type),
		"factProducts": len(input.Facts.Products),
		"hasAnalytics": input.Facts.Analytics != nil,
	})

	return &Output{Package: pkg}, nil
}

func (h *Handler) buildInstructions(language models.Language, role models.Role, intent models.Intent) string {
	var b strings.Builder

	b.WriteString(h.templates.MustGet(registry.TemplateSystemInstruction, string(language)))
	b.WriteString("\n\n")

	if language == models.LanguageArabic {
		b.WriteString("LANGUAGE: The user asked in Arabic. Respond ONLY in Arabic.\n")
	} else {
		b.WriteString("LANGUAGE: The user asked in English. Respond ONLY in English.\n")
	}

	if role == models.RoleCustomer {
		b.WriteString("BOUNDARY: The facts below are the complete set you may use. Do not mention, estimate or speculate about any figure that is not in them.\n")
	}

	if intent.Type == models.IntentAnalytics {
		b.WriteString("NUMBERS: The analytics figures in the facts are final. Restate them exactly; do not recompute, round or extrapolate.\n")
	}

	return b.String()
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
	if errors.Is(err, ErrComposeFailed) {
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
