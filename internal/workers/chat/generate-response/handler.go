package generateresponse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-response"
)

var (
	ErrGeneratorUnavailable = errors.New("GENERATOR_UNAVAILABLE")
	ErrGeneratorTimeout     = errors.New("GENERATOR_UNAVAILABLE")
	ErrEmptyResponse        = errors.New("GENERATOR_UNAVAILABLE")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
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
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrGeneratorTimeout) || errors.Is(err, ErrGeneratorUnavailable) {
			retries = 1
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	pkg := input.Package

	requestBody := map[string]interface{}{
		"requestId":    pkg.RequestID,
		"language":     string(pkg.Language),
		"query":        pkg.Query,
		"instructions": pkg.Instructions,
		"facts":        pkg.Facts,
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGeneratorUnavailable, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {

		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.GeneratorFailures.WithLabelValues("timeout").Inc()
				return nil, ErrGeneratorTimeout
			}
		}

		// The body buffer is consumed per attempt, so each retry gets a
		// fresh request.
		req, err := http.NewRequestWithContext(ctx, "POST", h.config.GenAIBaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
		}

		resp, lastErr = h.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			metrics.GeneratorFailures.WithLabelValues("timeout").Inc()
			return nil, ErrGeneratorTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			metrics.GeneratorFailures.WithLabelValues("timeout").Inc()
			return nil, ErrGeneratorTimeout
		}
		metrics.GeneratorFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, lastErr)
	}

	if resp == nil {
		metrics.GeneratorFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("%w: no successful response after retries", ErrGeneratorUnavailable)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Response string `json:"response"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		metrics.GeneratorFailures.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: decode error: %v", ErrGeneratorUnavailable, err)
	}

	// An empty generated answer is a failure, never a silent blank reply.
	if strings.TrimSpace(apiResponse.Response) == "" {
		metrics.GeneratorFailures.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w: generator returned empty response", ErrEmptyResponse)
	}

	h.logger.Info("response generated", map[string]interface{}{
		"requestId":      pkg.RequestID,
		"language":       string(pkg.Language),
		"responseLength": len(apiResponse.Response),
	})

	return &Output{
		Response: apiResponse.Response,
		Language: string(pkg.Language),
	}, nil
}

// FallbackLanguage picks the language a fallback apology should use when
// generation failed.
func FallbackLanguage(pkg models.PromptPackage) string {
	if pkg.Language == models.LanguageArabic {
		return string(models.LanguageArabic)
	}
	return string(models.LanguageEnglish)
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, ErrGeneratorUnavailable) || errors.Is(err, ErrGeneratorTimeout) || errors.Is(err, ErrEmptyResponse) {
		errorCode = "GENERATOR_UNAVAILABLE"
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
