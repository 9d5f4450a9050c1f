// Package conversation chains the chat workers into a synchronous pipeline
// for callers that do not run a workflow engine. Each stage is the same
// Execute the Zeebe handlers use, so both delivery paths share one set of
// semantics.
package conversation

import (
	"context"
	"errors"

	chaterrors "product-chat-workers/internal/common/errors"
	"product-chat-workers/internal/common/logger"
	"product-chat-workers/internal/common/metrics"
	"product-chat-workers/internal/common/observability"
	"product-chat-workers/internal/models"
	classifyintent "product-chat-workers/internal/workers/chat/classify-intent"
	composeprompt "product-chat-workers/internal/workers/chat/compose-prompt"
	computeanalytics "product-chat-workers/internal/workers/chat/compute-analytics"
	detectlanguage "product-chat-workers/internal/workers/chat/detect-language"
	filtercatalogfacts "product-chat-workers/internal/workers/chat/filter-catalog-facts"
	generateresponse "product-chat-workers/internal/workers/chat/generate-response"
	"product-chat-workers/pkg/registry"

	"github.com/google/uuid"
)

// Request is one user query with its session role.
type Request struct {
	Text string `json:"text"`
	Role string `json:"role"`
}

// Reply is the final user-facing answer.
type Reply struct {
	RequestID string         `json:"requestId"`
	Text      string         `json:"text"`
	Language  string         `json:"language"`
	Outcome   models.Outcome `json:"outcome"`
	Fallback  bool           `json:"fallback"`
}

// Pipeline wires the six chat workers together.
type Pipeline struct {
	detect    *detectlanguage.Handler
	classify  *classifyintent.Handler
	analytics *computeanalytics.Handler
	facts     *filtercatalogfacts.Handler
	compose   *composeprompt.Handler
	generate  *generateresponse.Handler
	templates *registry.Registry
	obs       *observability.Observability
	logger    logger.Logger
}

// Handlers groups the worker handlers a pipeline runs.
type Handlers struct {
	DetectLanguage     *detectlanguage.Handler
	ClassifyIntent     *classifyintent.Handler
	ComputeAnalytics   *computeanalytics.Handler
	FilterCatalogFacts *filtercatalogfacts.Handler
	ComposePrompt      *composeprompt.Handler
	GenerateResponse   *generateresponse.Handler
}

func NewPipeline(h Handlers, templates *registry.Registry, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		detect:    h.DetectLanguage,
		classify:  h.ClassifyIntent,
		analytics: h.ComputeAnalytics,
		facts:     h.FilterCatalogFacts,
		compose:   h.ComposePrompt,
		generate:  h.GenerateResponse,
		templates: templates,
		obs:       obs,
		logger:    log.With(map[string]interface{}{"component": "conversation"}),
	}
}

// Process runs a query end to end. A denial returns a normal Reply. When
// the Response Generator is unreachable, Process returns BOTH a usable
// fallback Reply and a GENERATOR_UNAVAILABLE error so callers can surface
// the apology while recording the failure.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Reply, error) {
	requestID := uuid.New().String()
	log := p.logger.With(map[string]interface{}{"requestId": requestID})

	detected, err := p.detect.Execute(ctx, &detectlanguage.Input{Query: req.Text})
	if err != nil {
		if errors.Is(err, detectlanguage.ErrEmptyQuery) {
			return nil, chaterrors.NewInvalidQueryError(err.Error())
		}
		return nil, err
	}

	classified, err := p.classify.Execute(ctx, &classifyintent.Input{
		Query:    detected.Query,
		Language: detected.Language,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, classifyintent.ErrInvalidRole) {
			return nil, chaterrors.NewInvalidQueryError(err.Error())
		}
		return nil, err
	}

	metrics.QueriesProcessed.WithLabelValues(
		string(classified.Intent.Type), detected.Language, req.Role,
	).Inc()
	if p.obs != nil {
		p.obs.RecordQuery(ctx, string(classified.Intent.Type), string(classified.Outcome), detected.Language)
	}

	if classified.Outcome == models.OutcomeDenied {
		metrics.QueriesDenied.WithLabelValues(string(classified.Intent.Op), req.Role).Inc()

		composed, err := p.compose.Execute(ctx, &composeprompt.Input{
			RequestID:       requestID,
			Query:           detected.Query,
			Language:        detected.Language,
			Role:            req.Role,
			Intent:          classified.Intent,
			Outcome:         classified.Outcome,
			RefusalTemplate: classified.RefusalTemplate,
		})
		if err != nil {
			return nil, err
		}

		log.Info("query denied", map[string]interface{}{
			"role":   req.Role,
			"intent": string(classified.Intent.Type),
		})

		return &Reply{
			RequestID: requestID,
			Text:      composed.RefusalText,
			Language:  detected.Language,
			Outcome:   models.OutcomeDenied,
		}, nil
	}

	var analyticsResult *models.AnalyticsResult
	if classified.Intent.Type == models.IntentAnalytics {
		computed, err := p.analytics.Execute(ctx, &computeanalytics.Input{
			Op: string(classified.Intent.Op),
		})
		if err != nil {
			return nil, err
		}
		analyticsResult = &computed.Result
	}

	filtered, err := p.facts.Execute(ctx, &filtercatalogfacts.Input{
		Intent:          classified.Intent,
		Outcome:         classified.Outcome,
		Role:            req.Role,
		MatchedProducts: classified.MatchedProducts,
		AnalyticsResult: analyticsResult,
	})
	if err != nil {
		return nil, err
	}

	composed, err := p.compose.Execute(ctx, &composeprompt.Input{
		RequestID: requestID,
		Query:     detected.Query,
		Language:  detected.Language,
		Role:      req.Role,
		Intent:    classified.Intent,
		Outcome:   classified.Outcome,
		Facts:     filtered.Facts,
	})
	if err != nil {
		return nil, err
	}

	generated, err := p.generate.Execute(ctx, &generateresponse.Input{
		Package: composed.Package,
	})
	if err != nil {
		lang := generateresponse.FallbackLanguage(composed.Package)
		fallback := p.templates.MustGet(registry.TemplateGeneratorFallback, lang)

		log.Warn("generator unavailable, serving fallback", map[string]interface{}{
			"language": lang,
			"error":    err.Error(),
		})

		return &Reply{
			RequestID: requestID,
			Text:      fallback,
			Language:  lang,
			Outcome:   classified.Outcome,
			Fallback:  true,
		}, chaterrors.NewGeneratorUnavailableError(err)
	}

	log.Info("query answered", map[string]interface{}{
		"intent":   string(classified.Intent.Type),
		"language": detected.Language,
	})

	return &Reply{
		RequestID: requestID,
		Text:      generated.Response,
		Language:  generated.Language,
		Outcome:   classified.Outcome,
	}, nil
}
