// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Query intake errors.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// Catalog errors. A malformed catalog is fatal at session start; no
	// partial catalog is ever served.
	ErrCodeCatalogLoadFailed    ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeProductNotFound      ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeCatalogSourceUnknown ErrorCode = "CATALOG_SOURCE_UNKNOWN"

	// Routing errors. AUTHORIZATION_DENIED is recorded for telemetry only;
	// a denial is a routed outcome, never a thrown error.
	ErrCodeAuthorizationDenied        ErrorCode = "AUTHORIZATION_DENIED"
	ErrCodeIntentClassificationFailed ErrorCode = "INTENT_CLASSIFICATION_FAILED"

	// Analytics and composition errors.
	ErrCodeAnalyticsComputeFailed ErrorCode = "ANALYTICS_COMPUTE_FAILED"
	ErrCodePromptComposeFailed    ErrorCode = "PROMPT_COMPOSE_FAILED"

	// Response Generator transport errors.
	ErrCodeGeneratorUnavailable ErrorCode = "GENERATOR_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	other, ok := target.(*StandardError)
	return ok && other.Code == e.Code
}

// CodeOf extracts the error code from any error, defaulting to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ConvertToBPMNError maps a StandardError onto a BPMN-throwable error.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
	}
}

// GetRetryCount returns how many retries a code is worth. Only transport
// failures to the Response Generator are retried by the engine.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeGeneratorUnavailable:
		return 2
	default:
		return 0
	}
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidQuery:
		return "intake"
	case ErrCodeCatalogLoadFailed, ErrCodeProductNotFound, ErrCodeCatalogSourceUnknown:
		return "catalog"
	case ErrCodeAuthorizationDenied, ErrCodeIntentClassificationFailed:
		return "routing"
	case ErrCodeAnalyticsComputeFailed:
		return "analytics"
	case ErrCodePromptComposeFailed:
		return "composition"
	case ErrCodeGeneratorUnavailable:
		return "generator"
	default:
		return "internal"
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidQueryError rejects empty or whitespace-only query text before
// language detection runs.
func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "Query text is empty",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadError creates the fatal session-start catalog error.
func NewCatalogLoadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Catalog failed validation at load time",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProductNotFoundError creates a non-retryable missing-product error.
func NewProductNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProductNotFound,
		Message:   "Product not found in catalog snapshot",
		Details:   fmt.Sprintf("product: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalyticsComputeFailedError creates a non-retryable analytics error.
func NewAnalyticsComputeFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalyticsComputeFailed,
		Message:   "Analytics computation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPromptComposeFailedError creates a non-retryable composition error.
func NewPromptComposeFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptComposeFailed,
		Message:   "Prompt package could not be assembled",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeneratorUnavailableError creates a retryable transport error for the
// external Response Generator. It is never masked as an empty answer.
func NewGeneratorUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeneratorUnavailable,
		Message:   "Response Generator transport failure",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
