// Package errors provides the error taxonomy shared by the dialogue engine, its data sources
// and the Zeebe worker that exposes it.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Sentinel Errors
// ==========================

var (
	// ErrUnknownBrand is returned when a brand key is not part of the catalog.
	ErrUnknownBrand = errors.New("UNKNOWN_BRAND")
	// ErrUnknownCategory is returned when a category is not part of the catalog.
	ErrUnknownCategory = errors.New("UNKNOWN_CATEGORY")
	// ErrEmptyResult is returned when the active filters eliminate every catalog row.
	ErrEmptyResult = errors.New("EMPTY_RESULT")
	// ErrMissingRankingEntry means the classifier ranking lacks an intent it must cover.
	ErrMissingRankingEntry = errors.New("MISSING_RANKING_ENTRY")
	// ErrUnhandledIntent means no handler is registered for a resolved intent.
	ErrUnhandledIntent = errors.New("UNHANDLED_INTENT")

	ErrClassifierUnavailable = errors.New("CLASSIFIER_UNAVAILABLE")
	ErrClassifierTimeout     = errors.New("CLASSIFIER_TIMEOUT")
	ErrCatalogInvalid        = errors.New("CATALOG_INVALID")
	ErrVocabularyInvalid     = errors.New("VOCABULARY_INVALID")
	ErrSessionNotFound       = errors.New("SESSION_NOT_FOUND")
	ErrSessionLimitReached   = errors.New("SESSION_LIMIT_REACHED")
)

// ==========================
// 2. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnknownBrand          ErrorCode = "UNKNOWN_BRAND"
	ErrCodeUnknownCategory       ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeEmptyResult           ErrorCode = "EMPTY_RESULT"
	ErrCodeMissingRankingEntry   ErrorCode = "MISSING_RANKING_ENTRY"
	ErrCodeUnhandledIntent       ErrorCode = "UNHANDLED_INTENT"
	ErrCodeClassifierUnavailable ErrorCode = "CLASSIFIER_UNAVAILABLE"
	ErrCodeClassifierTimeout     ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeCatalogInvalid        ErrorCode = "CATALOG_INVALID"
	ErrCodeVocabularyInvalid     ErrorCode = "VOCABULARY_INVALID"
	ErrCodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionLimitReached   ErrorCode = "SESSION_LIMIT_REACHED"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// sentinelCodes maps each sentinel to its code so wrapped errors can be normalized.
var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrUnknownBrand, ErrCodeUnknownBrand},
	{ErrUnknownCategory, ErrCodeUnknownCategory},
	{ErrEmptyResult, ErrCodeEmptyResult},
	{ErrMissingRankingEntry, ErrCodeMissingRankingEntry},
	{ErrUnhandledIntent, ErrCodeUnhandledIntent},
	{ErrClassifierUnavailable, ErrCodeClassifierUnavailable},
	{ErrClassifierTimeout, ErrCodeClassifierTimeout},
	{ErrCatalogInvalid, ErrCodeCatalogInvalid},
	{ErrVocabularyInvalid, ErrCodeVocabularyInvalid},
	{ErrSessionNotFound, ErrCodeSessionNotFound},
	{ErrSessionLimitReached, ErrCodeSessionLimitReached},
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 3. BPMN Error Integration
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

// ==========================
// 4. Error Constructors
// ==========================

// NewUnknownBrandError creates a non-retryable error for a brand outside the catalog.
func NewUnknownBrandError(brand string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownBrand,
		Message:   "Brand is not part of the catalog",
		Details:   fmt.Sprintf("brand: %s", brand),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrUnknownBrand,
	}
}

// NewEmptyResultError creates a non-retryable error for an exhausted filtered catalog.
func NewEmptyResultError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyResult,
		Message:   "No catalog row matches the current preferences",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrEmptyResult,
	}
}

// NewSessionLimitReachedError creates a retryable error for a full session registry.
func NewSessionLimitReachedError(limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionLimitReached,
		Message:   "Too many open conversations",
		Details:   fmt.Sprintf("maxSessions: %d", limit),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     ErrSessionLimitReached,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeClassifierUnavailable:
		return 3
	case ErrCodeClassifierTimeout, ErrCodeSessionLimitReached:
		return 2
	default:
		return 0 // Business errors: no retry
	}
}

// Normalize converts any error into a StandardError, recognizing wrapped sentinels.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return &StandardError{
				Code:      s.code,
				Message:   strings.ToLower(strings.ReplaceAll(string(s.code), "_", " ")),
				Details:   err.Error(),
				Retryable: GetRetryCount(s.code) > 0,
				Timestamp: time.Now().UTC(),
				cause:     err,
			}
		}
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFIER"), strings.Contains(codeStr, "RANKING"):
		return "CLASSIFIER"
	case strings.Contains(codeStr, "BRAND"), strings.Contains(codeStr, "CATEGORY"), strings.Contains(codeStr, "RESULT"):
		return "PREFERENCE"
	case strings.Contains(codeStr, "CATALOG"), strings.Contains(codeStr, "VOCABULARY"):
		return "DATA"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "INTENT"):
		return "DIALOGUE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
