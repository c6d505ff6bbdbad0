package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err is (or wraps) a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"

	// Collaborator failure codes, one per external dependency of the pipeline
	ErrCodeSourceUnavailable     = "SOURCE_UNAVAILABLE"
	ErrCodeEmbeddingUnavailable  = "EMBEDDING_UNAVAILABLE"
	ErrCodeGenerationUnavailable = "GENERATION_UNAVAILABLE"
	ErrCodeStoreUnavailable      = "STORE_UNAVAILABLE"
)

// Validation errors
var (
	ErrInvalidSource        = NewDomainError(ErrCodeValidation, "invalid source")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrSourceNotFound = NewDomainError(ErrCodeNotFound, "source not found")
)

// Collaborator errors. Adapters wrap the underlying failure via
// NewDomainErrorWithCause with the matching code; these bare values exist
// for callers that have no cause to attach.
var (
	ErrSourceUnavailable     = NewDomainError(ErrCodeSourceUnavailable, "source unavailable")
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding unavailable")
	ErrGenerationUnavailable = NewDomainError(ErrCodeGenerationUnavailable, "generation unavailable")
	ErrStoreUnavailable      = NewDomainError(ErrCodeStoreUnavailable, "store unavailable")
)
