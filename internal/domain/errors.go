package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrQuotaExceeded = errors.New("ai generation limit reached")
	ErrProvider      = errors.New("language model provider failed")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, template, length_settings)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UpgradeOption describes a plan the caller can move to when the quota is exhausted.
type UpgradeOption struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	Limit int    `json:"limit"`
}

// UpgradeOptions are the paid plans offered when an organization runs out of generations.
var UpgradeOptions = map[string]UpgradeOption{
	"creator": {Name: "Creator", Price: 9, Limit: 100},
	"master":  {Name: "Master", Price: 19, Limit: 500},
}

// QuotaExceededError is returned when an organization has no AI generations left.
type QuotaExceededError struct {
	Plan     string // plan key (explorer, creator, master)
	PlanName string // display name
	Used     int
	Limit    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("You have reached your monthly AI generation limit for the %s plan. "+
		"Please upgrade your subscription to generate more AI documents.", e.PlanName)
}

func (e *QuotaExceededError) StatusCode() int {
	return http.StatusForbidden
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// ProviderError wraps a failed language model call.
// Billing is set when the provider rejected the call for quota or billing reasons.
type ProviderError struct {
	Provider string
	Billing  bool
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Billing {
		return fmt.Sprintf("%s API quota exceeded: %v. Please check your %s account for details.",
			e.Provider, e.Err, e.Provider)
	}
	return fmt.Sprintf("%s API call failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) StatusCode() int {
	return http.StatusBadGateway
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StageError records which pipeline stage a generation request failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewValidationError is a shorthand for a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
