// Package ierrors generalizes the status+code+message+wrapped-cause error
// shape into the two fatal error kinds this daemon surfaces: config
// validation failures (collected, not first-wins) and startup failures;
// it also holds APIError, the status API's HTTP error type.
package ierrors

import (
	"fmt"
	"strings"
)

// ConfigError names one config validation violation.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigErrors aggregates every violation found during a single validation
// pass, so the operator sees all of them at once rather than fixing one
// and re-running to find the next.
type ConfigErrors struct {
	Errors []*ConfigError
}

func (e *ConfigErrors) Error() string {
	lines := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		lines[i] = ce.Error()
	}
	return fmt.Sprintf("%d config validation error(s):\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

// Add records a violation. A nil receiver is never expected to exist by
// construction, so no guard is needed here.
func (e *ConfigErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ConfigError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ConfigErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// AsError returns e as an error if it carries any violation, or nil.
func (e *ConfigErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// StartupError is a fatal, non-config startup failure: UDP bind failure,
// an unknown parser name, or any other condition that prevents the daemon
// from beginning to serve traffic.
type StartupError struct {
	Code    string
	Message string
	Err     error
}

func (e *StartupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Wrap returns a copy of e wrapping cause.
func (e *StartupError) Wrap(cause error) *StartupError {
	return &StartupError{Code: e.Code, Message: e.Message, Err: cause}
}

var (
	ErrBindFailure   = &StartupError{Code: "BIND_FAILURE", Message: "failed to bind UDP listener"}
	ErrUnknownParser = &StartupError{Code: "UNKNOWN_PARSER", Message: "unrecognized network.parser value"}
	ErrConfigLoad    = &StartupError{Code: "CONFIG_LOAD_FAILURE", Message: "failed to load configuration file"}
	ErrConfigInvalid = &StartupError{Code: "CONFIG_INVALID", Message: "configuration failed validation"}
	ErrLoggerInit    = &StartupError{Code: "LOGGER_INIT_FAILURE", Message: "failed to initialize logger"}
)

// APIError is a status-API error carrying the HTTP status to respond with,
// a stable machine-readable code, and an operator-facing message. The
// status API's error handler middleware type-asserts on this.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMessage returns a copy of e with a more specific message, leaving
// Status and Code untouched.
func (e *APIError) WithMessage(msg string) *APIError {
	return &APIError{Status: e.Status, Code: e.Code, Message: msg}
}

var (
	ErrInvalidRequestBody = &APIError{Status: 400, Code: "INVALID_REQUEST_BODY", Message: "invalid request body"}
	ErrMissingAuthHeader  = &APIError{Status: 401, Code: "MISSING_AUTH_HEADER", Message: "missing Authorization header"}
	ErrInvalidAuthFormat  = &APIError{Status: 401, Code: "INVALID_AUTH_FORMAT", Message: "Authorization header must use Bearer scheme"}
	ErrInvalidToken       = &APIError{Status: 401, Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrDatabaseFailure    = &APIError{Status: 500, Code: "DATABASE_FAILURE", Message: "database operation failed"}
	ErrAuditDisabled      = &APIError{Status: 503, Code: "AUDIT_DISABLED", Message: "audit persistence is not configured"}
)
