package authconfig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory categorizes errors for handling and reporting.
type ErrorCategory string

const (
	// ErrCategoryValidation indicates unsafe paths, missing options or a missing input artifact.
	ErrCategoryValidation ErrorCategory = "validation"
	// ErrCategoryAlreadyConfigured indicates the host is already enrolled.
	ErrCategoryAlreadyConfigured ErrorCategory = "already_configured"
	// ErrCategoryNotInContext indicates the process is not inside a provisioning container.
	ErrCategoryNotInContext ErrorCategory = "not_in_context"
	// ErrCategoryCommand indicates an external command exited non-zero or could not start.
	ErrCategoryCommand ErrorCategory = "command"
	// ErrCategoryConfigWrite indicates a host configuration file could not be written.
	ErrCategoryConfigWrite ErrorCategory = "config_write"
	// ErrCategoryArtifactLoad indicates a config map could not be read or parsed.
	ErrCategoryArtifactLoad ErrorCategory = "artifact_load"
	// ErrCategoryNotFound indicates a requested resource was not found.
	ErrCategoryNotFound ErrorCategory = "not_found"
	// ErrCategoryInternal indicates an internal error.
	ErrCategoryInternal ErrorCategory = "internal"
)

// Error is a structured error with category and context.
type Error struct {
	// Category classifies the error type.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// Provider is the provider where the error occurred.
	Provider ProviderName

	// Operation is the operation that failed.
	Operation string

	// Cause is the underlying error.
	Cause error

	// Details contains additional error context.
	Details map[string]interface{}

	logged bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Category, e.Message)
	if e.Provider != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.Provider, e.Category, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error's category.
func (e *Error) Is(target error) bool {
	var acErr *Error
	if errors.As(target, &acErr) {
		return e.Category == acErr.Category
	}
	return false
}

// NewError creates a new Error.
func NewError(category ErrorCategory, message string) *Error {
	return &Error{
		Category: category,
		Message:  message,
		Details:  make(map[string]interface{}),
	}
}

// WithProvider sets the provider.
func (e *Error) WithProvider(p ProviderName) *Error {
	e.Provider = p
	return e
}

// WithOperation sets the operation.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithCause sets the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// Convenience constructors for common error types

// ErrValidation creates a validation error.
func ErrValidation(message string) *Error {
	return NewError(ErrCategoryValidation, message)
}

// ErrAlreadyConfigured creates an error for a provider that is already configured.
func ErrAlreadyConfigured(p ProviderName) *Error {
	return NewError(ErrCategoryAlreadyConfigured, fmt.Sprintf("%s already configured", p)).
		WithProvider(p)
}

// ErrNotInContext creates an error for a destructive step attempted outside
// the provisioning container. skipped names what would otherwise have run.
func ErrNotInContext(skipped string) *Error {
	return NewError(ErrCategoryNotInContext,
		fmt.Sprintf("not running in auth-config container - skipping %s", skipped)).
		WithDetail("marker", ContextMarkerEnv)
}

// ErrConfigWrite creates an error for a failed host file update.
func ErrConfigWrite(path string, cause error) *Error {
	return NewError(ErrCategoryConfigWrite, fmt.Sprintf("failed to write %s", path)).
		WithCause(cause).
		WithDetail("path", path)
}

// ErrArtifactLoad creates an error for an unreadable or malformed config map.
func ErrArtifactLoad(path string, cause error) *Error {
	return NewError(ErrCategoryArtifactLoad, fmt.Sprintf("failed to load config map %s", path)).
		WithCause(cause).
		WithDetail("path", path)
}

// ErrNotFound creates a not found error.
func ErrNotFound(resourceType, resourceID string) *Error {
	return NewError(ErrCategoryNotFound, fmt.Sprintf("%s not found: %s", resourceType, resourceID)).
		WithDetail("resource_type", resourceType).
		WithDetail("resource_id", resourceID)
}

// ErrInternal creates an internal error.
func ErrInternal(message string) *Error {
	return NewError(ErrCategoryInternal, message)
}

// Logged reports whether err was already written to the log by
// LogCommandError.
func Logged(err error) bool {
	var acErr *Error
	if errors.As(err, &acErr) {
		return acErr.logged
	}
	return false
}

// IsCategory checks if an error is of a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	var acErr *Error
	if errors.As(err, &acErr) {
		return acErr.Category == category
	}
	return false
}

// CommandError describes an external command that exited non-zero or
// could not be started. Args are stored already redacted.
type CommandError struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s failed to start: %v", cmdline, e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", cmdline, e.ExitCode)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrCommand wraps a CommandError in a command-category error.
func ErrCommand(cerr *CommandError) *Error {
	return NewError(ErrCategoryCommand, "command execution failed").
		WithCause(cerr).
		WithDetail("command", cerr.Command).
		WithDetail("exit_code", cerr.ExitCode)
}

// AsCommandError extracts the CommandError from an error chain.
func AsCommandError(err error) (*CommandError, bool) {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}
