package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeCacheCorrupt     = "CACHE_CORRUPT"
	ErrCodeIndexUnavailable = "INDEX_UNAVAILABLE"
	ErrCodeHasherMissing    = "HASHER_MISSING"
)

// UserError is an error with a message and an actionable suggestion, meant
// to be shown to the person running the command.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CACHE_CORRUPT")
	Message    string // User-friendly error message
	Context    string // File path, URL, or other location context
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the message with its context.
func (e *UserError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another UserError with the same code.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns the error with code, location, and suggestion on separate
// lines.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// NewUserError creates a new UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{Code: code, Message: message}
}

// WithContext returns a copy with context set.
func (e *UserError) WithContext(ctx string) *UserError {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy with suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy wrapping err.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}

// ErrorList collects validation errors.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// AddValidation records a validation failure for field.
func (l *ErrorList) AddValidation(field, message, suggestion string) {
	l.errors = append(l.errors, &UserError{
		Code:       ErrCodeValidationFailed,
		Message:    message,
		Context:    field,
		Suggestion: suggestion,
	})
}

// HasErrors reports whether any error was recorded.
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

// Errors returns the recorded errors.
func (l *ErrorList) Errors() []*UserError {
	return l.errors
}

// Error joins all messages.
func (l *ErrorList) Error() string {
	msgs := make([]string, 0, len(l.errors))
	for _, e := range l.errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// AsError returns nil for an empty list, the single error for a list of
// one, and the list otherwise.
func (l *ErrorList) AsError() error {
	switch len(l.errors) {
	case 0:
		return nil
	case 1:
		return l.errors[0]
	default:
		return l
	}
}

// NewConfigNotFoundError reports a missing configuration file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    "configuration file not found",
		Context:    path,
		Suggestion: "Check the --config path, or omit --config to use the built-in defaults.",
	}
}

// NewConfigParseError reports a configuration file that could not be decoded.
func NewConfigParseError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "configuration file could not be parsed",
		Context:    path,
		Suggestion: "Check the file syntax. YAML is read from .yaml/.yml files and TOML from .toml files.",
		Underlying: err,
	}
}

// NewCacheCorruptError reports a hash cache that could not be decoded.
// Nothing is discarded automatically.
func NewCacheCorruptError(location string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeCacheCorrupt,
		Message:    "hash cache is unreadable",
		Context:    location,
		Suggestion: "Move the cache aside and rerun; every artifact will be hashed again.",
		Underlying: err,
	}
}

// NewIndexUnavailableError reports an index or listing page fetch failure.
func NewIndexUnavailableError(url string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeIndexUnavailable,
		Message:    "repository page could not be fetched",
		Context:    url,
		Suggestion: "Check network access to the repository and the configured root URL.",
		Underlying: err,
	}
}

// NewHasherMissingError reports a hashing command that could not be started.
func NewHasherMissingError(command string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeHasherMissing,
		Message:    "hashing command could not be run",
		Context:    command,
		Suggestion: "Install Nix so that nix-prefetch-url is on PATH, or set hasher.command.",
		Underlying: err,
	}
}

// GetUserError extracts a UserError from an error chain.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

// IsUserError reports whether err carries a UserError with code.
func IsUserError(err error, code string) bool {
	ue := GetUserError(err)
	return ue != nil && ue.Code == code
}
