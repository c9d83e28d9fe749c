package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrServiceUnavailable indicates an upstream service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrorKind classifies extraction failures.
type ErrorKind string

const (
	KindIO                ErrorKind = "io"
	KindParsing           ErrorKind = "parsing"
	KindOCR               ErrorKind = "ocr"
	KindMissingDependency ErrorKind = "missing_dependency"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindValidation        ErrorKind = "validation"
	KindPlugin            ErrorKind = "plugin"
	KindCache             ErrorKind = "cache"
	KindPanic             ErrorKind = "panic"
	KindInternal          ErrorKind = "internal"
)

// TypeName returns the name reported in error metadata and API error bodies.
func (k ErrorKind) TypeName() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindParsing:
		return "ParsingError"
	case KindOCR:
		return "OCRError"
	case KindMissingDependency:
		return "MissingDependencyError"
	case KindUnsupportedFormat:
		return "UnsupportedFormatError"
	case KindValidation:
		return "ValidationError"
	case KindPlugin:
		return "PluginError"
	case KindCache:
		return "CacheError"
	case KindPanic:
		return "PanicError"
	default:
		return "Error"
	}
}

// Error is the structured error returned by the extraction pipeline.
type Error struct {
	Kind    ErrorKind
	Message string

	// Dependency names the missing tool for KindMissingDependency.
	Dependency string
	// Plugin names the offending plugin for KindPlugin.
	Plugin string
	// MimeType is set for KindUnsupportedFormat.
	MimeType string
	// Panic carries the recovery context for KindPanic.
	Panic *PanicContext

	Err error

	sentinel bool
}

// Kind sentinels. errors.Is(err, ErrValidation) matches any *Error of that kind.
var (
	ErrIO                = &Error{Kind: KindIO, Message: "io error", sentinel: true}
	ErrParsing           = &Error{Kind: KindParsing, Message: "parsing error", sentinel: true}
	ErrOCR               = &Error{Kind: KindOCR, Message: "ocr error", sentinel: true}
	ErrMissingDependency = &Error{Kind: KindMissingDependency, Message: "missing dependency", sentinel: true}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat, Message: "unsupported format", sentinel: true}
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation error", sentinel: true}
	ErrPlugin            = &Error{Kind: KindPlugin, Message: "plugin error", sentinel: true}
	ErrCache             = &Error{Kind: KindCache, Message: "cache error", sentinel: true}
	ErrPanic             = &Error{Kind: KindPanic, Message: "panic", sentinel: true}
)

func (e *Error) Error() string {
	if e.sentinel {
		return e.Message
	}
	switch e.Kind {
	case KindValidation:
		return e.Message
	case KindMissingDependency:
		if e.Message == "" {
			return fmt.Sprintf("missing dependency: %s", e.Dependency)
		}
		return fmt.Sprintf("missing dependency: %s: %s", e.Dependency, e.Message)
	case KindUnsupportedFormat:
		return fmt.Sprintf("unsupported format: %s", e.MimeType)
	case KindPlugin:
		return fmt.Sprintf("plugin error in %q: %s", e.Plugin, e.Message)
	case KindPanic:
		if e.Panic != nil {
			return fmt.Sprintf("panic: %s (%s)", e.Message, e.Panic)
		}
	}
	msg := string(e.Kind) + " error"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NewIOError wraps a file or stream access failure.
func NewIOError(msg string, err error) *Error {
	return &Error{Kind: KindIO, Message: msg, Err: err}
}

// NewParsingError wraps a format decode failure.
func NewParsingError(msg string, err error) *Error {
	return &Error{Kind: KindParsing, Message: msg, Err: err}
}

// NewOCRError wraps an OCR backend failure.
func NewOCRError(msg string, err error) *Error {
	return &Error{Kind: KindOCR, Message: msg, Err: err}
}

// NewMissingDependencyError reports an absent external tool or runtime.
func NewMissingDependencyError(dependency, msg string) *Error {
	return &Error{Kind: KindMissingDependency, Dependency: dependency, Message: msg}
}

// NewUnsupportedFormatError reports a MIME type with no extractor.
func NewUnsupportedFormatError(mimeType string) *Error {
	return &Error{Kind: KindUnsupportedFormat, MimeType: mimeType, Message: mimeType}
}

// NewValidationError reports a rejected result or config. The message is
// returned unchanged by Error().
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NewPluginError reports a registration contract violation.
func NewPluginError(plugin, msg string) *Error {
	return &Error{Kind: KindPlugin, Plugin: plugin, Message: msg}
}

// NewCacheError wraps a cache failure.
func NewCacheError(msg string, err error) *Error {
	return &Error{Kind: KindCache, Message: msg, Err: err}
}

// AsExtractionError converts any error into an *Error, keeping taxonomy errors as is.
func AsExtractionError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Err: err}
}
