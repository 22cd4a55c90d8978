package catalogerr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the client or the catalog matches exactly
// one of them through errors.Is.
var (
	// ErrTransport connectivity or timeout problems, safe to retry with backoff
	ErrTransport = errors.New("transport error")
	// ErrProtocol a non success status without a well defined recovery
	ErrProtocol = errors.New("protocol error")
	// ErrDecode a malformed response body
	ErrDecode = errors.New("decode error")
	// ErrNotFound the reference, key or object does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists the reference, key or object exists already
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict the expected hash did not match the current hash
	ErrConflict = errors.New("conflict")
	// ErrConcurrentModification an optimistic commit lost against a concurrent writer
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrValidation malformed input, never retried
	ErrValidation = errors.New("validation error")
	// ErrNotEmpty a namespace still has children
	ErrNotEmpty = errors.New("not empty")
)

// ResponseError is a non success reply of the versioned store. The raw body is
// kept for diagnostics.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Reason     string
	ErrorCode  string
	Message    string
	Body       string
	Kind       error
}

func (e *ResponseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Reason != "" {
		b.WriteString(" " + e.Reason)
	}
	if e.ErrorCode != "" {
		b.WriteString(" (" + e.ErrorCode + ")")
	}
	switch {
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Body != "":
		b.WriteString(": " + e.Body)
	}
	return b.String()
}

func (e *ResponseError) Unwrap() error {
	if e.Kind == nil {
		return ErrProtocol
	}
	return e.Kind
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConcurrentModificationError is returned when a commit against Ref@Expected was
// rejected because another commit landed first.
type ConcurrentModificationError struct {
	Op       string
	Ref      string
	Expected string
	Err      error
}

func (e *ConcurrentModificationError) Error() string {
	msg := fmt.Sprintf("%s: concurrent modification of %s (expected hash %s)", e.Op, e.Ref, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification || target == ErrConflict
}

func (e *ConcurrentModificationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err may be retried blindly. Only transport errors
// qualify; conflicts require the caller to re-validate its preconditions.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Kind returns the sentinel err belongs to, or nil.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrNotEmpty,
		ErrConcurrentModification,
		ErrConflict,
		ErrAlreadyExists,
		ErrNotFound,
		ErrDecode,
		ErrTransport,
		ErrProtocol,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
