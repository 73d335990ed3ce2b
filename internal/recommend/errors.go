package recommend

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input")

	// ErrUpstreamUnavailable is returned when no catalog page could be
	// fetched during a retrieval.
	ErrUpstreamUnavailable = errors.New("catalog unavailable")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IncompleteProfileError reports a group request made before every
// participant submitted preferences.
type IncompleteProfileError struct {
	Ready int
	Total int
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("%d of %d participants have submitted preferences", e.Ready, e.Total)
}
