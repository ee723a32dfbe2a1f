package signature

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey indicates the comparison service is not configured.
var ErrNoAPIKey = errors.New("signature comparer: no api key configured")

// ComparisonError wraps a failure from the external comparison service with
// the status kind the result should carry.
type ComparisonError struct {
	Kind string // "ai_error" or "parse_error"
	Err  error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("signature comparer %s: %v", e.Kind, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// NewAIError wraps a transport or service failure.
func NewAIError(err error) *ComparisonError {
	return &ComparisonError{Kind: "ai_error", Err: err}
}

// NewParseError wraps a malformed or non-conforming service response.
func NewParseError(err error) *ComparisonError {
	return &ComparisonError{Kind: "parse_error", Err: err}
}
