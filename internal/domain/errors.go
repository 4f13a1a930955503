package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks requests rejected before any computation.
var ErrInvalidRequest = errors.New("invalid route request")

// ErrNotFound is returned by registries and archives for unknown ids.
var ErrNotFound = errors.New("not found")

// ProviderError reports a failed external optimization attempt.
// It is always recoverable by planning locally.
type ProviderError struct {
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Reason, e.Err)
	}
	return "provider error: " + e.Reason
}

func (e *ProviderError) Unwrap() error { return e.Err }
