package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSortKey      = errors.New("invalid sort key")
	ErrUnknownFacet        = errors.New("unknown facet key")
	ErrProviderUnavailable = errors.New("recipe provider unavailable")
	ErrProviderError       = errors.New("recipe provider error")
	ErrStaleResponse       = errors.New("stale response")
	ErrClosed              = errors.New("closed")
)

// StatusError is returned by remote providers when the backend answers
// with a non-success status. It matches ErrProviderError under errors.Is.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("recipe provider returned status %d", e.Status)
	}
	return fmt.Sprintf("recipe provider returned status %d: %s", e.Status, e.Message)
}

// Is reports whether target is ErrProviderError.
func (e *StatusError) Is(target error) bool {
	return target == ErrProviderError
}
