package repositories

import (
	"context"
	"errors"
	"fmt"
)

// StoreError implements RepositoryError for the blob and cache backed repositories.
type StoreError struct {
	Op          string
	Err         error
	NotFound    bool
	Unavailable bool
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the error represents a missing document.
func (e *StoreError) IsNotFound() bool {
	return e != nil && e.NotFound
}

// IsUnavailable reports whether the error represents a backend outage.
func (e *StoreError) IsUnavailable() bool {
	return e != nil && e.Unavailable
}

// Unavailable wraps err as a backend outage for op. Context errors pass through untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var existing *StoreError
	if errors.As(err, &existing) {
		return existing
	}
	return &StoreError{Op: op, Err: err, Unavailable: true}
}

// IsUnavailable reports whether err carries the unavailable classification.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
