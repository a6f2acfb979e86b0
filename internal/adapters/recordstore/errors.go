package recordstore

import (
	"context"
	"errors"
)

// Sentinel error kinds shared by all backends.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrUpstream     = errors.New("record store failure")
)

// Kind returns a short label for err, suitable for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "upstream"
	}
}
