package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/register/internal/adapters/recordstore"
	service "github.com/okian/register/internal/app"
	"github.com/okian/register/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error carries the handler operation and an HTTP-facing kind alongside the
// underlying cause. errors.Is matches both the kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Kind == nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind wraps err as kind under op.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err and leaves classification to the cause.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// classify maps an error to its response status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidEventType),
		errors.Is(err, service.ErrPageOutOfRange):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, recordstore.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, recordstore.ErrInvalidQuery):
		return http.StatusUnprocessableEntity, "invalid_query"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusBadGateway, "upstream"
	}
}
