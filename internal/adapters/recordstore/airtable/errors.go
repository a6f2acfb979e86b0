package airtable

import (
	"errors"
	"fmt"
	"net/http"

	api "github.com/mehanizm/airtable"

	"github.com/okian/register/internal/adapters/recordstore"
)

// ErrConfig is returned by New for missing connection settings.
var ErrConfig = errors.New("airtable: invalid configuration")

// APIError is a non-2xx response from the Airtable API.
type APIError struct {
	Op     string
	Status int
	cause  error
	kind   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable: %s: %d %s: %v", e.Op, e.Status, http.StatusText(e.Status), e.cause)
}

// Unwrap exposes the recordstore error kind and the response error.
func (e *APIError) Unwrap() []error { return []error{e.kind, e.cause} }

// classify maps a response status onto the recordstore error kinds. A 422
// on a list call is a rejected filterByFormula.
func classify(op string, err error, list bool) error {
	var httpErr *api.HTTPClientError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("%w: airtable %s: %w", recordstore.ErrUpstream, op, err)
	}
	e := &APIError{Op: op, Status: httpErr.StatusCode, cause: err}
	switch {
	case httpErr.StatusCode == http.StatusNotFound:
		e.kind = recordstore.ErrNotFound
	case httpErr.StatusCode == http.StatusUnprocessableEntity && list:
		e.kind = recordstore.ErrInvalidQuery
	default:
		e.kind = recordstore.ErrUpstream
	}
	return e
}
