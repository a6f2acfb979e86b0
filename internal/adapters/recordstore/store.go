// Package recordstore defines the contract every record store backend
// implements: tables of records holding loosely typed field maps.
package recordstore

import (
	"context"
	"time"

	"github.com/okian/register/internal/domain/filter"
)

// Fields is a record's loosely typed field map. Relation fields hold a list
// of linked record ids.
type Fields map[string]any

// Record is one row of a table.
type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

// Query selects rows from a table. A nil Filter selects every row.
// Limit 0 returns all rows after Offset.
type Query struct {
	Filter filter.Expr
	Offset int
	Limit  int
}

// Store is implemented by every backend.
type Store interface {
	// Select returns matching rows in the table's natural order.
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	// Find returns the row with id or ErrNotFound.
	Find(ctx context.Context, table, id string) (Record, error)
	// Create inserts a row and returns it with its assigned id.
	Create(ctx context.Context, table string, fields Fields) (Record, error)
	// Update merges fields into the row with id and returns the result.
	Update(ctx context.Context, table, id string, fields Fields) (Record, error)
}
