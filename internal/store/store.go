// Package store is a generic, table-scoped data client modelled on a
// backend-as-a-service API: select with filters, ordering, expansion of
// related rows and single-row reads, plus insert, update-by-filter and
// delete-by-filter. Rows travel as maps keyed by column name.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("row not found")
	ErrMultipleRows    = errors.New("more than one row matched")
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrMissingFilter   = errors.New("update and delete require at least one filter")
	ErrConstraint      = errors.New("constraint violation")
)

// Row is one record. Values are string, float64, time.Time or nil; expanded
// relations hold a Row (to-one) or []Row (to-many).
type Row map[string]any

// Filter is an equality condition on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a select by a single column.
type Order struct {
	Column     string
	Descending bool
}

// Query describes a select.
type Query struct {
	Filters []Filter
	Order   *Order
	// Expand names relations of the table to embed in each row.
	Expand []string
	// Single requires exactly one matching row: zero rows is ErrNotFound,
	// more than one is ErrMultipleRows.
	Single bool
}

// Client is implemented by every backend.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Insert stores row and returns it with generated columns filled in.
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update applies patch to every row matching filters. Matching no rows
	// is not an error.
	Update(ctx context.Context, table string, patch Row, filters ...Filter) error
	// Delete removes every row matching filters. Matching no rows is not an
	// error.
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// retryable reports whether a failed read may succeed on another attempt
func retryable(err error) bool {
	for _, permanent := range []error{
		ErrNotFound, ErrMultipleRows, ErrUnknownTable, ErrUnknownColumn,
		ErrUnknownRelation, ErrMissingFilter, ErrConstraint,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}
