package repository

import "github.com/andy/invoicer/internal/store"

// optional maps "" to a null column
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// notFound wraps ErrNotFound for a missing entity
func notFound(entity string, err error) error {
	if err == nil {
		err = store.ErrNotFound
	}
	return &lookupError{entity: entity, err: err}
}

type lookupError struct {
	entity string
	err    error
}

func (e *lookupError) Error() string { return e.entity + " not found" }
func (e *lookupError) Unwrap() error { return e.err }
