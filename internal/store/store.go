package store

import "errors"

// ErrNotFound is returned when a lookup matches no row, or when a mutation
// targets a row the caller does not own.
var ErrNotFound = errors.New("not found")
