package repository

import "errors"

// ErrNotFound is returned by deletes and lookups that matched no row.
var ErrNotFound = errors.New("not found")
