package storage

import "errors"

var (
	// ErrNotFound means no stored record matches the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a record with the same (chain, address, analyzed_at)
	// or the same edge of a snapshot is already stored. Stores never overwrite.
	ErrDuplicateKey = errors.New("duplicate key: record already stored")

	// ErrInvalidInput means the record is missing a required field.
	ErrInvalidInput = errors.New("invalid input")
)
