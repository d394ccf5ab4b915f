package repository

import "errors"

var (
	// ErrNotFound is returned when an id or code does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a registration code is already taken.
	ErrDuplicateKey = errors.New("duplicate registration code")
	// ErrInvalidRecord is returned when a record fails field validation.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrPersist marks failures of the persistence sink.
	ErrPersist = errors.New("persist collection")
	// ErrReadOnly is returned by Mutate on a store opened with WithReadOnly.
	ErrReadOnly = errors.New("store is read-only")
)
