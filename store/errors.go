package store

import "errors"

var (
	// ErrNotFound is returned when no record exists at a path.
	ErrNotFound = errors.New("eco: record not found")

	// ErrAlreadyExists is returned when a transactional write targets an existing record.
	ErrAlreadyExists = errors.New("eco: record already exists")

	// ErrEmptyIdentity is returned when registering an identity without an ID.
	ErrEmptyIdentity = errors.New("eco: identity has no id")

	// ErrInvalidEntry is returned when an entry is missing its title or content.
	ErrInvalidEntry = errors.New("eco: entry requires title and content")

	// ErrInvalidPath is returned for empty path segments or segments containing '/', '#' or ':'.
	ErrInvalidPath = errors.New("eco: invalid path segment")

	// ErrUnknownSection is returned when a section is not in the configured registry.
	ErrUnknownSection = errors.New("eco: unknown section")
)
