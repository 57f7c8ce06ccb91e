package ports

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a uniqueness violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLocationNotFound indicates that a source location does not exist.
	ErrLocationNotFound = errors.New("source location not found")

	// ErrUnsupportedSourceKind indicates that no resolver handles the source kind.
	ErrUnsupportedSourceKind = errors.New("unsupported source kind")
)
