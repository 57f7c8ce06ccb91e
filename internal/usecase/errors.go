package usecase

import "errors"

var (
	// ErrSourceNotFound is returned when the requested source id does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrEmptyRegistry is returned when no parser is registered for any extension.
	ErrEmptyRegistry = errors.New("no parsers registered")
)
