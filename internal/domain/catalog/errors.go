package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrInvalidCatalog    = errors.New("invalid catalog")
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)
