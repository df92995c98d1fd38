package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for store lookups.
var (
	ErrNodeNotFound = errors.New("node not found")
)

// ErrDuplicateKey indicates a node id is already present in the store.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrStoreInconsistent signals that a record the engine just wrote, or that the
// persisted graph references, could not be read back.
var ErrStoreInconsistent = errors.New("route store inconsistent")

// ErrBuildInfoNotFound is returned when a store holds no build record, either
// because the graph was never built or predates the record.
var ErrBuildInfoNotFound = errors.New("graph build info not found")

// ErrMaxDistanceMismatch indicates the persisted graph was pruned with a radius
// other than the one the engine is configured to search with.
var ErrMaxDistanceMismatch = errors.New("graph max distance mismatch")

// ErrOriginCleanup wraps failures to remove a query's origin node.
var ErrOriginCleanup = errors.New("origin node cleanup failed")

// Sentinel errors for validation.
var (
	ErrMissingID          = errors.New("id is required")
	ErrInvalidMaxDistance = errors.New("max distance must be positive")
	ErrInvalidCoordinates = errors.New("coordinates out of range")
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
