package store

import "errors"

var (
	// ErrNoRecords is returned when collection creation is attempted with an
	// empty record set.
	ErrNoRecords = errors.New("no records provided to create collection")

	// ErrNoContent is returned when initialization finds nothing to index,
	// neither explicit records nor documents in the configured directory.
	// Distinct from provider failures.
	ErrNoContent = errors.New("no content available to create collection")

	// ErrCollectionNotFound is returned by backends when the named collection
	// does not exist in the index service. Expected on first run.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrBatchSizeExceeded is returned when an embedding batch cannot be
	// split to fit the provider's limit.
	ErrBatchSizeExceeded = errors.New("embedding batch size exceeded")
)
