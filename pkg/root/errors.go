package root

import "errors"

var (
	// ErrUnknownItem indicates the item id is not part of the current item set.
	ErrUnknownItem = errors.New("unknown root item")

	// ErrMetadata indicates the metadata store failed; in-memory metadata
	// still reflects the change.
	ErrMetadata = errors.New("metadata store failure")

	// ErrRebuildCancelled indicates an asynchronous rebuild was discarded.
	ErrRebuildCancelled = errors.New("rebuild cancelled")
)
