package ranking

import "errors"

var (
	// ErrPersistence wraps store failures. The in-memory record is still
	// updated when it is returned.
	ErrPersistence = errors.New("frecency persistence failed")

	// ErrInvalidKey indicates an empty item type or id.
	ErrInvalidKey = errors.New("item type and id are required")
)
