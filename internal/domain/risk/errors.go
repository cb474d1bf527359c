package risk

import "errors"

var (
	// ErrStoreUnavailable tags operations attempted while the persistence
	// layer never came up; callers degrade to stateless mode instead of
	// crashing.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound marks a missing row, distinct from the store being down.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity marks a write that would break a foreign-key invariant;
	// the enclosing transaction has been rolled back.
	ErrIntegrity = errors.New("integrity violation")
)
