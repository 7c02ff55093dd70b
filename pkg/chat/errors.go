package chat

import "errors"

// Error taxonomy for dispatch and store operations. The first three are
// client-caused and are reported to the originating connection only;
// ErrStoreUnavailable means the persistence call itself failed.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("not authorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
)
