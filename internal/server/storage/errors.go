package storage

import "errors"

// ErrVersionConflict indicates that a push declared a stale base version;
// the caller must resolve against the returned server events.
var ErrVersionConflict = errors.New("cart version conflict")
