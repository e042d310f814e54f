package storage

import "errors"

// Common client storage errors
var (
	// ErrEventNotFound indicates that a queued event was not found
	ErrEventNotFound = errors.New("event not found")

	// ErrDeviceNotFound indicates that a device record was not found
	ErrDeviceNotFound = errors.New("device not found")

	// ErrSnapshotNotFound indicates that no cart snapshot has been saved yet
	ErrSnapshotNotFound = errors.New("cart snapshot not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
