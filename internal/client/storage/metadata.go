package storage

import (
	"context"

	"github.com/mercanto/cartsync/internal/models"
)

// MetadataStorage persists small per-cart sync bookkeeping: the last
// version acknowledged by the store, the Lamport clock counter, and the
// acknowledged cart snapshot so a restart does not need the network.
type MetadataStorage interface {
	// SaveLastSyncVersion records the store version of the last accepted
	// push or pull.
	SaveLastSyncVersion(ctx context.Context, cartID string, version int64) error

	// GetLastSyncVersion returns the stored version, or 0 before the first
	// successful sync.
	GetLastSyncVersion(ctx context.Context, cartID string) (int64, error)

	// SaveClock persists the Lamport clock counter for this device.
	SaveClock(ctx context.Context, counter int64) error

	// GetClock returns the persisted clock counter, or 0 on first run.
	GetClock(ctx context.Context) (int64, error)

	// SaveSnapshot persists the acknowledged cart state.
	SaveSnapshot(ctx context.Context, snapshot *models.CartState) error

	// GetSnapshot returns the persisted cart state.
	// Returns ErrSnapshotNotFound before the first save.
	GetSnapshot(ctx context.Context, cartID string) (*models.CartState, error)

	// SaveDeviceID persists this installation's device identity.
	SaveDeviceID(ctx context.Context, deviceID string) error

	// GetDeviceID returns the persisted identity, or "" on first run.
	GetDeviceID(ctx context.Context) (string, error)
}
