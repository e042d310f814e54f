// Package storage defines the persistence interface of the cart store
// service: the authoritative event history, the per-cart version counter,
// and the shared device directory.
package storage

import (
	"context"

	"github.com/mercanto/cartsync/internal/models"
)

// CartStorage is the authoritative store behind the sync endpoints.
type CartStorage interface {
	// AppendEvents accepts a batch pushed against baseVersion. If
	// baseVersion does not match the cart's current version it returns
	// ErrVersionConflict and changes nothing; never a silent overwrite.
	// Events with known ids are skipped so a replayed push stays a no-op;
	// the version advances once per batch that adds at least one new
	// event. Returns the cart's version after the append.
	AppendEvents(ctx context.Context, cartID string, baseVersion int64, events []models.SyncEvent) (int64, error)

	// EventsSince returns the events accepted after sinceVersion in
	// acceptance order, plus the cart's current version.
	EventsSince(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error)

	// Version returns the cart's current version, 0 for unknown carts.
	Version(ctx context.Context, cartID string) (int64, error)

	// SaveDevice upserts a device record for a cart (registration and
	// heartbeat share this path).
	SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error

	// ListDevices returns the devices known for a cart, ordered by id.
	ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error)
}
