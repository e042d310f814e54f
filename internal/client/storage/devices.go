package storage

import (
	"context"
	"time"

	"github.com/mercanto/cartsync/internal/models"
)

// DeviceStorage persists the device records known to this client for a cart
// identity. Identity verification is not done here; the registry only keeps
// bookkeeping for display, conflict attribution and pruning.
type DeviceStorage interface {
	// SaveDevice creates or updates a device record keyed by device id.
	SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error

	// GetDevice retrieves a device record.
	// Returns ErrDeviceNotFound if the device is unknown.
	GetDevice(ctx context.Context, cartID, deviceID string) (*models.DeviceRecord, error)

	// ListDevices returns all device records for a cart, ordered by device id.
	ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error)

	// DeleteDevicesInactiveSince removes devices whose LastSeen is before
	// the cutoff. Returns the ids that were pruned.
	DeleteDevicesInactiveSince(ctx context.Context, cartID string, cutoff time.Time) ([]string, error)
}
