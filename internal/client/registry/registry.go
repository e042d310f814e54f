// Package registry does the device bookkeeping for a cart identity:
// which devices share the cart, when each was last seen, and pruning of
// stale records. Identity verification is delegated to an external
// collaborator; nothing here authenticates anyone.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/models"
)

// DefaultInactivityWindow is how long a device may stay silent before
// Prune drops its record.
const DefaultInactivityWindow = 30 * 24 * time.Hour

// Service is the device registry for one client.
type Service struct {
	store  storage.DeviceStorage
	logger *slog.Logger
	window time.Duration
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithInactivityWindow overrides the pruning window.
func WithInactivityWindow(window time.Duration) Option {
	return func(s *Service) { s.window = window }
}

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a registry over the given device storage.
func NewService(store storage.DeviceStorage, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		window: DefaultInactivityWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register upserts a device record, stamping first contact as a heartbeat.
func (s *Service) Register(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	if rec.DeviceID == "" {
		return errors.New("device id is required")
	}

	rec.LastSeen = s.now()
	rec.Online = true

	if err := s.store.SaveDevice(ctx, cartID, rec); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	s.logger.Debug("device registered",
		"cart_id", cartID,
		"device_id", rec.DeviceID,
		"device_class", rec.DeviceClass)
	return nil
}

// Heartbeat refreshes LastSeen and marks the device online.
// Returns storage.ErrDeviceNotFound for unknown devices.
func (s *Service) Heartbeat(ctx context.Context, cartID, deviceID string) error {
	rec, err := s.store.GetDevice(ctx, cartID, deviceID)
	if err != nil {
		return fmt.Errorf("heartbeat for unknown device: %w", err)
	}

	rec.LastSeen = s.now()
	rec.Online = true

	if err := s.store.SaveDevice(ctx, cartID, rec); err != nil {
		return fmt.Errorf("failed to save heartbeat: %w", err)
	}
	return nil
}

// MarkOffline flips a device's online flag without touching LastSeen.
func (s *Service) MarkOffline(ctx context.Context, cartID, deviceID string) error {
	rec, err := s.store.GetDevice(ctx, cartID, deviceID)
	if err != nil {
		return err
	}

	rec.Online = false
	return s.store.SaveDevice(ctx, cartID, rec)
}

// List returns all device records for a cart.
func (s *Service) List(ctx context.Context, cartID string) ([]models.DeviceRecord, error) {
	devices, err := s.store.ListDevices(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Prune removes devices that have been silent longer than the inactivity
// window and returns how many were dropped.
func (s *Service) Prune(ctx context.Context, cartID string) (int, error) {
	cutoff := s.now().Add(-s.window)

	pruned, err := s.store.DeleteDevicesInactiveSince(ctx, cartID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune devices: %w", err)
	}

	if len(pruned) > 0 {
		s.logger.Info("pruned inactive devices",
			"cart_id", cartID,
			"count", len(pruned),
			"cutoff", cutoff)
	}
	return len(pruned), nil
}
