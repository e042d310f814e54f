// Package memory implements the client storage interfaces in process
// memory. It backs the engine's degraded "sync unavailable" mode when the
// durable store cannot be opened, and the unit tests. Nothing here survives
// a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/models"
)

// Storage is an in-memory implementation of EventLog, DeviceStorage and
// MetadataStorage.
type Storage struct {
	mu        sync.RWMutex
	events    map[string][]models.SyncEvent              // cartID -> pending, kept ordered
	devices   map[string]map[string]models.DeviceRecord  // cartID -> deviceID -> record
	versions  map[string]int64                           // cartID -> last sync version
	snapshots map[string]*models.CartState               // cartID -> acknowledged state
	clock     int64
	deviceID  string
}

// New creates empty in-memory storage.
func New() *Storage {
	return &Storage{
		events:    make(map[string][]models.SyncEvent),
		devices:   make(map[string]map[string]models.DeviceRecord),
		versions:  make(map[string]int64),
		snapshots: make(map[string]*models.CartState),
	}
}

// Append queues an event, keeping the pending list in (timestamp, id) order.
func (s *Storage) Append(ctx context.Context, event *models.SyncEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := append(s.events[event.CartID], *event.Clone())
	sort.Slice(queue, func(i, j int) bool {
		if queue[i].Timestamp != queue[j].Timestamp {
			return queue[i].Timestamp < queue[j].Timestamp
		}
		return queue[i].ID < queue[j].ID
	})
	s.events[event.CartID] = queue
	return nil
}

// Pending returns a snapshot of the queued events for a cart.
func (s *Storage) Pending(ctx context.Context, cartID string) ([]models.SyncEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneEvents(s.events[cartID]), nil
}

// Acknowledge drops the given event ids from the pending queue.
func (s *Storage) Acknowledge(ctx context.Context, cartID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		acked[id] = struct{}{}
	}

	kept := s.events[cartID][:0]
	for _, event := range s.events[cartID] {
		if _, ok := acked[event.ID]; !ok {
			kept = append(kept, event)
		}
	}
	s.events[cartID] = kept
	return nil
}

// PendingCount returns the number of queued events for a cart.
func (s *Storage) PendingCount(ctx context.Context, cartID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events[cartID]), nil
}

// SaveDevice creates or updates a device record.
func (s *Storage) SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.devices[cartID] == nil {
		s.devices[cartID] = make(map[string]models.DeviceRecord)
	}
	s.devices[cartID][rec.DeviceID] = *rec
	return nil
}

// GetDevice retrieves a device record.
func (s *Storage) GetDevice(ctx context.Context, cartID, deviceID string) (*models.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.devices[cartID][deviceID]
	if !ok {
		return nil, storage.ErrDeviceNotFound
	}
	return &rec, nil
}

// ListDevices returns all device records for a cart, ordered by device id.
func (s *Storage) ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]models.DeviceRecord, 0, len(s.devices[cartID]))
	for _, rec := range s.devices[cartID] {
		devices = append(devices, rec)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })
	return devices, nil
}

// DeleteDevicesInactiveSince prunes devices last seen before cutoff.
func (s *Storage) DeleteDevicesInactiveSince(ctx context.Context, cartID string, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []string
	for id, rec := range s.devices[cartID] {
		if rec.LastSeen.Before(cutoff) {
			delete(s.devices[cartID], id)
			pruned = append(pruned, id)
		}
	}
	sort.Strings(pruned)
	return pruned, nil
}

// SaveLastSyncVersion records the last acknowledged store version.
func (s *Storage) SaveLastSyncVersion(ctx context.Context, cartID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions[cartID] = version
	return nil
}

// GetLastSyncVersion returns the stored version, or 0 before the first sync.
func (s *Storage) GetLastSyncVersion(ctx context.Context, cartID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.versions[cartID], nil
}

// SaveClock persists the Lamport clock counter.
func (s *Storage) SaveClock(ctx context.Context, counter int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock = counter
	return nil
}

// GetClock returns the persisted clock counter.
func (s *Storage) GetClock(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clock, nil
}

// SaveDeviceID persists this installation's device identity.
func (s *Storage) SaveDeviceID(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deviceID = deviceID
	return nil
}

// GetDeviceID returns the persisted identity, or "" on first run.
func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.deviceID, nil
}

// SaveSnapshot persists the acknowledged cart state.
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *models.CartState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.CartID] = snapshot.Clone()
	return nil
}

// GetSnapshot returns the persisted cart state.
func (s *Storage) GetSnapshot(ctx context.Context, cartID string) (*models.CartState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[cartID]
	if !ok {
		return nil, storage.ErrSnapshotNotFound
	}
	return snapshot.Clone(), nil
}
