package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cartsync-test.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, dbPath
}

func testEvent(id string, ts int64) *models.SyncEvent {
	return &models.SyncEvent{
		ID:        id,
		Type:      models.EventAdd,
		CartID:    "cart-1",
		Item:      models.ItemPayload{ItemID: "sku-1", Name: "Beans", Price: 100, Quantity: 1},
		Timestamp: ts,
		DeviceID:  "device-a",
	}
}

func TestEventLog_AppendAndPending(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	// Append out of timestamp order; Pending must come back ordered.
	require.NoError(t, s.Append(ctx, testEvent("e2", 20)))
	require.NoError(t, s.Append(ctx, testEvent("e1", 10)))
	require.NoError(t, s.Append(ctx, testEvent("e3", 30)))

	pending, err := s.Pending(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "e1", pending[0].ID)
	assert.Equal(t, "e2", pending[1].ID)
	assert.Equal(t, "e3", pending[2].ID)

	count, err := s.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Other carts are isolated.
	other, err := s.Pending(ctx, "cart-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestEventLog_Acknowledge(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	require.NoError(t, s.Append(ctx, testEvent("e1", 10)))
	require.NoError(t, s.Append(ctx, testEvent("e2", 20)))

	require.NoError(t, s.Acknowledge(ctx, "cart-1", []string{"e1"}))

	pending, err := s.Pending(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e2", pending[0].ID)

	// Acknowledging unknown ids is a no-op.
	require.NoError(t, s.Acknowledge(ctx, "cart-1", []string{"e1", "missing"}))
	count, err := s.PendingCount(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEventLog_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, dbPath := setupTestStorage(t)

	require.NoError(t, s.Append(ctx, testEvent("e1", 10)))
	require.NoError(t, s.SaveClock(ctx, 10))
	require.NoError(t, s.SaveLastSyncVersion(ctx, "cart-1", 4))
	require.NoError(t, s.SaveDeviceID(ctx, "device-a"))
	require.NoError(t, s.Close())

	// Queued events and metadata must survive a process restart.
	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close()
	}()

	pending, err := reopened.Pending(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e1", pending[0].ID)

	counter, err := reopened.GetClock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), counter)

	version, err := reopened.GetLastSyncVersion(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	deviceID, err := reopened.GetDeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "device-a", deviceID)
}

func TestMetadata_Snapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	_, err := s.GetSnapshot(ctx, "cart-1")
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	snapshot := models.NewCartState("cart-1")
	snapshot.ApplyAll([]models.SyncEvent{*testEvent("e1", 10)})
	snapshot.Version = 2
	require.NoError(t, s.SaveSnapshot(ctx, snapshot))

	loaded, err := s.GetSnapshot(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Items, loaded.Items)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Contains(t, loaded.Applied, "e1")
}

func TestDeviceStorage_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	_, err := s.GetDevice(ctx, "cart-1", "device-a")
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)

	recA := &models.DeviceRecord{
		DeviceID:    "device-a",
		DisplayName: "Laptop",
		DeviceClass: models.DeviceClassDesktop,
		LastSeen:    time.Now().UTC().Truncate(time.Second),
		Online:      true,
	}
	recB := &models.DeviceRecord{
		DeviceID:    "device-b",
		DisplayName: "Phone",
		DeviceClass: models.DeviceClassMobile,
		LastSeen:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.SaveDevice(ctx, "cart-1", recA))
	require.NoError(t, s.SaveDevice(ctx, "cart-1", recB))

	got, err := s.GetDevice(ctx, "cart-1", "device-a")
	require.NoError(t, err)
	assert.Equal(t, recA, got)

	devices, err := s.ListDevices(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "device-a", devices[0].DeviceID)
	assert.Equal(t, "device-b", devices[1].DeviceID)
}

func TestDeviceStorage_DeleteInactive(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStorage(t)

	now := time.Now().UTC()
	require.NoError(t, s.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID: "device-old", LastSeen: now.Add(-40 * 24 * time.Hour),
	}))
	require.NoError(t, s.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID: "device-new", LastSeen: now,
	}))

	pruned, err := s.DeleteDevicesInactiveSince(ctx, "cart-1", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"device-old"}, pruned)

	devices, err := s.ListDevices(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "device-new", devices[0].DeviceID)
}
