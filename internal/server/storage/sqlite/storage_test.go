package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cartstore.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testEvent(id, itemID string, qty int) models.SyncEvent {
	return models.SyncEvent{
		ID:        id,
		Type:      models.EventAdd,
		CartID:    "cart-1",
		Item:      models.ItemPayload{ItemID: itemID, Name: itemID, Price: 100, Quantity: qty},
		Timestamp: 1,
		DeviceID:  "device-a",
	}
}

func TestAppendEvents(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	version, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{
		testEvent("e1", "sku-1", 2),
		testEvent("e2", "sku-2", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// The whole accepted batch shares one version.
	events, current, err := s.EventsSince(ctx, "cart-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Version)
	assert.Equal(t, int64(1), events[1].Version)

	version, err = s.AppendEvents(ctx, "cart-1", 1, []models.SyncEvent{
		testEvent("e3", "sku-1", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestAppendEvents_VersionConflict(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)

	// A push against a stale base version must not land anything.
	_, err = s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e2", "sku-2", 1)})
	require.ErrorIs(t, err, storage.ErrVersionConflict)

	events, version, err := s.EventsSince(ctx, "cart-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
}

func TestAppendEvents_ReplayIsIdempotent(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)

	// Re-pushing the same event id must not duplicate it or bump the
	// version.
	version, err := s.AppendEvents(ctx, "cart-1", 1, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	events, _, err := s.EventsSince(ctx, "cart-1", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAppendEvents_PartialReplay(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)

	// A batch mixing a replayed id with a new one lands only the new one.
	version, err := s.AppendEvents(ctx, "cart-1", 1, []models.SyncEvent{
		testEvent("e1", "sku-1", 1),
		testEvent("e2", "sku-2", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	events, _, err := s.EventsSince(ctx, "cart-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, 3, events[0].Item.Quantity)
}

func TestEventsSince_FiltersAndOrders(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)
	_, err = s.AppendEvents(ctx, "cart-1", 1, []models.SyncEvent{testEvent("e2", "sku-2", 1)})
	require.NoError(t, err)
	_, err = s.AppendEvents(ctx, "cart-1", 2, []models.SyncEvent{testEvent("e3", "sku-3", 1)})
	require.NoError(t, err)

	events, version, err := s.EventsSince(ctx, "cart-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e3", events[1].ID)
}

func TestEventsSince_CartsAreIsolated(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.AppendEvents(ctx, "cart-1", 0, []models.SyncEvent{testEvent("e1", "sku-1", 1)})
	require.NoError(t, err)

	other := testEvent("e2", "sku-9", 1)
	other.CartID = "cart-2"
	_, err = s.AppendEvents(ctx, "cart-2", 0, []models.SyncEvent{other})
	require.NoError(t, err)

	events, version, err := s.EventsSince(ctx, "cart-2", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
}

func TestVersion_UnknownCartIsZero(t *testing.T) {
	s := setupTestStorage(t)

	version, err := s.Version(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestSaveDevice_UpsertAndList(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	seen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID:    "device-b",
		DisplayName: "Phone",
		DeviceClass: models.DeviceClassMobile,
		LastSeen:    seen,
		Online:      true,
	}))
	require.NoError(t, s.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID:    "device-a",
		DisplayName: "Laptop",
		DeviceClass: models.DeviceClassDesktop,
		LastSeen:    seen,
	}))

	// A second save for the same device is a refresh, not a duplicate.
	require.NoError(t, s.SaveDevice(ctx, "cart-1", &models.DeviceRecord{
		DeviceID:    "device-b",
		DisplayName: "Phone",
		DeviceClass: models.DeviceClassMobile,
		LastSeen:    seen.Add(time.Hour),
		Online:      false,
	}))

	devices, err := s.ListDevices(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "device-a", devices[0].DeviceID)
	assert.Equal(t, "Laptop", devices[0].DisplayName)

	assert.Equal(t, "device-b", devices[1].DeviceID)
	assert.Equal(t, seen.Add(time.Hour), devices[1].LastSeen)
	assert.False(t, devices[1].Online)

	other, err := s.ListDevices(ctx, "cart-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
