package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercanto/cartsync/internal/models"
)

func TestLocalBus_PublishExcludesPublisher(t *testing.T) {
	bus := NewLocalBus()

	a := bus.Join("cart-1")
	b := bus.Join("cart-1")
	defer a.Close()
	defer b.Close()

	batch := []models.SyncEvent{{ID: "e1", Type: models.EventClear, CartID: "cart-1", DeviceID: "device-a"}}
	a.Publish(batch)

	select {
	case got := <-b.Events():
		require.Len(t, got, 1)
		assert.Equal(t, "e1", got[0].ID)
	case <-time.After(time.Second):
		t.Fatal("sibling did not receive the batch")
	}

	// The publisher never hears its own batch.
	select {
	case <-a.Events():
		t.Fatal("publisher received its own batch")
	default:
	}
}

func TestLocalBus_CartsAreIsolated(t *testing.T) {
	bus := NewLocalBus()

	a := bus.Join("cart-1")
	other := bus.Join("cart-2")
	defer a.Close()
	defer other.Close()

	a.Publish([]models.SyncEvent{{ID: "e1", Type: models.EventClear, CartID: "cart-1", DeviceID: "device-a"}})

	select {
	case <-other.Events():
		t.Fatal("batch crossed cart identities")
	default:
	}
}

func TestLocalBus_CloseStopsDelivery(t *testing.T) {
	bus := NewLocalBus()

	a := bus.Join("cart-1")
	b := bus.Join("cart-1")
	b.Close()

	// Publishing after a sibling left must not panic or block.
	a.Publish([]models.SyncEvent{{ID: "e1", Type: models.EventClear, CartID: "cart-1", DeviceID: "device-a"}})

	_, ok := <-b.Events()
	assert.False(t, ok)
}

func TestMonitor_Changes(t *testing.T) {
	m := NewMonitor(true)
	assert.True(t, m.Online())

	changes := m.Changes()

	m.Set(false)
	assert.False(t, m.Online())

	select {
	case online := <-changes:
		assert.False(t, online)
	case <-time.After(time.Second):
		t.Fatal("no connectivity change delivered")
	}

	// Setting the same state again does not emit a duplicate change.
	m.Set(false)
	select {
	case <-changes:
		t.Fatal("duplicate change delivered")
	default:
	}
}
