package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncEvent_IsNewerThan(t *testing.T) {
	tests := []struct {
		other    *SyncEvent
		self     *SyncEvent
		name     string
		expected bool
	}{
		{
			name:     "self timestamp greater",
			self:     &SyncEvent{Timestamp: 101, DeviceID: "device-a"},
			other:    &SyncEvent{Timestamp: 100, DeviceID: "device-a"},
			expected: true,
		},
		{
			name:     "self timestamp smaller",
			self:     &SyncEvent{Timestamp: 90, DeviceID: "device-a"},
			other:    &SyncEvent{Timestamp: 100, DeviceID: "device-a"},
			expected: false,
		},
		{
			name:     "timestamps equal, self device id greater lex",
			self:     &SyncEvent{Timestamp: 100, DeviceID: "device-b"},
			other:    &SyncEvent{Timestamp: 100, DeviceID: "device-a"},
			expected: true,
		},
		{
			name:     "timestamps equal, self device id lower lex",
			self:     &SyncEvent{Timestamp: 100, DeviceID: "device-a"},
			other:    &SyncEvent{Timestamp: 100, DeviceID: "device-b"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.self.IsNewerThan(tt.other)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSyncEvent_Validate(t *testing.T) {
	valid := SyncEvent{
		ID:        "evt-1",
		Type:      EventAdd,
		CartID:    "cart-1",
		Item:      ItemPayload{ItemID: "sku-1", Name: "Coffee", Price: 500, Quantity: 1},
		Timestamp: 1,
		DeviceID:  "device-a",
	}

	tests := []struct {
		name    string
		mutate  func(e *SyncEvent)
		wantErr error
	}{
		{
			name:    "valid add event",
			mutate:  func(e *SyncEvent) {},
			wantErr: nil,
		},
		{
			name:    "missing id",
			mutate:  func(e *SyncEvent) { e.ID = "" },
			wantErr: ErrEventMissingID,
		},
		{
			name:    "missing cart id",
			mutate:  func(e *SyncEvent) { e.CartID = "" },
			wantErr: ErrEventMissingCartID,
		},
		{
			name:    "missing device id",
			mutate:  func(e *SyncEvent) { e.DeviceID = "" },
			wantErr: ErrEventMissingDevice,
		},
		{
			name:    "missing item id on add",
			mutate:  func(e *SyncEvent) { e.Item.ItemID = "" },
			wantErr: ErrEventMissingItem,
		},
		{
			name:    "negative quantity",
			mutate:  func(e *SyncEvent) { e.Item.Quantity = -1 },
			wantErr: ErrEventBadQuantity,
		},
		{
			name:    "unknown type",
			mutate:  func(e *SyncEvent) { e.Type = "replace" },
			wantErr: ErrEventUnknownType,
		},
		{
			name: "clear without item payload",
			mutate: func(e *SyncEvent) {
				e.Type = EventClear
				e.Item = ItemPayload{}
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid
			tt.mutate(&event)

			err := event.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSyncEvent_Clone(t *testing.T) {
	original := &SyncEvent{
		ID:        "evt-1",
		Type:      EventUpdate,
		CartID:    "cart-1",
		Item:      ItemPayload{ItemID: "sku-1", Quantity: 3},
		Timestamp: 42,
		DeviceID:  "device-a",
	}

	clone := original.Clone()
	assert.Equal(t, original, clone)

	clone.Item.Quantity = 9
	assert.Equal(t, 3, original.Item.Quantity)
}
