package models

import "errors"

// EventType identifies the kind of cart mutation carried by a SyncEvent.
type EventType string

const (
	EventAdd    EventType = "add"
	EventRemove EventType = "remove"
	EventUpdate EventType = "update"
	EventClear  EventType = "clear"
	EventMerge  EventType = "merge"
)

// Validation errors for malformed events. Events failing validation are
// dropped locally and logged, never retried.
var (
	ErrEventMissingID     = errors.New("event is missing id")
	ErrEventMissingCartID = errors.New("event is missing cart id")
	ErrEventMissingDevice = errors.New("event is missing device id")
	ErrEventMissingItem   = errors.New("event is missing item key")
	ErrEventUnknownType   = errors.New("unknown event type")
	ErrEventBadQuantity   = errors.New("event quantity is negative")
)

// ItemPayload is the cart item data carried by an event.
// Price is in cents. Empty for clear events.
type ItemPayload struct {
	ItemID   string `json:"item_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Price    int64  `json:"price,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// SyncEvent is a single cart mutation. Immutable once created and uniquely
// identified by ID; applying an event with a known ID is a no-op.
type SyncEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CartID    string      `json:"cart_id"`
	Item      ItemPayload `json:"item"`
	Timestamp int64       `json:"timestamp"` // Lamport timestamp, per-device causal order
	DeviceID  string      `json:"device_id"`
	Version   int64       `json:"version"` // cart version at which the store accepted the event
}

// ItemKey returns the key the conflict resolver groups events by.
// Clear events target the whole cart and have no item key.
func (e *SyncEvent) ItemKey() string {
	return e.Item.ItemID
}

// IsNewerThan reports whether e wins a last-write-wins comparison against
// other. Greater timestamp wins; equal timestamps are broken
// deterministically by DeviceID so every replica picks the same winner.
func (e *SyncEvent) IsNewerThan(other *SyncEvent) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp > other.Timestamp
	}
	return e.DeviceID > other.DeviceID
}

// Validate checks the event is well formed enough to persist and push.
func (e *SyncEvent) Validate() error {
	if e.ID == "" {
		return ErrEventMissingID
	}
	if e.CartID == "" {
		return ErrEventMissingCartID
	}
	if e.DeviceID == "" {
		return ErrEventMissingDevice
	}
	switch e.Type {
	case EventAdd, EventRemove, EventUpdate, EventMerge:
		if e.Item.ItemID == "" {
			return ErrEventMissingItem
		}
		if e.Item.Quantity < 0 {
			return ErrEventBadQuantity
		}
	case EventClear:
		// Clear targets the whole cart; no item payload required.
	default:
		return ErrEventUnknownType
	}
	return nil
}

// Clone creates a copy of the event.
func (e *SyncEvent) Clone() *SyncEvent {
	clone := *e
	return &clone
}

// CloneEvents deep-copies a slice of events.
func CloneEvents(events []SyncEvent) []SyncEvent {
	out := make([]SyncEvent, len(events))
	copy(out, events)
	return out
}
