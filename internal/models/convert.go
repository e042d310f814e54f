package models

import "github.com/mercanto/cartsync/pkg/api"

// EventToWire converts a SyncEvent to its wire representation.
func EventToWire(e *SyncEvent) api.CartEvent {
	return api.CartEvent{
		ID:        e.ID,
		Type:      string(e.Type),
		CartID:    e.CartID,
		ItemID:    e.Item.ItemID,
		Name:      e.Item.Name,
		Price:     e.Item.Price,
		Quantity:  e.Item.Quantity,
		Timestamp: e.Timestamp,
		DeviceID:  e.DeviceID,
		Version:   e.Version,
	}
}

// EventFromWire converts a wire event back to a SyncEvent.
func EventFromWire(w api.CartEvent) SyncEvent {
	return SyncEvent{
		ID:     w.ID,
		Type:   EventType(w.Type),
		CartID: w.CartID,
		Item: ItemPayload{
			ItemID:   w.ItemID,
			Name:     w.Name,
			Price:    w.Price,
			Quantity: w.Quantity,
		},
		Timestamp: w.Timestamp,
		DeviceID:  w.DeviceID,
		Version:   w.Version,
	}
}

// EventsToWire converts a batch of events for the wire.
func EventsToWire(events []SyncEvent) []api.CartEvent {
	out := make([]api.CartEvent, 0, len(events))
	for i := range events {
		out = append(out, EventToWire(&events[i]))
	}
	return out
}

// EventsFromWire converts a wire batch back to events.
func EventsFromWire(wire []api.CartEvent) []SyncEvent {
	out := make([]SyncEvent, 0, len(wire))
	for _, w := range wire {
		out = append(out, EventFromWire(w))
	}
	return out
}

// DeviceToWire converts a DeviceRecord to its wire representation.
func DeviceToWire(d *DeviceRecord) api.DeviceRecord {
	return api.DeviceRecord{
		DeviceID:    d.DeviceID,
		DisplayName: d.DisplayName,
		DeviceClass: d.DeviceClass,
		LastSeen:    d.LastSeen,
		Online:      d.Online,
	}
}

// DeviceFromWire converts a wire device record back to the model.
func DeviceFromWire(w api.DeviceRecord) DeviceRecord {
	return DeviceRecord{
		DeviceID:    w.DeviceID,
		DisplayName: w.DisplayName,
		DeviceClass: w.DeviceClass,
		LastSeen:    w.LastSeen,
		Online:      w.Online,
	}
}
