// Package api holds the wire types shared between the sync engine and the
// cart store service.
package api

import "time"

// CartEvent is one cart mutation on the wire.
type CartEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	CartID    string `json:"cartId"`
	ItemID    string `json:"itemId,omitempty"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Timestamp int64  `json:"timestamp"`
	DeviceID  string `json:"deviceId"`
	Version   int64  `json:"version,omitempty"`
}

// PushRequest is the body of POST /cart/sync. BaseVersion is the optimistic
// concurrency token: the store accepts the batch only if it matches the
// store's current version for the cart.
type PushRequest struct {
	CartID      string      `json:"cartId"`
	DeviceID    string      `json:"deviceId"`
	BaseVersion int64       `json:"baseVersion"`
	Events      []CartEvent `json:"events"`
}

// PushResponse is the body of the store's answer to POST /cart/sync.
// Exactly one of Accepted or Conflict is set; a version mismatch always
// yields Conflict with the events the client is missing, never a silent
// overwrite.
type PushResponse struct {
	Accepted      bool        `json:"accepted,omitempty"`
	NewVersion    int64       `json:"newVersion,omitempty"`
	Conflict      bool        `json:"conflict,omitempty"`
	ServerEvents  []CartEvent `json:"serverEvents,omitempty"`
	ServerVersion int64       `json:"serverVersion,omitempty"`
}

// PullResponse is the body of GET /cart/state.
type PullResponse struct {
	Events  []CartEvent `json:"events"`
	Version int64       `json:"version"`
}

// DeviceRequest is the body of POST /cart/sync/device, used for both
// registration and heartbeat.
type DeviceRequest struct {
	CartID string       `json:"cartId"`
	Device DeviceRecord `json:"deviceRecord"`
}

// DeviceRecord mirrors the engine's device bookkeeping on the wire.
type DeviceRecord struct {
	DeviceID    string    `json:"deviceId"`
	DisplayName string    `json:"displayName"`
	DeviceClass string    `json:"deviceClass"`
	LastSeen    time.Time `json:"lastSeen"`
	Online      bool      `json:"online"`
}

// DeviceListResponse is the body of GET /cart/sync/device.
type DeviceListResponse struct {
	Devices []DeviceRecord `json:"devices"`
}

// ErrorResponse is the uniform error body returned by the store service.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
