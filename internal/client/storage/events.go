package storage

import (
	"context"

	"github.com/mercanto/cartsync/internal/models"
)

// EventLog is the durable, append-only queue of cart events not yet
// acknowledged by the authoritative store. It is the single source of truth
// for pending events; only the sync coordinator mutates it, everything else
// reads snapshots.
type EventLog interface {
	// Append persists an event before returning. The event must survive a
	// process restart.
	Append(ctx context.Context, event *models.SyncEvent) error

	// Pending returns a snapshot of unacknowledged events for one cart,
	// ordered by (timestamp, id). Used on startup to replay state and by
	// the coordinator to build a push batch.
	Pending(ctx context.Context, cartID string) ([]models.SyncEvent, error)

	// Acknowledge removes events after the store accepted them, or after
	// the resolver discarded them.
	Acknowledge(ctx context.Context, cartID string, ids []string) error

	// PendingCount returns the number of queued events for a cart.
	PendingCount(ctx context.Context, cartID string) (int, error)
}
