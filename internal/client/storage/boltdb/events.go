package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/models"
)

// eventKey builds the bucket key for a pending event. The big-endian
// timestamp prefix makes BoltDB's natural key order the push order, so
// Pending never has to sort.
func eventKey(e *models.SyncEvent) []byte {
	key := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(key, uint64(e.Timestamp))
	return append(key, e.ID...)
}

// Append persists a pending event. The enclosing bbolt transaction commits
// before Append returns, which is what makes the mutation durable.
func (s *Storage) Append(ctx context.Context, event *models.SyncEvent) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		cart, err := tx.Bucket(bucketEvents).CreateBucketIfNotExists([]byte(event.CartID))
		if err != nil {
			return fmt.Errorf("failed to create cart bucket: %w", err)
		}
		if err := cart.Put(eventKey(event), data); err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append transaction failed: %w", err)
	}

	return nil
}

// Pending returns the queued events for a cart in (timestamp, id) order.
func (s *Storage) Pending(ctx context.Context, cartID string) ([]models.SyncEvent, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var events []models.SyncEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketEvents).Bucket([]byte(cartID))
		if cart == nil {
			return nil
		}
		return cart.ForEach(func(k, v []byte) error {
			var event models.SyncEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}
			events = append(events, event)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}

	return events, nil
}

// Acknowledge removes events from the pending queue once the store accepted
// them or the resolver discarded them.
func (s *Storage) Acknowledge(ctx context.Context, cartID string, ids []string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if len(ids) == 0 {
		return nil
	}

	acked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		acked[id] = struct{}{}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketEvents).Bucket([]byte(cartID))
		if cart == nil {
			return nil
		}

		// Collect keys first; deleting while iterating a ForEach is not
		// supported by bbolt.
		var stale [][]byte
		err := cart.ForEach(func(k, v []byte) error {
			var event models.SyncEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("failed to unmarshal event: %w", err)
			}
			if _, ok := acked[event.ID]; ok {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range stale {
			if err := cart.Delete(key); err != nil {
				return fmt.Errorf("failed to delete event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("acknowledge transaction failed: %w", err)
	}

	return nil
}

// PendingCount returns the number of queued events for a cart.
func (s *Storage) PendingCount(ctx context.Context, cartID string) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketEvents).Bucket([]byte(cartID))
		if cart == nil {
			return nil
		}
		count = cart.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}

	return count, nil
}
