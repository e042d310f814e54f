// Package redis implements the cart store's persistence on Redis, the
// backend for multi-node deployments where carts are short-lived.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/internal/server/storage"
)

const (
	eventsKeyPrefix  = "cart-sync:events:"
	versionKeyPrefix = "cart-sync:version:"
	devicesKeyPrefix = "cart-sync:devices:"
)

// Storage is the Redis-backed cart store.
type Storage struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed store. Keys expire after ttl; zero disables
// expiry.
func New(client *redis.Client, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

// AppendEvents accepts a batch pushed against baseVersion. The version
// check and the append run under WATCH so two concurrent pushes against
// the same cart cannot both win.
func (s *Storage) AppendEvents(ctx context.Context, cartID string, baseVersion int64, events []models.SyncEvent) (int64, error) {
	eventsKey := eventsKeyPrefix + cartID
	versionKey := versionKeyPrefix + cartID

	var newVersion int64

	txn := func(tx *redis.Tx) error {
		current, err := getVersion(ctx, tx, versionKey)
		if err != nil {
			return err
		}
		if baseVersion != current {
			return storage.ErrVersionConflict
		}

		history, err := getEvents(ctx, tx, eventsKey)
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(history))
		for i := range history {
			known[history[i].ID] = struct{}{}
		}

		newVersion = current
		appended := history
		for i := range events {
			if _, ok := known[events[i].ID]; ok {
				// Replay of an already-accepted event; idempotent no-op.
				continue
			}
			if newVersion == current {
				newVersion = current + 1
			}
			event := events[i]
			event.Version = newVersion
			appended = append(appended, event)
		}

		if newVersion == current {
			return nil
		}

		data, err := json.Marshal(appended)
		if err != nil {
			return fmt.Errorf("failed to marshal events: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, eventsKey, data, s.ttl)
			pipe.Set(ctx, versionKey, newVersion, s.ttl)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txn, eventsKey, versionKey); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return 0, storage.ErrVersionConflict
		}
		return 0, fmt.Errorf("redis append events: %w", err)
	}
	return newVersion, nil
}

// EventsSince returns events accepted after sinceVersion plus the cart's
// current version.
func (s *Storage) EventsSince(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error) {
	history, err := getEvents(ctx, s.client, eventsKeyPrefix+cartID)
	if err != nil {
		return nil, 0, fmt.Errorf("redis get events: %w", err)
	}
	version, err := getVersion(ctx, s.client, versionKeyPrefix+cartID)
	if err != nil {
		return nil, 0, fmt.Errorf("redis get version: %w", err)
	}

	var events []models.SyncEvent
	for i := range history {
		if history[i].Version > sinceVersion {
			events = append(events, history[i])
		}
	}
	return events, version, nil
}

// Version returns the cart's current version, 0 for unknown carts.
func (s *Storage) Version(ctx context.Context, cartID string) (int64, error) {
	version, err := getVersion(ctx, s.client, versionKeyPrefix+cartID)
	if err != nil {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return version, nil
}

// SaveDevice upserts a device record into the cart's device hash.
func (s *Storage) SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal device record: %w", err)
	}

	key := devicesKeyPrefix + cartID
	if err := s.client.HSet(ctx, key, rec.DeviceID, data).Err(); err != nil {
		return fmt.Errorf("redis save device: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire devices: %w", err)
		}
	}
	return nil
}

// ListDevices returns the devices known for a cart, ordered by device id.
func (s *Storage) ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error) {
	fields, err := s.client.HGetAll(ctx, devicesKeyPrefix+cartID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list devices: %w", err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	devices := make([]models.DeviceRecord, 0, len(ids))
	for _, id := range ids {
		var rec models.DeviceRecord
		if err := json.Unmarshal([]byte(fields[id]), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device record: %w", err)
		}
		devices = append(devices, rec)
	}
	return devices, nil
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getVersion(ctx context.Context, c redisGetter, key string) (int64, error) {
	val, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	version, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed version value: %w", err)
	}
	return version, nil
}

func getEvents(ctx context.Context, c redisGetter, key string) ([]models.SyncEvent, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var events []models.SyncEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	return events, nil
}
