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

const (
	keyLastSyncVersion = "cart-sync:lastSyncVersion:"
	keySnapshot        = "cart-sync:snapshot:"
	keyClock           = "cart-sync:clock"
	keyDeviceID        = "cart-sync:deviceID"
)

// SaveLastSyncVersion records the store version of the last accepted push
// or pull for a cart.
func (s *Storage) SaveLastSyncVersion(ctx context.Context, cartID string, version int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.putUint64(keyLastSyncVersion+cartID, uint64(version))
}

// GetLastSyncVersion returns the stored version, or 0 before the first sync.
func (s *Storage) GetLastSyncVersion(ctx context.Context, cartID string) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}
	v, err := s.getUint64(keyLastSyncVersion + cartID)
	return int64(v), err
}

// SaveClock persists the Lamport clock counter for this device.
func (s *Storage) SaveClock(ctx context.Context, counter int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.putUint64(keyClock, uint64(counter))
}

// GetClock returns the persisted clock counter, or 0 on first run.
func (s *Storage) GetClock(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}
	v, err := s.getUint64(keyClock)
	return int64(v), err
}

// SaveSnapshot persists the acknowledged cart state.
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *models.CartState) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put([]byte(keySnapshot+snapshot.CartID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot returns the persisted cart state for a cart.
func (s *Storage) GetSnapshot(ctx context.Context, cartID string) (*models.CartState, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var snapshot *models.CartState

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get([]byte(keySnapshot + cartID))
		if data == nil {
			return storage.ErrSnapshotNotFound
		}
		snapshot = &models.CartState{}
		if err := json.Unmarshal(data, snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// SaveDeviceID persists this installation's device identity.
func (s *Storage) SaveDeviceID(ctx context.Context, deviceID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put([]byte(keyDeviceID), []byte(deviceID))
	})
	if err != nil {
		return fmt.Errorf("failed to save device id: %w", err)
	}
	return nil
}

// GetDeviceID returns the persisted identity, or "" on first run.
func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}
	var deviceID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketMetadata).Get([]byte(keyDeviceID)); data != nil {
			deviceID = string(data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get device id: %w", err)
	}
	return deviceID, nil
}

func (s *Storage) putUint64(key string, value uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Storage) getUint64(key string) (uint64, error) {
	var value uint64

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get([]byte(key))
		if data == nil {
			// Not set yet, zero value is the documented default.
			return nil
		}
		value = binary.BigEndian.Uint64(data)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}
