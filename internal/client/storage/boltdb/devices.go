package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/models"
)

// SaveDevice creates or updates a device record keyed by device id.
func (s *Storage) SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal device record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		cart, err := tx.Bucket(bucketDevices).CreateBucketIfNotExists([]byte(cartID))
		if err != nil {
			return fmt.Errorf("failed to create cart bucket: %w", err)
		}
		if err := cart.Put([]byte(rec.DeviceID), data); err != nil {
			return fmt.Errorf("failed to save device: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save device transaction failed: %w", err)
	}

	return nil
}

// GetDevice retrieves a device record by id.
func (s *Storage) GetDevice(ctx context.Context, cartID, deviceID string) (*models.DeviceRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var rec *models.DeviceRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketDevices).Bucket([]byte(cartID))
		if cart == nil {
			return storage.ErrDeviceNotFound
		}
		data := cart.Get([]byte(deviceID))
		if data == nil {
			return storage.ErrDeviceNotFound
		}
		rec = &models.DeviceRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal device record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListDevices returns all device records for a cart, ordered by device id.
func (s *Storage) ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var devices []models.DeviceRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketDevices).Bucket([]byte(cartID))
		if cart == nil {
			return nil
		}
		return cart.ForEach(func(k, v []byte) error {
			var rec models.DeviceRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal device record: %w", err)
			}
			devices = append(devices, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return devices, nil
}

// DeleteDevicesInactiveSince prunes devices whose LastSeen is before cutoff.
func (s *Storage) DeleteDevicesInactiveSince(ctx context.Context, cartID string, cutoff time.Time) ([]string, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var pruned []string

	err := s.db.Update(func(tx *bbolt.Tx) error {
		cart := tx.Bucket(bucketDevices).Bucket([]byte(cartID))
		if cart == nil {
			return nil
		}

		var stale [][]byte
		err := cart.ForEach(func(k, v []byte) error {
			var rec models.DeviceRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal device record: %w", err)
			}
			if rec.LastSeen.Before(cutoff) {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
				pruned = append(pruned, rec.DeviceID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range stale {
			if err := cart.Delete(key); err != nil {
				return fmt.Errorf("failed to delete device: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune transaction failed: %w", err)
	}

	return pruned, nil
}
