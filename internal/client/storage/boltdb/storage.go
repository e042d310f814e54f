// Package boltdb implements the client storage interfaces on top of a
// single BoltDB file, giving the sync engine offline-first durability.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names, mirroring the engine's persistence keys
	bucketEvents   = []byte("cart-sync:events")
	bucketDevices  = []byte("cart-sync:devices")
	bucketMetadata = []byte("cart-sync:meta")
)

// Storage is the BoltDB-backed client storage. One file holds the pending
// event log, the device records and the sync metadata.
type Storage struct {
	db *bbolt.DB
}

// New opens (or creates) the BoltDB file at dbPath.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEvents, bucketDevices, bucketMetadata} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}
