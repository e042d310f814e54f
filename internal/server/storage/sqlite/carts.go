package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/internal/server/storage"
)

// AppendEvents accepts a batch pushed against baseVersion, atomically: the
// version check, the inserts and the version bump share one transaction.
func (s *Storage) AppendEvents(ctx context.Context, cartID string, baseVersion int64, events []models.SyncEvent) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := versionTx(ctx, tx, cartID)
	if err != nil {
		return 0, err
	}
	if baseVersion != current {
		return 0, storage.ErrVersionConflict
	}

	newVersion := current
	inserted := 0
	for i := range events {
		event := &events[i]

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM cart_events WHERE id = ?`, event.ID).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check event id: %w", err)
		}
		if exists > 0 {
			// Replay of an already-accepted event; idempotent no-op.
			continue
		}

		if inserted == 0 {
			newVersion = current + 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_events (
				id, cart_id, type, item_id, name, price, quantity,
				timestamp, device_id, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			cartID,
			string(event.Type),
			event.Item.ItemID,
			event.Item.Name,
			event.Item.Price,
			event.Item.Quantity,
			event.Timestamp,
			event.DeviceID,
			newVersion,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert event: %w", err)
		}
		inserted++
	}

	if inserted > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_versions (cart_id, version) VALUES (?, ?)
			ON CONFLICT (cart_id) DO UPDATE SET version = excluded.version`,
			cartID, newVersion)
		if err != nil {
			return 0, fmt.Errorf("failed to bump version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return newVersion, nil
}

// EventsSince returns events accepted after sinceVersion in acceptance
// order, plus the current cart version.
func (s *Storage) EventsSince(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, item_id, name, price, quantity, timestamp, device_id, version
		FROM cart_events
		WHERE cart_id = ? AND version > ?
		ORDER BY version, timestamp, id`,
		cartID, sinceVersion)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.SyncEvent
	for rows.Next() {
		event := models.SyncEvent{CartID: cartID}
		var typ string
		err := rows.Scan(
			&event.ID,
			&typ,
			&event.Item.ItemID,
			&event.Item.Name,
			&event.Item.Price,
			&event.Item.Quantity,
			&event.Timestamp,
			&event.DeviceID,
			&event.Version,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = models.EventType(typ)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate events: %w", err)
	}

	version, err := s.Version(ctx, cartID)
	if err != nil {
		return nil, 0, err
	}
	return events, version, nil
}

// Version returns the cart's current version, 0 for unknown carts.
func (s *Storage) Version(ctx context.Context, cartID string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM cart_versions WHERE cart_id = ?`, cartID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query version: %w", err)
	}
	return version, nil
}

func versionTx(ctx context.Context, tx *sql.Tx, cartID string) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx,
		`SELECT version FROM cart_versions WHERE cart_id = ?`, cartID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query version: %w", err)
	}
	return version, nil
}
