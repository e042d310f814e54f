package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mercanto/cartsync/internal/models"
)

// SaveDevice upserts a device record for a cart.
func (s *Storage) SaveDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_devices (cart_id, device_id, display_name, device_class, last_seen, online)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cart_id, device_id) DO UPDATE SET
			display_name = excluded.display_name,
			device_class = excluded.device_class,
			last_seen = excluded.last_seen,
			online = excluded.online`,
		cartID,
		rec.DeviceID,
		rec.DisplayName,
		rec.DeviceClass,
		rec.LastSeen.Unix(),
		boolToInt(rec.Online),
	)
	if err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}
	return nil
}

// ListDevices returns the devices known for a cart, ordered by device id.
func (s *Storage) ListDevices(ctx context.Context, cartID string) ([]models.DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, display_name, device_class, last_seen, online
		FROM cart_devices
		WHERE cart_id = ?
		ORDER BY device_id`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.DeviceRecord
	for rows.Next() {
		var (
			rec      models.DeviceRecord
			lastSeen int64
			online   int
		)
		if err := rows.Scan(&rec.DeviceID, &rec.DisplayName, &rec.DeviceClass, &lastSeen, &online); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		rec.LastSeen = time.Unix(lastSeen, 0).UTC()
		rec.Online = online != 0
		devices = append(devices, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
