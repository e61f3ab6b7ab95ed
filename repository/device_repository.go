package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dpstore/model"
)

// DeviceRepository defines the interface for device records.
type DeviceRepository interface {
	// Upsert inserts a device row, or refreshes last_login and the client
	// metadata when the (user, uuid) pair is already known.
	Upsert(ctx context.Context, device *model.Device) error
	ListByUser(ctx context.Context, userID int64) ([]*model.Device, error)
}

// mysqlDeviceRepository implements DeviceRepository for MySQL.
type mysqlDeviceRepository struct {
	db *sql.DB
}

// NewMySQLDeviceRepository creates a new mysqlDeviceRepository.
func NewMySQLDeviceRepository(db *sql.DB) DeviceRepository {
	return &mysqlDeviceRepository{db: db}
}

// Upsert inserts or refreshes a device record.
func (r *mysqlDeviceRepository) Upsert(ctx context.Context, device *model.Device) error {
	query := `INSERT INTO devices (user_id, device_uuid, last_login, device_type, device_os, device_model, app_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE last_login = VALUES(last_login), device_type = VALUES(device_type),
			device_os = VALUES(device_os), device_model = VALUES(device_model), app_version = VALUES(app_version)`

	lastLogin := device.LastLogin
	if !lastLogin.Valid {
		lastLogin = sql.NullTime{Time: time.Now(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		device.UserID, device.DeviceUUID, lastLogin,
		device.DeviceType, device.DeviceOS, device.DeviceModel, device.AppVersion)
	if err != nil {
		return fmt.Errorf("failed to upsert device for user %d: %w", device.UserID, err)
	}
	return nil
}

// ListByUser returns all device records of a user, most recent login first.
func (r *mysqlDeviceRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Device, error) {
	query := `SELECT id, user_id, device_uuid, last_login, device_type, device_os, device_model, app_version, created_at
		FROM devices WHERE user_id = ? ORDER BY last_login DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices for user %d: %w", userID, err)
	}
	defer rows.Close()

	var devices []*model.Device
	for rows.Next() {
		d := &model.Device{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceUUID, &d.LastLogin,
			&d.DeviceType, &d.DeviceOS, &d.DeviceModel, &d.AppVersion, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
