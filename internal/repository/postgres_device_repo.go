package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// PostgresDeviceRepo はPostgreSQLを使用した端末リポジトリ。
type PostgresDeviceRepo struct {
	db *sql.DB
}

// NewPostgresDeviceRepo はPostgresDeviceRepoを生成する。
func NewPostgresDeviceRepo(db *sql.DB) *PostgresDeviceRepo {
	return &PostgresDeviceRepo{db: db}
}

// FindByID は指定IDの端末を取得する。見つからない場合はnilを返す。
func (r *PostgresDeviceRepo) FindByID(ctx context.Context, id string) (*model.Device, error) {
	device := &model.Device{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, platform, last_seen_at, created_at FROM devices WHERE id = $1`,
		id,
	).Scan(&device.ID, &device.UserID, &device.Name, &device.Platform, &device.LastSeenAt, &device.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device by ID: %w", err)
	}

	return device, nil
}

// FindByUserAndID はユーザーIDと端末IDで端末を検索する。見つからない場合はnilを返す。
func (r *PostgresDeviceRepo) FindByUserAndID(ctx context.Context, userID, deviceID string) (*model.Device, error) {
	device := &model.Device{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, platform, last_seen_at, created_at
		 FROM devices WHERE user_id = $1 AND id = $2`,
		userID, deviceID,
	).Scan(&device.ID, &device.UserID, &device.Name, &device.Platform, &device.LastSeenAt, &device.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device by user and ID: %w", err)
	}

	return device, nil
}

// ListByUserID はユーザーの端末一覧を登録日時昇順で返す。
func (r *PostgresDeviceRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, platform, last_seen_at, created_at
		 FROM devices WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*model.Device
	for rows.Next() {
		device := &model.Device{}
		if err := rows.Scan(&device.ID, &device.UserID, &device.Name, &device.Platform, &device.LastSeenAt, &device.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}

// CountByUserID はユーザーの登録端末数を返す。
func (r *PostgresDeviceRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM devices WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return count, nil
}

// Create は端末を登録する。
func (r *PostgresDeviceRepo) Create(ctx context.Context, device *model.Device) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, user_id, name, platform, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		device.ID, device.UserID, device.Name, device.Platform, device.LastSeenAt, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// UpdateLastSeen は端末の最終利用日時を更新する。
func (r *PostgresDeviceRepo) UpdateLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET last_seen_at = $2 WHERE id = $1`,
		deviceID, seenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update device last seen: %w", err)
	}
	return nil
}

// Delete は指定IDの端末を削除する。
func (r *PostgresDeviceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("device not found: %s", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全端末を削除する。
func (r *PostgresDeviceRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user devices: %w", err)
	}
	return nil
}

// DeleteUnseenBefore は最終利用日時がcutoffより古い端末を削除し、削除件数を返す。
func (r *PostgresDeviceRepo) DeleteUnseenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE last_seen_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale devices: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ DeviceRepository = (*PostgresDeviceRepo)(nil)
