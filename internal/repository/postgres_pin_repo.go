package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// PostgresPinRepo はPostgreSQLを使用したPINクレデンシャルリポジトリ。
type PostgresPinRepo struct {
	db *sql.DB
}

// NewPostgresPinRepo はPostgresPinRepoを生成する。
func NewPostgresPinRepo(db *sql.DB) *PostgresPinRepo {
	return &PostgresPinRepo{db: db}
}

// FindByUserID は指定ユーザーのPINクレデンシャルを取得する。未設定の場合はnilを返す。
func (r *PostgresPinRepo) FindByUserID(ctx context.Context, userID string) (*model.PinCredential, error) {
	cred := &model.PinCredential{}
	var lastFailedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, pin_hash, failed_count, last_failed_at, created_at, updated_at
		 FROM pin_credentials WHERE user_id = $1`,
		userID,
	).Scan(&cred.UserID, &cred.PinHash, &cred.FailedCount, &lastFailedAt, &cred.CreatedAt, &cred.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pin credential: %w", err)
	}

	if lastFailedAt.Valid {
		cred.LastFailedAt = &lastFailedAt.Time
	}
	return cred, nil
}

// Upsert はPINクレデンシャルを冪等にUPSERTする。
// 既存レコードがある場合はpin_hashを更新し、失敗カウントをリセットする。
func (r *PostgresPinRepo) Upsert(ctx context.Context, cred *model.PinCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pin_credentials (user_id, pin_hash, failed_count, last_failed_at, created_at, updated_at)
		 VALUES ($1, $2, 0, NULL, now(), now())
		 ON CONFLICT (user_id) DO UPDATE SET
			pin_hash = EXCLUDED.pin_hash,
			failed_count = 0,
			last_failed_at = NULL,
			updated_at = now()`,
		cred.UserID, cred.PinHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pin credential: %w", err)
	}
	return nil
}

// RecordFailure は検証失敗を記録する（failed_countをインクリメントし、last_failed_atを更新）。
func (r *PostgresPinRepo) RecordFailure(ctx context.Context, userID string, failedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pin_credentials
		 SET failed_count = failed_count + 1, last_failed_at = $2, updated_at = now()
		 WHERE user_id = $1`,
		userID, failedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record pin failure: %w", err)
	}
	return nil
}

// ResetFailures は失敗カウントをゼロに戻す。
func (r *PostgresPinRepo) ResetFailures(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pin_credentials
		 SET failed_count = 0, last_failed_at = NULL, updated_at = now()
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset pin failures: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーのPINクレデンシャルを削除する。
func (r *PostgresPinRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pin_credentials WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete pin credential: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PinRepository = (*PostgresPinRepo)(nil)
