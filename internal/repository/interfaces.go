// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するdevices、sessions、pin_credentialsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// DeviceRepository は端末バインディングデータの永続化インターフェース。
type DeviceRepository interface {
	// FindByID は指定IDの端末を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Device, error)

	// FindByUserAndID はユーザーIDと端末IDで端末を検索する。見つからない場合はnilを返す。
	FindByUserAndID(ctx context.Context, userID, deviceID string) (*model.Device, error)

	// ListByUserID はユーザーの端末一覧を登録日時昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Device, error)

	// CountByUserID はユーザーの登録端末数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Create は端末を登録する。
	Create(ctx context.Context, device *model.Device) error

	// UpdateLastSeen は端末の最終利用日時を更新する。
	UpdateLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error

	// Delete は指定IDの端末を削除する。
	Delete(ctx context.Context, id string) error

	// DeleteByUserID はユーザーの全端末を削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteUnseenBefore は最終利用日時がcutoffより古い端末を削除し、削除件数を返す。
	DeleteUnseenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PinRepository はPINクレデンシャルの永続化インターフェース。
type PinRepository interface {
	// FindByUserID は指定ユーザーのPINクレデンシャルを取得する。未設定の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.PinCredential, error)

	// Upsert はPINクレデンシャルを冪等にUPSERTする。
	// 既存レコードがある場合はpin_hashを更新し、失敗カウントをリセットする。
	Upsert(ctx context.Context, cred *model.PinCredential) error

	// RecordFailure は検証失敗を記録する（failed_countをインクリメントし、last_failed_atを更新）。
	RecordFailure(ctx context.Context, userID string, failedAt time.Time) error

	// ResetFailures は失敗カウントをゼロに戻す。
	ResetFailures(ctx context.Context, userID string) error

	// DeleteByUserID は指定ユーザーのPINクレデンシャルを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AnnouncementRepository はお知らせ記事の永続化インターフェース。
type AnnouncementRepository interface {
	// FindByGUID はguid_or_idでお知らせを検索する。見つからない場合はnilを返す。
	FindByGUID(ctx context.Context, guid string) (*model.Announcement, error)

	// FindByContentHash はcontent_hashでお知らせを検索する。
	// guidを持たないフィードの同一性判定に使う。見つからない場合はnilを返す。
	FindByContentHash(ctx context.Context, contentHash string) (*model.Announcement, error)

	// Create は新規お知らせを作成する。
	Create(ctx context.Context, a *model.Announcement) error

	// Update は既存お知らせを上書き更新する。履歴は保持しない。
	Update(ctx context.Context, a *model.Announcement) error

	// ListRecent はお知らせをpublished_at降順（NULLは末尾）で最大limit件返す。
	ListRecent(ctx context.Context, limit int) ([]*model.Announcement, error)

	// DeleteOlderThan はfetched_atがcutoffより古いお知らせを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
