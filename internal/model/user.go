// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// モバイルクライアントにはセッションIDをsubjectに持つJWTとして払い出される。
type Session struct {
	ID        string
	UserID    string
	DeviceID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Device はユーザーに紐付けられた端末を表す。
// 端末バインディングにより、登録済み端末以外からの再生要求を拒否する。
type Device struct {
	ID         string
	UserID     string
	Name       string
	Platform   string // "ios", "android" 等
	LastSeenAt time.Time
	CreatedAt  time.Time
}

// PinCredential はユーザーのローカルPINコード（ハッシュ化済み）を表す。
// 連続失敗回数と直近失敗時刻により一時ロックを判定する。
type PinCredential struct {
	UserID       string
	PinHash      string
	FailedCount  int
	LastFailedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Announcement はプラットフォームからのお知らせ記事を表す。
// アカデミーサイトのフィードからワーカーが定期取得する。
type Announcement struct {
	ID          string
	GuidOrID    string
	Title       string
	Link        string
	Body        string // サニタイズ済みHTML
	ContentHash string
	PublishedAt *time.Time
	FetchedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
