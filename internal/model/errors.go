// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, media, security, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeVideoNotFound        = "VIDEO_NOT_FOUND"
	ErrCodeAccessExpired        = "ACCESS_EXPIRED"
	ErrCodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamUnauthorized = "UPSTREAM_UNAUTHORIZED"
	ErrCodeDRMUnavailable       = "DRM_UNAVAILABLE"
	ErrCodeDeviceLimit          = "DEVICE_LIMIT"
	ErrCodeDeviceNotFound       = "DEVICE_NOT_FOUND"
	ErrCodeDeviceNotBound       = "DEVICE_NOT_BOUND"
	ErrCodeInvalidPin           = "INVALID_PIN"
	ErrCodePinLocked            = "PIN_LOCKED"
	ErrCodePinNotSet            = "PIN_NOT_SET"
	ErrCodeInvalidURL           = "INVALID_URL"
	ErrCodeSSRFBlocked          = "SSRF_BLOCKED"
	ErrCodeCoverFetchFailed     = "COVER_FETCH_FAILED"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewVideoNotFoundError は指定ビデオが受講権に含まれない場合のエラーを生成する。
func NewVideoNotFoundError(videoID int64) *APIError {
	return &APIError{
		Code:     ErrCodeVideoNotFound,
		Message:  fmt.Sprintf("指定されたビデオは視聴できません: %d", videoID),
		Category: "media",
		Action:   "メディア一覧を更新してから再度お試しください。",
	}
}

// NewAccessExpiredError は受講権の有効期限切れエラーを生成する。
func NewAccessExpiredError(videoID int64) *APIError {
	return &APIError{
		Code:     ErrCodeAccessExpired,
		Message:  fmt.Sprintf("このビデオの視聴期限が切れています: %d", videoID),
		Category: "media",
		Action:   "受講権の更新についてはサポートへお問い合わせください。",
	}
}

// NewUpstreamUnavailableError は受講権サービスへの接続失敗エラーを生成する。
func NewUpstreamUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("メディア情報の取得に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUpstreamUnauthorizedError は受講権サービスの認証失敗エラーを生成する。
// サービストークンの失効を示すため、運用側での対応が必要となる。
func NewUpstreamUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnauthorized,
		Message:  "メディア情報サービスの認証に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDRMUnavailableError はDRMベンダーAPIの呼び出し失敗エラーを生成する。
func NewDRMUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeDRMUnavailable,
		Message:  fmt.Sprintf("再生情報の発行に失敗しました: %s", reason),
		Category: "media",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDeviceLimitError は端末登録数上限エラーを生成する。
func NewDeviceLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeDeviceLimit,
		Message:  fmt.Sprintf("端末の登録数が上限（%d台）に達しています。", limit),
		Category: "security",
		Action:   "不要な端末の登録を解除してから、再度お試しください。",
	}
}

// NewDeviceNotFoundError は端末が見つからない場合のエラーを生成する。
func NewDeviceNotFoundError(deviceID string) *APIError {
	return &APIError{
		Code:     ErrCodeDeviceNotFound,
		Message:  fmt.Sprintf("指定された端末が見つかりません: %s", deviceID),
		Category: "security",
		Action:   "端末IDを確認してください。",
	}
}

// NewDeviceNotBoundError は未登録端末からのアクセスエラーを生成する。
func NewDeviceNotBoundError() *APIError {
	return &APIError{
		Code:     ErrCodeDeviceNotBound,
		Message:  "この端末は登録されていません。",
		Category: "security",
		Action:   "端末を登録してから再度お試しください。",
	}
}

// NewInvalidPinError はPINコード不一致エラーを生成する。
func NewInvalidPinError(remaining int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPin,
		Message:  fmt.Sprintf("PINコードが正しくありません。あと%d回失敗するとロックされます。", remaining),
		Category: "security",
		Action:   "PINコードを確認して再度入力してください。",
	}
}

// NewPinLockedError はPIN連続失敗による一時ロックエラーを生成する。
func NewPinLockedError() *APIError {
	return &APIError{
		Code:     ErrCodePinLocked,
		Message:  "PINコードの入力が連続して失敗したため、一時的にロックされています。",
		Category: "security",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPinNotSetError はPIN未設定エラーを生成する。
func NewPinNotSetError() *APIError {
	return &APIError{
		Code:     ErrCodePinNotSet,
		Message:  "PINコードが設定されていません。",
		Category: "security",
		Action:   "先にPINコードを設定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を指定してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを指定してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewCoverFetchFailedError はカバー画像取得失敗エラーを生成する。
func NewCoverFetchFailedError(videoID int64) *APIError {
	return &APIError{
		Code:     ErrCodeCoverFetchFailed,
		Message:  fmt.Sprintf("カバー画像の取得に失敗しました: %d", videoID),
		Category: "media",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
