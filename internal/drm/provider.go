// Package drm はDRMベンダーAPIとの連携機能を提供する。
// 再生ワンタイムパスワード（OTP）の発行とオフラインライセンスの失効を含む。
// DRM保護の仕組み自体はベンダー側の実装であり、本サービスは発行APIの呼び出しのみを行う。
package drm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mediaman/internal/model"
)

// Provider は再生クレデンシャル発行のインターフェース。
// テスト時にモックに差し替え可能。
type Provider interface {
	// RequestOTP は指定ビデオの再生OTPとplaybackInfoを発行する。
	RequestOTP(ctx context.Context, videoID int64) (*model.PlaybackInfo, error)

	// RemoveLicense は指定ビデオのオフラインライセンスを失効させる。
	RemoveLicense(ctx context.Context, videoID int64) error
}

// HTTPProvider はDRMベンダーAPIを呼び出すProvider実装。
type HTTPProvider struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
}

// NewHTTPProvider はHTTPProviderを生成する。
func NewHTTPProvider(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// otpResponse はOTP発行APIのワイヤ表現。
type otpResponse struct {
	OTP          string `json:"otp"`
	PlaybackInfo string `json:"playbackInfo"`
	ExpiresIn    int    `json:"expiresIn"`
}

// RequestOTP は指定ビデオの再生OTPとplaybackInfoを発行する。
// OTPは短命であり、再生セッションごとに発行し直す必要がある。
func (p *HTTPProvider) RequestOTP(ctx context.Context, videoID int64) (*model.PlaybackInfo, error) {
	reqBody, err := json.Marshal(map[string]int64{"videoId": videoID})
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/otp", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("DRMベンダーAPIの呼び出しに失敗しました",
			slog.Int64("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDRMUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Error("DRMベンダーAPIがエラーステータスを返しました",
			slog.Int64("video_id", videoID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewDRMUnavailableError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result otpResponse
	if err := json.Unmarshal(body, &result); err != nil {
		p.logger.Error("DRMベンダーAPIのレスポンスのパースに失敗しました",
			slog.Int64("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &model.PlaybackInfo{
		VideoID:   videoID,
		OTP:       result.OTP,
		Payload:   result.PlaybackInfo,
		ExpiresIn: result.ExpiresIn,
	}, nil
}

// RemoveLicense は指定ビデオのオフラインライセンスを失効させる。
// ベンダー側にライセンスが存在しない場合（404）も成功として扱う。
func (p *HTTPProvider) RemoveLicense(ctx context.Context, videoID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/v1/licenses/%d", p.baseURL, videoID), nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("DRMライセンス失効APIの呼び出しに失敗しました",
			slog.Int64("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return model.NewDRMUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		p.logger.Error("DRMライセンス失効APIがエラーステータスを返しました",
			slog.Int64("video_id", videoID),
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewDRMUnavailableError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	return nil
}

// compile-time interface check
var _ Provider = (*HTTPProvider)(nil)
