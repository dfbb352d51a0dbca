// Package rights は上流の受講権サービスとの連携機能を提供する。
// ユーザーの受講権に基づくアクセスレスポンスの取得とタグ検索APIの呼び出しを含む。
package rights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/mediaman/internal/catalog"
	"github.com/hitoshi/mediaman/internal/model"
)

// Client は受講権サービスAPIのクライアント。
// サービス間認証にはBearerトークンを使用し、対象ユーザーはヘッダで指定する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiToken   string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiToken string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiToken:   apiToken,
	}
}

// FetchGrants はユーザーの全受講権が付与するアクセスレスポンスを取得する。
// 同じグループ・プレイリストが異なる有効期限で重複して含まれることがある
// （重複排除はカタログパイプラインが行う）。
func (c *Client) FetchGrants(ctx context.Context, userID string) (*catalog.AccessResponse, error) {
	body, err := c.get(ctx, "/v1/grants", userID, nil)
	if err != nil {
		return nil, err
	}

	var data catalog.AccessResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error("受講権レスポンスのパースに失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &data, nil
}

// taggedVideoEnvelope はタグ検索APIのワイヤ表現。
type taggedVideoEnvelope struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	CoverImgURL string `json:"coverImgUrl"`
}

// SearchVideosByTag はタグに合致するビデオを検索する。
// 検索API自体は有効期限を返さないため、呼び出し元が受講権から
// 構築した有効期限マップで補完する。
func (c *Client) SearchVideosByTag(ctx context.Context, userID, tag string) ([]model.TaggedVideo, error) {
	body, err := c.get(ctx, "/v1/videos/search", userID, url.Values{"tag": []string{tag}})
	if err != nil {
		return nil, err
	}

	var envelopes []taggedVideoEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		c.logger.Error("タグ検索レスポンスのパースに失敗しました",
			slog.String("user_id", userID),
			slog.String("tag", tag),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	videos := make([]model.TaggedVideo, 0, len(envelopes))
	for _, e := range envelopes {
		videos = append(videos, model.TaggedVideo{
			ID:            e.ID,
			Name:          e.Title,
			CoverImageURL: e.CoverImgURL,
		})
	}

	return videos, nil
}

// get は受講権サービスへのGETリクエストを実行し、レスポンスボディを返す。
// 401はUPSTREAM_UNAUTHORIZED、その他の非2xxはUPSTREAM_UNAVAILABLEに変換する。
func (c *Client) get(ctx context.Context, path, userID string, query url.Values) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("User-Agent", "Mediaman/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("受講権サービスの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Error("受講権サービスが認証エラーを返しました",
			slog.String("path", path),
			slog.String("user_id", userID),
		)
		return nil, model.NewUpstreamUnauthorizedError()
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("受講権サービスがエラーステータスを返しました",
			slog.String("path", path),
			slog.String("user_id", userID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewUpstreamUnavailableError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}
