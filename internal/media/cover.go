package media

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/mediaman/internal/catalog"
	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/security"
)

// CoverFetcherService はカバー画像取得のインターフェース。
type CoverFetcherService interface {
	// FetchCoverForVideo は指定ビデオのカバー画像を取得する。
	// ビデオが受講権に含まれない場合はVIDEO_NOT_FOUND、
	// 画像の取得に失敗した場合はCOVER_FETCH_FAILEDを返す。
	FetchCoverForVideo(ctx context.Context, userID string, videoID int64) (data []byte, mimeType string, err error)
}

// CoverFetcher はカバー画像取得機能の実装。
// モバイルクライアントのキャッシュ用に、CDN上のカバー画像をSSRF防止付きで中継する。
type CoverFetcher struct {
	rights    GrantsFetcher
	ssrfGuard security.SSRFGuardService
	logger    *slog.Logger
	maxSize   int64
	timeout   time.Duration
	nowFn     func() time.Time
}

// NewCoverFetcher はCoverFetcherの新しいインスタンスを生成する。
func NewCoverFetcher(
	rights GrantsFetcher,
	ssrfGuard security.SSRFGuardService,
	logger *slog.Logger,
	maxSize int64,
	timeout time.Duration,
) *CoverFetcher {
	return &CoverFetcher{
		rights:    rights,
		ssrfGuard: ssrfGuard,
		logger:    logger,
		maxSize:   maxSize,
		timeout:   timeout,
		nowFn:     time.Now,
	}
}

// FetchCoverForVideo は指定ビデオのカバー画像を取得する。
func (f *CoverFetcher) FetchCoverForVideo(ctx context.Context, userID string, videoID int64) ([]byte, string, error) {
	data, err := f.rights.FetchGrants(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	coverURL := findCoverURL(catalog.ProcessAccessResponse(data, f.nowFn()), videoID)
	if coverURL == "" {
		return nil, "", model.NewVideoNotFoundError(videoID)
	}

	body, mimeType := f.fetch(ctx, coverURL)
	if body == nil {
		return nil, "", model.NewCoverFetchFailedError(videoID)
	}

	return body, mimeType, nil
}

// fetch は指定URLから画像を取得する。取得失敗時はnilデータと空MIMEを返す。
func (f *CoverFetcher) fetch(ctx context.Context, coverURL string) ([]byte, string) {
	if err := f.ssrfGuard.ValidateURL(coverURL); err != nil {
		f.logger.Warn("カバー画像取得: SSRFブロック", "url", coverURL, "error", err)
		return nil, ""
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		f.logger.Warn("カバー画像取得: リクエスト作成失敗", "url", coverURL, "error", err)
		return nil, ""
	}
	req.Header.Set("User-Agent", "Mediaman/1.0")

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warn("カバー画像取得: HTTPリクエスト失敗", "url", coverURL, "error", err)
		return nil, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("カバー画像取得: HTTPステータス異常", "url", coverURL, "status", resp.StatusCode)
		return nil, ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		f.logger.Warn("カバー画像取得: レスポンス読み取り失敗", "url", coverURL, "error", err)
		return nil, ""
	}
	if int64(len(body)) > f.maxSize {
		f.logger.Warn("カバー画像取得: サイズ超過", "url", coverURL, "size", len(body))
		return nil, ""
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if !isImageMime(mimeType) {
		f.logger.Warn("カバー画像取得: 画像以外のContent-Type", "url", coverURL, "contentType", mimeType)
		return nil, ""
	}

	return body, mimeType
}

// findCoverURL はカタログ内から指定ビデオのカバー画像URLを探す。
// グループ直下・プレイリスト内・単体のすべての出現箇所を走査する。
func findCoverURL(items []model.Item, videoID int64) string {
	checkVideos := func(videos []model.Video) string {
		for _, v := range videos {
			if v.ID == videoID && v.CoverImageURL != "" {
				return v.CoverImageURL
			}
		}
		return ""
	}

	for _, item := range items {
		switch v := item.(type) {
		case model.Group:
			for _, p := range v.Playlists {
				if u := checkVideos(p.Videos); u != "" {
					return u
				}
			}
			if u := checkVideos(v.Videos); u != "" {
				return u
			}
		case model.Playlist:
			if u := checkVideos(v.Videos); u != "" {
				return u
			}
		case model.Video:
			if v.ID == videoID && v.CoverImageURL != "" {
				return v.CoverImageURL
			}
		}
	}
	return ""
}

// compile-time interface check
var _ CoverFetcherService = (*CoverFetcher)(nil)
