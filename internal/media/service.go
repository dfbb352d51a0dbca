// Package media はメディアカタログのドメインロジックを提供する。
// 受講権の取得、カタログパイプラインの実行、タグ検索、再生情報の発行を含む。
package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/mediaman/internal/catalog"
	"github.com/hitoshi/mediaman/internal/metrics"
	"github.com/hitoshi/mediaman/internal/model"
)

// GrantsFetcher は受講権サービスへの問い合わせインターフェース。
// テスト時にモックに差し替え可能。
type GrantsFetcher interface {
	FetchGrants(ctx context.Context, userID string) (*catalog.AccessResponse, error)
	SearchVideosByTag(ctx context.Context, userID, tag string) ([]model.TaggedVideo, error)
}

// OTPProvider は再生クレデンシャル発行のインターフェース。
type OTPProvider interface {
	RequestOTP(ctx context.Context, videoID int64) (*model.PlaybackInfo, error)
	RemoveLicense(ctx context.Context, videoID int64) error
}

// TextSanitizer はビデオ付随テキストのサニタイズインターフェース。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// MediaService はメディアカタログのサービス。
type MediaService struct {
	rights    GrantsFetcher
	drm       OTPProvider
	sanitizer TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	nowFn     func() time.Time
}

// NewMediaService はMediaServiceの新しいインスタンスを生成する。
func NewMediaService(
	rights GrantsFetcher,
	drmProvider OTPProvider,
	sanitizer TextSanitizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		rights:    rights,
		drm:       drmProvider,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// ListItems はユーザーの受講権から表示用メディアカタログを構築して返す。
// 受講権の取得に失敗した場合はパイプラインを実行せずエラーを返す
// （不完全なカタログを表示するより失敗を明示する）。
func (s *MediaService) ListItems(ctx context.Context, userID string) ([]model.Item, error) {
	start := time.Now()

	data, err := s.rights.FetchGrants(ctx, userID)
	if err != nil {
		s.metrics.RecordUpstreamFailure("fetch_grants")
		return nil, err
	}
	s.metrics.RecordUpstreamSuccess()

	items := catalog.ProcessAccessResponse(data, s.nowFn())
	items = s.sanitizeItems(items)

	s.metrics.RecordCatalogBuild(len(items))
	s.metrics.RecordCatalogLatency(time.Since(start))

	s.logger.Info("カタログを構築しました",
		slog.String("user_id", userID),
		slog.Int("item_count", len(items)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return items, nil
}

// SearchByTag はタグに合致するビデオを検索し、受講権から構築した
// 有効期限マップで有効期限を補完して返す。
// 有効期限マップに存在しない（= 視聴できない）ビデオは結果から除外する。
func (s *MediaService) SearchByTag(ctx context.Context, userID, tag string) ([]model.TaggedVideo, error) {
	data, err := s.rights.FetchGrants(ctx, userID)
	if err != nil {
		s.metrics.RecordUpstreamFailure("fetch_grants")
		return nil, err
	}
	s.metrics.RecordUpstreamSuccess()

	expirations := catalog.BuildVideoExpirationMap(data, s.nowFn())

	results, err := s.rights.SearchVideosByTag(ctx, userID, tag)
	if err != nil {
		s.metrics.RecordUpstreamFailure("search")
		return nil, err
	}

	videos := make([]model.TaggedVideo, 0, len(results))
	for _, v := range results {
		expiration, ok := expirations[v.ID]
		if !ok {
			continue
		}
		v.ExpirationDate = expiration
		videos = append(videos, v)
	}

	return videos, nil
}

// GetPlaybackInfo は指定ビデオの再生OTPとplaybackInfoを発行する。
// 受講権の有効期限マップで視聴可否を確認してからDRMベンダーに発行を依頼する。
func (s *MediaService) GetPlaybackInfo(ctx context.Context, userID string, videoID int64) (*model.PlaybackInfo, error) {
	data, err := s.rights.FetchGrants(ctx, userID)
	if err != nil {
		s.metrics.RecordUpstreamFailure("fetch_grants")
		return nil, err
	}
	s.metrics.RecordUpstreamSuccess()

	now := s.nowFn()
	expirations := catalog.BuildVideoExpirationMap(data, now)

	expiration, ok := expirations[videoID]
	if !ok {
		return nil, model.NewVideoNotFoundError(videoID)
	}
	// 有効期限マップの構築時点から発行までの間に期限が切れるケースを弾く
	if !catalog.IsNotExpired(expiration, now) {
		return nil, model.NewAccessExpiredError(videoID)
	}

	info, err := s.drm.RequestOTP(ctx, videoID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOTPIssued()

	s.logger.Info("再生OTPを発行しました",
		slog.String("user_id", userID),
		slog.Int64("video_id", videoID),
	)

	return info, nil
}

// RemoveLicense は指定ビデオのオフラインライセンスを失効させる。
// ダウンロード済みコンテンツの削除時にクライアントから呼び出される。
func (s *MediaService) RemoveLicense(ctx context.Context, userID string, videoID int64) error {
	if err := s.drm.RemoveLicense(ctx, videoID); err != nil {
		return err
	}

	s.logger.Info("オフラインライセンスを失効させました",
		slog.String("user_id", userID),
		slog.Int64("video_id", videoID),
	)

	return nil
}

// sanitizeItems はカタログ内の全ビデオのTEXTコンテンツをサニタイズする。
func (s *MediaService) sanitizeItems(items []model.Item) []model.Item {
	for i, item := range items {
		switch v := item.(type) {
		case model.Group:
			for j := range v.Playlists {
				v.Playlists[j].Videos = s.sanitizeVideos(v.Playlists[j].Videos)
			}
			v.Videos = s.sanitizeVideos(v.Videos)
			items[i] = v
		case model.Playlist:
			v.Videos = s.sanitizeVideos(v.Videos)
			items[i] = v
		case model.Video:
			items[i] = s.sanitizeVideo(v)
		}
	}
	return items
}

func (s *MediaService) sanitizeVideos(videos []model.Video) []model.Video {
	for i := range videos {
		videos[i] = s.sanitizeVideo(videos[i])
	}
	return videos
}

func (s *MediaService) sanitizeVideo(v model.Video) model.Video {
	for i := range v.Contents {
		if v.Contents[i].Type == model.ContentTypeText {
			v.Contents[i].TextContent = s.sanitizer.SanitizeText(v.Contents[i].TextContent)
		}
	}
	return v
}
