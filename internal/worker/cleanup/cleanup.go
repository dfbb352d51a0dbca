// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッション、長期間利用のない端末、保持期間を超過したお知らせを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mediaman/internal/repository"
)

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo      repository.SessionRepository
	deviceRepo       repository.DeviceRepository
	announcementRepo repository.AnnouncementRepository
	logger           *slog.Logger

	DeviceRetentionDays int // 端末の未利用保持日数（デフォルト: 180）
	NewsRetentionDays   int // お知らせの保持日数（デフォルト: 180）

	nowFn func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数はいずれも180日。
func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	deviceRepo repository.DeviceRepository,
	announcementRepo repository.AnnouncementRepository,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:         sessionRepo,
		deviceRepo:          deviceRepo,
		announcementRepo:    announcementRepo,
		logger:              logger,
		DeviceRetentionDays: 180,
		NewsRetentionDays:   180,
		nowFn:               time.Now,
	}
}

// Run は期限切れデータを削除する。
// 1. 期限切れセッション
// 2. 最終利用日時がDeviceRetentionDays日前より古い端末
// 3. 取得日時がNewsRetentionDays日前より古いお知らせ
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.nowFn()

	sessions, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deviceCutoff := start.AddDate(0, 0, -j.DeviceRetentionDays)
	devices, err := j.deviceRepo.DeleteUnseenBefore(ctx, deviceCutoff)
	if err != nil {
		j.logger.Error("未利用端末の削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.DeviceRetentionDays),
		)
		return fmt.Errorf("未利用端末の削除に失敗: %w", err)
	}

	newsCutoff := start.AddDate(0, 0, -j.NewsRetentionDays)
	announcements, err := j.announcementRepo.DeleteOlderThan(ctx, newsCutoff)
	if err != nil {
		j.logger.Error("お知らせの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.NewsRetentionDays),
		)
		return fmt.Errorf("お知らせの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessions),
		slog.Int64("deleted_devices", devices),
		slog.Int64("deleted_announcements", announcements),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
