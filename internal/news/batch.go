package news

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/mediaman/internal/metrics"
)

// NewsFetcher はお知らせフィードの1回取得のインターフェース。
// テスト時にモックに差し替え可能。
type NewsFetcher interface {
	FetchOnce(ctx context.Context) (int, error)
}

// BatchConfig はお知らせ取得バッチの設定パラメータ。
type BatchConfig struct {
	// FetchInterval はバッチジョブの実行間隔（デフォルト: 30分）。
	FetchInterval time.Duration
}

// DefaultBatchConfig はデフォルトのバッチジョブ設定を返す。
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		FetchInterval: 30 * time.Minute,
	}
}

// BatchJob はお知らせフィードの定期取得ジョブ。
// 連続失敗時はバックオフを適用して呼び出し頻度を抑える。
type BatchJob struct {
	fetcher           NewsFetcher
	metrics           metrics.MetricsCollector
	logger            *slog.Logger
	config            BatchConfig
	consecutiveErrors int
	backoffUntil      time.Time
	nowFn             func() time.Time
}

// NewBatchJob はBatchJobの新しいインスタンスを生成する。
func NewBatchJob(
	fetcher NewsFetcher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config BatchConfig,
) *BatchJob {
	return &BatchJob{
		fetcher: fetcher,
		metrics: collector,
		logger:  logger,
		config:  config,
		nowFn:   time.Now,
	}
}

// Start はバッチジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (b *BatchJob) Start(ctx context.Context) {
	ticker := time.NewTicker(b.config.FetchInterval)
	defer ticker.Stop()

	b.logger.Info("お知らせ取得バッチジョブを開始しました",
		slog.Duration("fetch_interval", b.config.FetchInterval),
	)

	// 起動直後に1回実行
	b.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("お知らせ取得バッチジョブを停止しました")
			return
		case <-ticker.C:
			b.RunOnce(ctx)
		}
	}
}

// RunOnce は1回の取得サイクルを実行する。
// バックオフ中の場合はスキップする。
func (b *BatchJob) RunOnce(ctx context.Context) {
	now := b.nowFn()
	if !b.backoffUntil.IsZero() && now.Before(b.backoffUntil) {
		b.logger.Info("お知らせ取得バッチジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", b.backoffUntil),
		)
		return
	}

	upserted, err := b.fetcher.FetchOnce(ctx)
	if err != nil {
		b.consecutiveErrors++
		backoff := calculateErrorBackoff(b.consecutiveErrors)
		if backoff > 0 {
			b.backoffUntil = b.nowFn().Add(backoff)
		}
		b.logger.Error("お知らせフィードの取得に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("consecutive_errors", b.consecutiveErrors),
			slog.Duration("backoff_duration", backoff),
		)
		return
	}

	b.consecutiveErrors = 0
	b.backoffUntil = time.Time{}
	b.metrics.RecordNewsFetch(upserted)
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 30分、5回連続: 1時間、10回連続: 6時間。
func calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 10:
		return 6 * time.Hour
	case consecutiveErrors >= 5:
		return 1 * time.Hour
	case consecutiveErrors >= 3:
		return 30 * time.Minute
	default:
		return 0
	}
}
