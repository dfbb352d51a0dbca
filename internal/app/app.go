package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/mediaman/internal/auth"
	"github.com/hitoshi/mediaman/internal/config"
	"github.com/hitoshi/mediaman/internal/database"
	"github.com/hitoshi/mediaman/internal/device"
	"github.com/hitoshi/mediaman/internal/drm"
	"github.com/hitoshi/mediaman/internal/handler"
	"github.com/hitoshi/mediaman/internal/logger"
	"github.com/hitoshi/mediaman/internal/media"
	"github.com/hitoshi/mediaman/internal/metrics"
	"github.com/hitoshi/mediaman/internal/middleware"
	"github.com/hitoshi/mediaman/internal/news"
	"github.com/hitoshi/mediaman/internal/pin"
	"github.com/hitoshi/mediaman/internal/repository"
	"github.com/hitoshi/mediaman/internal/rights"
	"github.com/hitoshi/mediaman/internal/security"
	"github.com/hitoshi/mediaman/internal/user"
	"github.com/hitoshi/mediaman/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	deviceRepo := repository.NewPostgresDeviceRepo(db)
	pinRepo := repository.NewPostgresPinRepo(db)
	announcementRepo := repository.NewPostgresAnnouncementRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 外部サービスクライアントの初期化
	rightsClient := rights.NewClient(
		&http.Client{Timeout: cfg.UpstreamTimeout},
		slog.Default(), cfg.UpstreamBaseURL, cfg.UpstreamAPIToken,
	)
	drmProvider := drm.NewHTTPProvider(
		&http.Client{Timeout: cfg.DRMTimeout},
		slog.Default(), cfg.DRMBaseURL, cfg.DRMAPIKey,
	)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, sessionRepo, pinRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		TokenSecret:   cfg.TokenSecret,
	})

	mediaService := media.NewMediaService(rightsClient, drmProvider, sanitizer, collector, slog.Default())
	coverFetcher := media.NewCoverFetcher(rightsClient, ssrfGuard, slog.Default(), cfg.CoverMaxSize, cfg.CoverTimeout)

	deviceService := device.NewService(deviceRepo, device.ServiceConfig{
		MaxDevices: cfg.MaxDevices,
	})
	pinService := pin.NewService(pinRepo, collector, pin.ServiceConfig{
		MaxAttempts:  cfg.PinMaxAttempts,
		LockDuration: cfg.PinLockDuration,
	})
	newsService := news.NewService(
		announcementRepo, sanitizer, ssrfGuard,
		slog.Default(), cfg.NewsSiteURL, 10*time.Second,
	)
	userService := user.NewService(userRepo, sessionRepo, deviceRepo, pinRepo)

	// 6. レート制限の設定（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rateLimitPerSecond(cfg.RateLimitGeneral)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitPinVerify > 0 {
		rateLimiterCfg.PinVerifyRate = rateLimitPerSecond(cfg.RateLimitPinVerify)
		rateLimiterCfg.PinVerifyBurst = cfg.RateLimitPinVerify
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	router := handler.NewRouter(handler.RouterDeps{
		Logger:            slog.Default(),
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		TokenSecret:       cfg.TokenSecret,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService:   authService,
		MediaService:  mediaService,
		CoverService:  coverFetcher,
		DeviceService: deviceService,
		DeviceChecker: deviceService,
		PinService:    pinService,
		NewsService:   newsService,
		UserService:   userService,
	})

	// 8. メトリクスサーバーの起動（APIとは別ポートで公開する）
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		slog.Info("metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// お知らせフィードの定期取得とクリーンアップジョブを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)
	deviceRepo := repository.NewPostgresDeviceRepo(db)
	announcementRepo := repository.NewPostgresAnnouncementRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. お知らせ取得バッチジョブの初期化
	newsService := news.NewService(
		announcementRepo, sanitizer, ssrfGuard,
		slog.Default(), cfg.NewsSiteURL, 10*time.Second,
	)
	newsBatch := news.NewBatchJob(newsService, collector, slog.Default(), news.BatchConfig{
		FetchInterval: cfg.NewsFetchInterval,
	})

	// 5. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, deviceRepo, announcementRepo, slog.Default())
	cleanupJob.DeviceRetentionDays = cfg.DeviceRetentionDays
	cleanupJob.NewsRetentionDays = cfg.NewsRetentionDays

	// 6. メトリクスサーバーの起動
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metrics.SetupMetricsRoute(registry),
	}
	go func() {
		slog.Info("metrics server starting (worker)", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("news_fetch_interval", cfg.NewsFetchInterval),
		slog.Int("device_retention_days", cfg.DeviceRetentionDays),
		slog.Int("news_retention_days", cfg.NewsRetentionDays),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// お知らせ取得バッチをメインgoroutineで実行（ブロッキング）
	newsBatch.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// rateLimitPerSecond はreq/min単位の設定値をrate.Limit（req/sec）に変換する。
func rateLimitPerSecond(perMinute int) rate.Limit {
	return rate.Limit(float64(perMinute) / 60.0)
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
