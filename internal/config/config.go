package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	TokenSecret string

	// Session
	SessionMaxAge int

	// Upstream（受講権サービス）
	UpstreamBaseURL  string
	UpstreamAPIToken string
	UpstreamTimeout  time.Duration

	// DRM（再生クレデンシャル発行ベンダー）
	DRMBaseURL string
	DRMAPIKey  string
	DRMTimeout time.Duration

	// Cover image
	CoverMaxSize  int64
	CoverTimeout  time.Duration

	// Device binding
	MaxDevices          int
	DeviceRetentionDays int

	// PIN
	PinMaxAttempts  int
	PinLockDuration time.Duration

	// News（アカデミーサイトのお知らせフィード）
	NewsSiteURL       string
	NewsFetchInterval time.Duration
	NewsRetentionDays int

	// Rate Limit
	RateLimitGeneral   int
	RateLimitPinVerify int

	// Server
	ServerPort  string
	MetricsPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	cfg.UpstreamBaseURL = os.Getenv("UPSTREAM_BASE_URL")
	if cfg.UpstreamBaseURL == "" {
		missing = append(missing, "UPSTREAM_BASE_URL")
	}

	cfg.UpstreamAPIToken = os.Getenv("UPSTREAM_API_TOKEN")
	if cfg.UpstreamAPIToken == "" {
		missing = append(missing, "UPSTREAM_API_TOKEN")
	}

	cfg.DRMBaseURL = os.Getenv("DRM_BASE_URL")
	if cfg.DRMBaseURL == "" {
		missing = append(missing, "DRM_BASE_URL")
	}

	cfg.DRMAPIKey = os.Getenv("DRM_API_KEY")
	if cfg.DRMAPIKey == "" {
		missing = append(missing, "DRM_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.DRMTimeout = getEnvDuration("DRM_TIMEOUT", 10*time.Second)
	cfg.CoverMaxSize = getEnvInt64("COVER_MAX_SIZE", 5242880)
	cfg.CoverTimeout = getEnvDuration("COVER_TIMEOUT", 5*time.Second)
	cfg.MaxDevices = getEnvInt("MAX_DEVICES", 5)
	cfg.DeviceRetentionDays = getEnvInt("DEVICE_RETENTION_DAYS", 180)
	cfg.PinMaxAttempts = getEnvInt("PIN_MAX_ATTEMPTS", 5)
	cfg.PinLockDuration = getEnvDuration("PIN_LOCK_DURATION", 5*time.Minute)
	cfg.NewsSiteURL = getEnvString("NEWS_SITE_URL", "")
	cfg.NewsFetchInterval = getEnvDuration("NEWS_FETCH_INTERVAL", 30*time.Minute)
	cfg.NewsRetentionDays = getEnvInt("NEWS_RETENTION_DAYS", 180)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPinVerify = getEnvInt("RATE_LIMIT_PIN_VERIFY", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
