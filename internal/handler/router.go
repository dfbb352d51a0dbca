package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mediaman/internal/middleware"
)

// RouterDeps はルーター構築に必要な依存をまとめる。
type RouterDeps struct {
	Logger            *slog.Logger
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	TokenSecret       string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	AuthService       AuthServiceInterface
	MediaService      MediaServiceInterface
	CoverService      CoverServiceInterface
	DeviceService     DeviceServiceInterface
	DeviceChecker     DeviceBindingChecker
	PinService        PinServiceInterface
	NewsService       NewsServiceInterface
	UserService       UserServiceInterface
}

// NewRouter はアプリケーション全体のHTTPルーターを構築する。
// /health と /auth/login 以外のAPIはセッション認証とレート制限を通過する。
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.AuthService)
	mediaHandler := NewMediaHandler(deps.MediaService, deps.CoverService, deps.DeviceChecker)
	deviceHandler := NewDeviceHandler(deps.DeviceService)
	pinHandler := NewPinHandler(deps.PinService)
	newsHandler := NewNewsHandler(deps.NewsService)
	userHandler := NewUserHandler(deps.UserService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 認証不要のエンドポイント
	r.Get("/health", healthHandler.Check)
	r.Post("/auth/login", authHandler.Login)

	// 認証必須のエンドポイント
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.TokenSecret))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)

		r.Delete("/api/users/me", userHandler.Withdraw)

		r.Get("/api/media", mediaHandler.ListMedia)
		r.Get("/api/media/search", mediaHandler.SearchMedia)

		r.Post("/api/videos/{videoID}/playback", mediaHandler.Playback)
		r.Delete("/api/videos/{videoID}/license", mediaHandler.RemoveLicense)
		r.Get("/api/videos/{videoID}/cover", mediaHandler.Cover)

		r.Post("/api/devices", deviceHandler.Register)
		r.Get("/api/devices", deviceHandler.List)
		r.Delete("/api/devices/{deviceID}", deviceHandler.Remove)

		r.Put("/api/pin", pinHandler.Set)
		r.Delete("/api/pin", pinHandler.Clear)
		// PIN検証は総当たり対策として個別のレート制限を重ねる
		r.With(deps.RateLimiter.PinVerifyMiddleware()).Post("/api/pin/verify", pinHandler.Verify)

		r.Get("/api/news", newsHandler.List)
	})

	return r
}
