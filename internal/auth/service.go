// Package auth はメールアドレス＋パスワード認証とセッション管理を提供する。
// モバイルクライアントへはセッションIDをsubjectに持つJWTアクセストークンを払い出す。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	TokenSecret   string // JWT署名鍵
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	pinRepo     repository.PinRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	pinRepo repository.PinRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		pinRepo:     pinRepo,
		config:      config,
	}
}

// LoginResult はログイン成功時の戻り値。
type LoginResult struct {
	User        *model.User
	Session     *model.Session
	AccessToken string
}

// Login はメールアドレスとパスワードでユーザーを認証し、セッションとアクセストークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同一のエラーを返す
// （メールアドレスの存在有無を漏らさない）。
// ログイン成功時はPINの失敗カウントをリセットする。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := MakeToken(s.config.TokenSecret, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to make access token: %w", err)
	}

	// 正当なログインが確認できたのでPINロックを解除する
	if err := s.pinRepo.ResetFailures(ctx, user.ID); err != nil {
		slog.Warn("PIN失敗カウントのリセットに失敗しました",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		User:        user,
		Session:     session,
		AccessToken: token,
	}, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はユーザーIDから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// HashPassword はパスワードをbcryptでハッシュ化する。
// ユーザー登録バッチやテストデータ生成で使用する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
