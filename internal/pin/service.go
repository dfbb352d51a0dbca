// Package pin はローカルPINコードの設定・検証ロジックを提供する。
//
// PINはbcryptでハッシュ化して保存し、連続失敗が上限に達すると
// 一定時間検証を受け付けない（一時ロック）。ロックはログイン成功でも解除される。
package pin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/mediaman/internal/metrics"
	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/repository"
)

// ServiceConfig はPINサービスの設定。
type ServiceConfig struct {
	MaxAttempts  int           // 連続失敗の上限回数
	LockDuration time.Duration // ロック継続時間
}

// Service はPINコードに関するビジネスロジックを提供する。
type Service struct {
	pinRepo repository.PinRepository
	metrics metrics.MetricsCollector
	config  ServiceConfig
	nowFn   func() time.Time
}

// NewService はServiceを生成する。
func NewService(pinRepo repository.PinRepository, collector metrics.MetricsCollector, config ServiceConfig) *Service {
	return &Service{
		pinRepo: pinRepo,
		metrics: collector,
		config:  config,
		nowFn:   time.Now,
	}
}

// Set はユーザーのPINコードを設定する。既存のPINは上書きされ、失敗カウントはリセットされる。
func (s *Service) Set(ctx context.Context, userID, pin string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if len(pin) < 4 {
		return fmt.Errorf("PIN must be at least 4 digits")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}

	now := s.nowFn()
	cred := &model.PinCredential{
		UserID:    userID,
		PinHash:   string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.pinRepo.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("failed to save PIN credential: %w", err)
	}

	slog.Info("PIN set", slog.String("user_id", userID))
	return nil
}

// Verify はPINコードを検証する。
// 未設定の場合はPIN_NOT_SET、ロック中はPIN_LOCKED、不一致はINVALID_PINを返す。
// 検証成功時は失敗カウントをリセットする。
func (s *Service) Verify(ctx context.Context, userID, pin string) error {
	cred, err := s.pinRepo.FindByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find PIN credential: %w", err)
	}
	if cred == nil {
		return model.NewPinNotSetError()
	}

	if s.isLocked(cred) {
		return model.NewPinLockedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PinHash), []byte(pin)); err != nil {
		now := s.nowFn()
		if err := s.pinRepo.RecordFailure(ctx, userID, now); err != nil {
			slog.Error("PIN失敗の記録に失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.RecordPinFailure()

		remaining := s.config.MaxAttempts - (cred.FailedCount + 1)
		if remaining <= 0 {
			return model.NewPinLockedError()
		}
		return model.NewInvalidPinError(remaining)
	}

	if cred.FailedCount > 0 {
		if err := s.pinRepo.ResetFailures(ctx, userID); err != nil {
			slog.Warn("PIN失敗カウントのリセットに失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Clear はユーザーのPINコードを削除する。
func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}

	if err := s.pinRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete PIN credential: %w", err)
	}

	slog.Info("PIN cleared", slog.String("user_id", userID))
	return nil
}

// isLocked は連続失敗によるロック中かどうかを判定する。
// ロック期間を過ぎていれば失敗カウントが残っていてもロック扱いしない。
func (s *Service) isLocked(cred *model.PinCredential) bool {
	if cred.FailedCount < s.config.MaxAttempts {
		return false
	}
	if cred.LastFailedAt == nil {
		return false
	}
	return s.nowFn().Before(cred.LastFailedAt.Add(s.config.LockDuration))
}
