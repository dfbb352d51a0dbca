// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/repository"
)

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	deviceRepo  repository.DeviceRepository
	pinRepo     repository.PinRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	deviceRepo repository.DeviceRepository,
	pinRepo repository.PinRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		deviceRepo:  deviceRepo,
		pinRepo:     pinRepo,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → devices → pin_credentials → user
// お知らせは共有データとして残す。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除（全端末で即時ログアウト）
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. 端末登録を削除
	if s.deviceRepo != nil {
		if err := s.deviceRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("端末登録の削除に失敗しました: %w", err)
		}
	}

	// 3. PINクレデンシャルを削除
	if s.pinRepo != nil {
		if err := s.pinRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("PINクレデンシャルの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
