// Package device は端末バインディングのビジネスロジックを提供する。
//
// ユーザーは上限台数まで端末を登録でき、再生要求は登録済み端末からのみ許可される。
// 長期間利用のない端末はワーカーが自動的に登録解除する。
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/repository"
)

// ServiceConfig は端末管理サービスの設定。
type ServiceConfig struct {
	MaxDevices int // ユーザーあたりの端末登録上限
}

// Service は端末バインディングに関するビジネスロジックを提供する。
type Service struct {
	deviceRepo repository.DeviceRepository
	config     ServiceConfig
	nowFn      func() time.Time
}

// NewService はServiceを生成する。
func NewService(deviceRepo repository.DeviceRepository, config ServiceConfig) *Service {
	return &Service{
		deviceRepo: deviceRepo,
		config:     config,
		nowFn:      time.Now,
	}
}

// Register は端末を登録する。
// 登録数が上限に達している場合はDEVICE_LIMITエラーを返す。
func (s *Service) Register(ctx context.Context, userID, name, platform string) (*model.Device, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("device name is required")
	}

	count, err := s.deviceRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}
	if count >= s.config.MaxDevices {
		return nil, model.NewDeviceLimitError(s.config.MaxDevices)
	}

	now := s.nowFn()
	device := &model.Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       name,
		Platform:   platform,
		LastSeenAt: now,
		CreatedAt:  now,
	}

	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	slog.Info("device registered",
		slog.String("user_id", userID),
		slog.String("device_id", device.ID),
		slog.String("platform", platform),
	)

	return device, nil
}

// List はユーザーの登録端末一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Device, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	devices, err := s.deviceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return devices, nil
}

// Remove はユーザーの端末登録を解除する。
// 本人以外の端末や存在しない端末はDEVICE_NOT_FOUNDエラーを返す。
func (s *Service) Remove(ctx context.Context, userID, deviceID string) error {
	if userID == "" || deviceID == "" {
		return fmt.Errorf("user ID and device ID are required")
	}

	device, err := s.deviceRepo.FindByUserAndID(ctx, userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to find device: %w", err)
	}
	if device == nil {
		return model.NewDeviceNotFoundError(deviceID)
	}

	if err := s.deviceRepo.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	slog.Info("device removed",
		slog.String("user_id", userID),
		slog.String("device_id", deviceID),
	)

	return nil
}

// CheckBinding は端末がユーザーに登録済みであることを確認し、最終利用日時を更新する。
// 未登録の場合はDEVICE_NOT_BOUNDエラーを返す。
func (s *Service) CheckBinding(ctx context.Context, userID, deviceID string) error {
	if deviceID == "" {
		return model.NewDeviceNotBoundError()
	}

	device, err := s.deviceRepo.FindByUserAndID(ctx, userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to find device: %w", err)
	}
	if device == nil {
		return model.NewDeviceNotBoundError()
	}

	// 最終利用日時の更新失敗はバインディング検証の結果に影響させない
	if err := s.deviceRepo.UpdateLastSeen(ctx, deviceID, s.nowFn()); err != nil {
		slog.Warn("端末の最終利用日時の更新に失敗しました",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
