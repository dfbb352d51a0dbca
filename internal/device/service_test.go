package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

type mockDeviceRepo struct {
	findByIDFn        func(ctx context.Context, id string) (*model.Device, error)
	findByUserAndIDFn func(ctx context.Context, userID, deviceID string) (*model.Device, error)
	listByUserIDFn    func(ctx context.Context, userID string) ([]*model.Device, error)
	countByUserIDFn   func(ctx context.Context, userID string) (int, error)
	createFn          func(ctx context.Context, device *model.Device) error
	updateLastSeenFn  func(ctx context.Context, deviceID string, seenAt time.Time) error
	deleteFn          func(ctx context.Context, id string) error
}

func (m *mockDeviceRepo) FindByID(ctx context.Context, id string) (*model.Device, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDeviceRepo) FindByUserAndID(ctx context.Context, userID, deviceID string) (*model.Device, error) {
	if m.findByUserAndIDFn != nil {
		return m.findByUserAndIDFn(ctx, userID, deviceID)
	}
	return nil, nil
}

func (m *mockDeviceRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Device, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeviceRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	if m.countByUserIDFn != nil {
		return m.countByUserIDFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockDeviceRepo) Create(ctx context.Context, device *model.Device) error {
	if m.createFn != nil {
		return m.createFn(ctx, device)
	}
	return nil
}

func (m *mockDeviceRepo) UpdateLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	if m.updateLastSeenFn != nil {
		return m.updateLastSeenFn(ctx, deviceID, seenAt)
	}
	return nil
}

func (m *mockDeviceRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockDeviceRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }

func (m *mockDeviceRepo) DeleteUnseenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockDeviceRepo) *Service {
	svc := NewService(repo, ServiceConfig{MaxDevices: 3})
	svc.nowFn = func() time.Time { return testNow }
	return svc
}

func TestRegister_Success(t *testing.T) {
	var created *model.Device
	repo := &mockDeviceRepo{
		countByUserIDFn: func(ctx context.Context, userID string) (int, error) {
			return 1, nil
		},
		createFn: func(ctx context.Context, device *model.Device) error {
			created = device
			return nil
		},
	}
	svc := newTestService(repo)

	device, err := svc.Register(context.Background(), "user-1", "iPhone 15", "ios")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if device.ID == "" {
		t.Error("device ID should be generated")
	}
	if device.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", device.UserID)
	}
	if device.Platform != "ios" {
		t.Errorf("Platform = %q, want ios", device.Platform)
	}
	if !device.LastSeenAt.Equal(testNow) {
		t.Errorf("LastSeenAt = %v, want %v", device.LastSeenAt, testNow)
	}
	if created == nil {
		t.Fatal("device was not persisted")
	}
}

func TestRegister_AtLimit_ReturnsDeviceLimitError(t *testing.T) {
	repo := &mockDeviceRepo{
		countByUserIDFn: func(ctx context.Context, userID string) (int, error) {
			return 3, nil
		},
		createFn: func(ctx context.Context, device *model.Device) error {
			t.Error("Create should not be called when at limit")
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "user-1", "iPad", "ios")
	if err == nil {
		t.Fatal("expected error when device limit reached")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeviceLimit {
		t.Errorf("err = %v, want DEVICE_LIMIT", err)
	}
}

func TestRegister_EmptyName_ReturnsError(t *testing.T) {
	svc := newTestService(&mockDeviceRepo{})

	if _, err := svc.Register(context.Background(), "user-1", "", "ios"); err == nil {
		t.Fatal("expected error for empty device name")
	}
}

func TestList_ReturnsDevices(t *testing.T) {
	repo := &mockDeviceRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.Device, error) {
			return []*model.Device{
				{ID: "dev-1", UserID: userID, Name: "iPhone"},
				{ID: "dev-2", UserID: userID, Name: "Android"},
			}, nil
		},
	}
	svc := newTestService(repo)

	devices, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("len(devices) = %d, want 2", len(devices))
	}
}

func TestRemove_Success(t *testing.T) {
	var deletedID string
	repo := &mockDeviceRepo{
		findByUserAndIDFn: func(ctx context.Context, userID, deviceID string) (*model.Device, error) {
			return &model.Device{ID: deviceID, UserID: userID}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Remove(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if deletedID != "dev-1" {
		t.Errorf("deleted id = %q, want dev-1", deletedID)
	}
}

// 他ユーザーの端末は所有チェックで弾かれる
func TestRemove_NotOwned_ReturnsNotFound(t *testing.T) {
	repo := &mockDeviceRepo{
		findByUserAndIDFn: func(ctx context.Context, userID, deviceID string) (*model.Device, error) {
			return nil, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			t.Error("Delete should not be called for unowned device")
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Remove(context.Background(), "user-1", "dev-other")
	if err == nil {
		t.Fatal("expected error for unowned device")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeviceNotFound {
		t.Errorf("err = %v, want DEVICE_NOT_FOUND", err)
	}
}

func TestCheckBinding_Registered_UpdatesLastSeen(t *testing.T) {
	var seenAt time.Time
	repo := &mockDeviceRepo{
		findByUserAndIDFn: func(ctx context.Context, userID, deviceID string) (*model.Device, error) {
			return &model.Device{ID: deviceID, UserID: userID}, nil
		},
		updateLastSeenFn: func(ctx context.Context, deviceID string, at time.Time) error {
			seenAt = at
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.CheckBinding(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("CheckBinding returned error: %v", err)
	}
	if !seenAt.Equal(testNow) {
		t.Errorf("seenAt = %v, want %v", seenAt, testNow)
	}
}

func TestCheckBinding_Unregistered_ReturnsNotBound(t *testing.T) {
	repo := &mockDeviceRepo{
		findByUserAndIDFn: func(ctx context.Context, userID, deviceID string) (*model.Device, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo)

	err := svc.CheckBinding(context.Background(), "user-1", "dev-x")
	if err == nil {
		t.Fatal("expected error for unregistered device")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeviceNotBound {
		t.Errorf("err = %v, want DEVICE_NOT_BOUND", err)
	}
}

func TestCheckBinding_EmptyDeviceID_ReturnsNotBound(t *testing.T) {
	svc := newTestService(&mockDeviceRepo{})

	err := svc.CheckBinding(context.Background(), "user-1", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeviceNotBound {
		t.Errorf("err = %v, want DEVICE_NOT_BOUND", err)
	}
}

// 最終利用日時の更新失敗はバインディング検証を失敗させない
func TestCheckBinding_UpdateLastSeenFailure_StillSucceeds(t *testing.T) {
	repo := &mockDeviceRepo{
		findByUserAndIDFn: func(ctx context.Context, userID, deviceID string) (*model.Device, error) {
			return &model.Device{ID: deviceID, UserID: userID}, nil
		},
		updateLastSeenFn: func(ctx context.Context, deviceID string, at time.Time) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(repo)

	if err := svc.CheckBinding(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("CheckBinding should succeed despite last seen update failure: %v", err)
	}
}
