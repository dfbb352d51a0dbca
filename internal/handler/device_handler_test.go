package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mediaman/internal/middleware"
	"github.com/hitoshi/mediaman/internal/model"
)

type mockDeviceService struct {
	registerFn func(ctx context.Context, userID, name, platform string) (*model.Device, error)
	listFn     func(ctx context.Context, userID string) ([]*model.Device, error)
	removeFn   func(ctx context.Context, userID, deviceID string) error
}

func (m *mockDeviceService) Register(ctx context.Context, userID, name, platform string) (*model.Device, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, userID, name, platform)
	}
	return nil, nil
}

func (m *mockDeviceService) List(ctx context.Context, userID string) ([]*model.Device, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeviceService) Remove(ctx context.Context, userID, deviceID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, deviceID)
	}
	return nil
}

func TestDeviceHandler_Register_Success(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := &mockDeviceService{
		registerFn: func(ctx context.Context, userID, name, platform string) (*model.Device, error) {
			return &model.Device{
				ID:         "device-1",
				UserID:     userID,
				Name:       name,
				Platform:   platform,
				LastSeenAt: now,
				CreatedAt:  now,
			}, nil
		},
	}
	h := NewDeviceHandler(svc)

	body := bytes.NewBufferString(`{"name":"太郎のiPhone","platform":"ios"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/devices", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp deviceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "device-1" || resp.Name != "太郎のiPhone" || resp.Platform != "ios" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDeviceHandler_Register_MissingName(t *testing.T) {
	h := NewDeviceHandler(&mockDeviceService{})

	body := bytes.NewBufferString(`{"platform":"ios"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/devices", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeviceHandler_Register_DeviceLimit(t *testing.T) {
	svc := &mockDeviceService{
		registerFn: func(ctx context.Context, userID, name, platform string) (*model.Device, error) {
			return nil, model.NewDeviceLimitError(3)
		},
	}
	h := NewDeviceHandler(svc)

	body := bytes.NewBufferString(`{"name":"4台目","platform":"android"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/devices", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	errResp := decodeErrorResponse(t, rec)
	if errResp.Code != "DEVICE_LIMIT" {
		t.Errorf("Code = %q, want DEVICE_LIMIT", errResp.Code)
	}
}

func TestDeviceHandler_List_Success(t *testing.T) {
	svc := &mockDeviceService{
		listFn: func(ctx context.Context, userID string) ([]*model.Device, error) {
			return []*model.Device{
				{ID: "device-1", Name: "iPhone"},
				{ID: "device-2", Name: "iPad"},
			}, nil
		},
	}
	h := NewDeviceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp listDevicesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Devices) != 2 {
		t.Errorf("len(devices) = %d, want 2", len(resp.Devices))
	}
}

func TestDeviceHandler_Remove_Success(t *testing.T) {
	var removedID string
	svc := &mockDeviceService{
		removeFn: func(ctx context.Context, userID, deviceID string) error {
			removedID = deviceID
			return nil
		},
	}
	h := NewDeviceHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/devices/device-1", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("deviceID", "device-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Remove(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if removedID != "device-1" {
		t.Errorf("removedID = %q", removedID)
	}
}

func TestDeviceHandler_Remove_NotFound(t *testing.T) {
	svc := &mockDeviceService{
		removeFn: func(ctx context.Context, userID, deviceID string) error {
			return model.NewDeviceNotFoundError(deviceID)
		},
	}
	h := NewDeviceHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/devices/unknown", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("deviceID", "unknown")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Remove(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
