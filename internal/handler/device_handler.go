package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mediaman/internal/middleware"
	"github.com/hitoshi/mediaman/internal/model"
)

// DeviceServiceInterface は端末管理サービスのインターフェース。
type DeviceServiceInterface interface {
	Register(ctx context.Context, userID, name, platform string) (*model.Device, error)
	List(ctx context.Context, userID string) ([]*model.Device, error)
	Remove(ctx context.Context, userID, deviceID string) error
}

// DeviceHandler は端末管理のHTTPハンドラー。
type DeviceHandler struct {
	deviceService DeviceServiceInterface
}

// NewDeviceHandler はDeviceHandlerを生成する。
func NewDeviceHandler(deviceService DeviceServiceInterface) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// registerDeviceRequest は端末登録APIのリクエストボディ。
type registerDeviceRequest struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// deviceResponse は端末情報のレスポンス。
type deviceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// listDevicesResponse は端末一覧APIのレスポンスボディ。
type listDevicesResponse struct {
	Devices []deviceResponse `json:"devices"`
}

func toDeviceResponse(d *model.Device) deviceResponse {
	return deviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		Platform:   d.Platform,
		LastSeenAt: d.LastSeenAt,
		CreatedAt:  d.CreatedAt,
	}
}

// Register は端末を登録する。
// POST /api/devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "端末名は必須です。",
			Category: "validation",
			Action:   "端末名を指定してください。",
		})
		return
	}

	device, err := h.deviceService.Register(r.Context(), userID, req.Name, req.Platform)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toDeviceResponse(device))
}

// List はユーザーの登録端末一覧を返す。
// GET /api/devices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	devices, err := h.deviceService.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		responses = append(responses, toDeviceResponse(d))
	}

	writeJSONResponse(w, http.StatusOK, listDevicesResponse{Devices: responses})
}

// Remove は端末の登録を解除する。
// DELETE /api/devices/{deviceID}
func (h *DeviceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	if err := h.deviceService.Remove(r.Context(), userID, deviceID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
