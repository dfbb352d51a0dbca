package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/mediaman/internal/middleware"
)

// PinServiceInterface はPIN管理サービスのインターフェース。
type PinServiceInterface interface {
	Set(ctx context.Context, userID, pin string) error
	Verify(ctx context.Context, userID, pin string) error
	Clear(ctx context.Context, userID string) error
}

// PinHandler はPIN管理のHTTPハンドラー。
type PinHandler struct {
	pinService PinServiceInterface
}

// NewPinHandler はPinHandlerを生成する。
func NewPinHandler(pinService PinServiceInterface) *PinHandler {
	return &PinHandler{pinService: pinService}
}

// pinRequest はPIN設定・検証APIのリクエストボディ。
type pinRequest struct {
	Pin string `json:"pin"`
}

// verifyPinResponse はPIN検証成功時のレスポンスボディ。
type verifyPinResponse struct {
	Verified bool `json:"verified"`
}

// Set はPINコードを設定する。
// PUT /api/pin
func (h *PinHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	if err := h.pinService.Set(r.Context(), userID, req.Pin); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Verify はPINコードを検証する。
// POST /api/pin/verify
func (h *PinHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	if err := h.pinService.Verify(r.Context(), userID, req.Pin); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, verifyPinResponse{Verified: true})
}

// Clear はPINコードを削除する。
// DELETE /api/pin
func (h *PinHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	if err := h.pinService.Clear(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
