package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mediaman/internal/middleware"
)

// UserServiceInterface はユーザー管理サービスのインターフェース。
type UserServiceInterface interface {
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	userService UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// Withdraw は退会処理を行い、ユーザーと関連データを削除する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	if err := h.userService.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
