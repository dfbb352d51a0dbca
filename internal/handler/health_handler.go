package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker はヘルスチェック対象のインターフェース。
// database/sqlのDBがそのまま実装を満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// healthResponse はヘルスチェックAPIのレスポンスボディ。
type healthResponse struct {
	Status string `json:"status"`
}

// Check はデータベース接続を確認し、稼働状態を返す。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, healthResponse{Status: "ok"})
}
