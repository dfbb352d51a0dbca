package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mediaman/internal/middleware"
	"github.com/hitoshi/mediaman/internal/model"
)

// deviceIDHeader は再生系APIで端末を識別するリクエストヘッダー。
const deviceIDHeader = "X-Device-ID"

// MediaServiceInterface はメディアカタログサービスのインターフェース。
type MediaServiceInterface interface {
	ListItems(ctx context.Context, userID string) ([]model.Item, error)
	SearchByTag(ctx context.Context, userID, tag string) ([]model.TaggedVideo, error)
	GetPlaybackInfo(ctx context.Context, userID string, videoID int64) (*model.PlaybackInfo, error)
	RemoveLicense(ctx context.Context, userID string, videoID int64) error
}

// CoverServiceInterface はカバー画像取得サービスのインターフェース。
type CoverServiceInterface interface {
	FetchCoverForVideo(ctx context.Context, userID string, videoID int64) ([]byte, string, error)
}

// DeviceBindingChecker は端末バインディング検証のインターフェース。
type DeviceBindingChecker interface {
	CheckBinding(ctx context.Context, userID, deviceID string) error
}

// MediaHandler はメディアカタログと再生関連のHTTPハンドラー。
type MediaHandler struct {
	mediaService  MediaServiceInterface
	coverService  CoverServiceInterface
	deviceChecker DeviceBindingChecker
}

// NewMediaHandler はMediaHandlerを生成する。
func NewMediaHandler(
	mediaService MediaServiceInterface,
	coverService CoverServiceInterface,
	deviceChecker DeviceBindingChecker,
) *MediaHandler {
	return &MediaHandler{
		mediaService:  mediaService,
		coverService:  coverService,
		deviceChecker: deviceChecker,
	}
}

// catalogEntry はカタログ項目を種別タグ付きで表すレスポンス要素。
// GroupとPlaylistとVideoが混在するため、typeで判別できるようにする。
type catalogEntry struct {
	Type model.ItemType `json:"type"`
	Item model.Item     `json:"item"`
}

// listMediaResponse はメディア一覧APIのレスポンスボディ。
type listMediaResponse struct {
	Items []catalogEntry `json:"items"`
}

// searchResponse はタグ検索APIのレスポンスボディ。
type searchResponse struct {
	Videos []model.TaggedVideo `json:"videos"`
}

// ListMedia はユーザーの視聴可能なメディアカタログを返す。
// GET /api/media
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	items, err := h.mediaService.ListItems(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entries := make([]catalogEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, catalogEntry{Type: item.ItemType(), Item: item})
	}

	writeJSONResponse(w, http.StatusOK, listMediaResponse{Items: entries})
}

// SearchMedia はタグに一致するビデオを検索する。
// GET /api/media/search?tag=xxx
func (h *MediaHandler) SearchMedia(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "検索タグが指定されていません。",
			Category: "validation",
			Action:   "tagクエリパラメータを指定してください。",
		})
		return
	}

	videos, err := h.mediaService.SearchByTag(r.Context(), userID, tag)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, searchResponse{Videos: videos})
}

// Playback は登録済み端末からの要求に対してDRM再生情報を発行する。
// POST /api/videos/{videoID}/playback
func (h *MediaHandler) Playback(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	videoID, err := parseVideoID(r)
	if err != nil {
		writeInvalidVideoIDResponse(w)
		return
	}

	// 未登録端末からの再生要求は拒否する
	deviceID := r.Header.Get(deviceIDHeader)
	if err := h.deviceChecker.CheckBinding(r.Context(), userID, deviceID); err != nil {
		handleServiceError(w, err)
		return
	}

	info, err := h.mediaService.GetPlaybackInfo(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, info)
}

// RemoveLicense は端末上のオフラインライセンス削除を受け付ける。
// DELETE /api/videos/{videoID}/license
func (h *MediaHandler) RemoveLicense(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	videoID, err := parseVideoID(r)
	if err != nil {
		writeInvalidVideoIDResponse(w)
		return
	}

	if err := h.mediaService.RemoveLicense(r.Context(), userID, videoID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cover はビデオのカバー画像をプロキシ取得して返す。
// GET /api/videos/{videoID}/cover
func (h *MediaHandler) Cover(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	videoID, err := parseVideoID(r)
	if err != nil {
		writeInvalidVideoIDResponse(w)
		return
	}

	data, contentType, err := h.coverService.FetchCoverForVideo(r.Context(), userID, videoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseVideoID はURLパスパラメータからビデオIDを取得する。
func parseVideoID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "videoID"), 10, 64)
}

// writeInvalidVideoIDResponse はビデオID不正エラーのレスポンスを書き込む。
func writeInvalidVideoIDResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "ビデオIDの形式が正しくありません。",
		Category: "validation",
		Action:   "正しいビデオIDを指定してください。",
	})
}
