package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// NewsServiceInterface はお知らせサービスのインターフェース。
type NewsServiceInterface interface {
	ListAnnouncements(ctx context.Context, limit int) ([]*model.Announcement, error)
}

// NewsHandler はお知らせ配信のHTTPハンドラー。
type NewsHandler struct {
	newsService NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(newsService NewsServiceInterface) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

// announcementResponse はお知らせ記事のレスポンス。
type announcementResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link,omitempty"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// listNewsResponse はお知らせ一覧APIのレスポンスボディ。
type listNewsResponse struct {
	Announcements []announcementResponse `json:"announcements"`
}

// List は最近のお知らせ記事を新しい順に返す。
// GET /api/news?limit=20
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "limitの形式が正しくありません。",
				Category: "validation",
				Action:   "limitには0以上の整数を指定してください。",
			})
			return
		}
		limit = parsed
	}

	announcements, err := h.newsService.ListAnnouncements(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]announcementResponse, 0, len(announcements))
	for _, a := range announcements {
		responses = append(responses, announcementResponse{
			ID:          a.ID,
			Title:       a.Title,
			Link:        a.Link,
			Body:        a.Body,
			PublishedAt: a.PublishedAt,
			FetchedAt:   a.FetchedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, listNewsResponse{Announcements: responses})
}
