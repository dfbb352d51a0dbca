package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mediaman/internal/catalog"
	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/security"
)

// allowAllGuard はテスト用のSSRFガード（検証を通過させる）。
type allowAllGuard struct{}

func (allowAllGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (allowAllGuard) ValidateURL(rawURL string) error { return nil }

// blockAllGuard はテスト用のSSRFガード（すべてブロックする）。
type blockAllGuard struct{}

func (blockAllGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (blockAllGuard) ValidateURL(rawURL string) error {
	return errors.New("blocked")
}

func coverAccessResponse(coverURL string) *catalog.AccessResponse {
	return &catalog.AccessResponse{
		Videos: []catalog.VideoEnvelope{
			{
				Content:        catalog.RawVideo{ID: 7, Title: "単体ビデオ", CoverImgURL: coverURL},
				ExpirationDate: "2099-01-01T00:00:00Z",
				Type:           "VIDEO",
			},
		},
	}
}

func newTestCoverFetcher(rights GrantsFetcher, guard security.SSRFGuardService) *CoverFetcher {
	f := NewCoverFetcher(rights, guard, testLogger(), 1024*1024, 5*time.Second)
	f.nowFn = func() time.Time { return testNow }
	return f
}

func TestFetchCoverForVideo_Success(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer imageServer.Close()

	rights := &mockRights{
		fetchGrantsFn: func(ctx context.Context, userID string) (*catalog.AccessResponse, error) {
			return coverAccessResponse(imageServer.URL + "/cover.jpg"), nil
		},
	}
	fetcher := newTestCoverFetcher(rights, allowAllGuard{})

	data, mimeType, err := fetcher.FetchCoverForVideo(context.Background(), "user-1", 7)
	if err != nil {
		t.Fatalf("FetchCoverForVideo returned error: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("data = %q", data)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mimeType)
	}
}

func TestFetchCoverForVideo_UnknownVideo_ReturnsNotFound(t *testing.T) {
	rights := &mockRights{
		fetchGrantsFn: func(ctx context.Context, userID string) (*catalog.AccessResponse, error) {
			return coverAccessResponse("https://cdn.example.com/7.jpg"), nil
		},
	}
	fetcher := newTestCoverFetcher(rights, allowAllGuard{})

	_, _, err := fetcher.FetchCoverForVideo(context.Background(), "user-1", 999)
	if err == nil {
		t.Fatal("expected error for unknown video")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeVideoNotFound {
		t.Errorf("err = %v, want VIDEO_NOT_FOUND", err)
	}
}

func TestFetchCoverForVideo_SSRFBlocked_ReturnsFetchFailed(t *testing.T) {
	rights := &mockRights{
		fetchGrantsFn: func(ctx context.Context, userID string) (*catalog.AccessResponse, error) {
			return coverAccessResponse("http://169.254.169.254/latest"), nil
		},
	}
	fetcher := newTestCoverFetcher(rights, blockAllGuard{})

	_, _, err := fetcher.FetchCoverForVideo(context.Background(), "user-1", 7)
	if err == nil {
		t.Fatal("expected error when SSRF guard blocks URL")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCoverFetchFailed {
		t.Errorf("err = %v, want COVER_FETCH_FAILED", err)
	}
}

// 画像以外のContent-Typeは失敗として扱う
func TestFetchCoverForVideo_NonImageContentType_ReturnsFetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	rights := &mockRights{
		fetchGrantsFn: func(ctx context.Context, userID string) (*catalog.AccessResponse, error) {
			return coverAccessResponse(server.URL + "/cover"), nil
		},
	}
	fetcher := newTestCoverFetcher(rights, allowAllGuard{})

	_, _, err := fetcher.FetchCoverForVideo(context.Background(), "user-1", 7)
	if err == nil {
		t.Fatal("expected error for non-image content type")
	}
}
