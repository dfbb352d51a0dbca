package drm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/mediaman/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRequestOTP_Success(t *testing.T) {
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-Api-Key")
		if r.Method != http.MethodPost || r.URL.Path != "/v1/otp" {
			t.Errorf("request = %s %s, want POST /v1/otp", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"otp": "otp-abc", "playbackInfo": "pb-payload", "expiresIn": 300}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.Client(), testLogger(), server.URL, "drm-key")

	info, err := provider.RequestOTP(context.Background(), 42)
	if err != nil {
		t.Fatalf("RequestOTP returned error: %v", err)
	}

	if gotAPIKey != "drm-key" {
		t.Errorf("X-Api-Key = %q, want %q", gotAPIKey, "drm-key")
	}
	if info.VideoID != 42 {
		t.Errorf("VideoID = %d, want 42", info.VideoID)
	}
	if info.OTP != "otp-abc" {
		t.Errorf("OTP = %q, want %q", info.OTP, "otp-abc")
	}
	if info.Payload != "pb-payload" {
		t.Errorf("Payload = %q, want %q", info.Payload, "pb-payload")
	}
	if info.ExpiresIn != 300 {
		t.Errorf("ExpiresIn = %d, want 300", info.ExpiresIn)
	}
}

func TestRequestOTP_VendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.Client(), testLogger(), server.URL, "drm-key")

	_, err := provider.RequestOTP(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeDRMUnavailable {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDRMUnavailable)
	}
}

func TestRemoveLicense_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v1/licenses/42" {
			t.Errorf("request = %s %s, want DELETE /v1/licenses/42", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.Client(), testLogger(), server.URL, "drm-key")

	if err := provider.RemoveLicense(context.Background(), 42); err != nil {
		t.Fatalf("RemoveLicense returned error: %v", err)
	}
}

// ライセンスが既に存在しない場合（404）も成功として扱う
func TestRemoveLicense_NotFound_TreatedAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.Client(), testLogger(), server.URL, "drm-key")

	if err := provider.RemoveLicense(context.Background(), 42); err != nil {
		t.Fatalf("RemoveLicense returned error for 404: %v", err)
	}
}
