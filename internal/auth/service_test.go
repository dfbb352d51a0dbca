package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	deleteByIDFn  func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockPinRepo struct {
	resetFailuresFn func(ctx context.Context, userID string) error
}

func (m *mockPinRepo) FindByUserID(ctx context.Context, userID string) (*model.PinCredential, error) {
	return nil, nil
}

func (m *mockPinRepo) Upsert(ctx context.Context, cred *model.PinCredential) error { return nil }

func (m *mockPinRepo) RecordFailure(ctx context.Context, userID string, failedAt time.Time) error {
	return nil
}

func (m *mockPinRepo) ResetFailures(ctx context.Context, userID string) error {
	if m.resetFailuresFn != nil {
		return m.resetFailuresFn(ctx, userID)
	}
	return nil
}

func (m *mockPinRepo) DeleteByUserID(ctx context.Context, userID string) error { return nil }

// --- テスト ---

const testSecret = "test-token-secret-32bytes-long!!"

func testConfig() ServiceConfig {
	return ServiceConfig{
		SessionMaxAge: 86400,
		TokenSecret:   testSecret,
	}
}

func testUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &model.User{
		ID:           "user-1",
		Email:        "student@example.com",
		Name:         "受講 太郎",
		PasswordHash: hash,
	}
}

func TestLogin_Success(t *testing.T) {
	user := testUser(t, "correct-password")

	var createdSession *model.Session
	var pinReset bool

	svc := NewService(
		&mockUserRepo{
			findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
				if email != user.Email {
					t.Errorf("email = %q, want %q", email, user.Email)
				}
				return user, nil
			},
		},
		&mockSessionRepo{
			createFn: func(ctx context.Context, session *model.Session) error {
				createdSession = session
				return nil
			},
		},
		&mockPinRepo{
			resetFailuresFn: func(ctx context.Context, userID string) error {
				pinReset = true
				return nil
			},
		},
		testConfig(),
	)

	result, err := svc.Login(context.Background(), user.Email, "correct-password")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if result.User.ID != user.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, user.ID)
	}
	if createdSession == nil {
		t.Fatal("session was not persisted")
	}
	if createdSession.UserID != user.ID {
		t.Errorf("session.UserID = %q, want %q", createdSession.UserID, user.ID)
	}
	if !pinReset {
		t.Error("PIN failures should be reset on successful login")
	}

	// アクセストークンのsubjectはセッションID
	sessionID, err := ValidateToken(testSecret, result.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if sessionID != createdSession.ID {
		t.Errorf("token subject = %q, want session id %q", sessionID, createdSession.ID)
	}
}

func TestLogin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	user := testUser(t, "correct-password")

	svc := NewService(
		&mockUserRepo{
			findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
				return user, nil
			},
		},
		&mockSessionRepo{},
		&mockPinRepo{},
		testConfig(),
	)

	_, err := svc.Login(context.Background(), user.Email, "wrong-password")
	if err == nil {
		t.Fatal("expected error for wrong password")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("err = %v, want INVALID_CREDENTIALS", err)
	}
}

// 未登録メールアドレスもパスワード不一致と同じエラーを返す（存在有無を漏らさない）
func TestLogin_UnknownEmail_ReturnsSameError(t *testing.T) {
	svc := NewService(
		&mockUserRepo{
			findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, nil
			},
		},
		&mockSessionRepo{},
		&mockPinRepo{},
		testConfig(),
	)

	_, err := svc.Login(context.Background(), "nobody@example.com", "any")
	if err == nil {
		t.Fatal("expected error for unknown email")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("err = %v, want INVALID_CREDENTIALS", err)
	}
}

func TestLogin_SessionCreateFailure_ReturnsError(t *testing.T) {
	user := testUser(t, "correct-password")

	svc := NewService(
		&mockUserRepo{
			findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
				return user, nil
			},
		},
		&mockSessionRepo{
			createFn: func(ctx context.Context, session *model.Session) error {
				return errors.New("db down")
			},
		},
		&mockPinRepo{},
		testConfig(),
	)

	_, err := svc.Login(context.Background(), user.Email, "correct-password")
	if err == nil {
		t.Fatal("expected error when session creation fails")
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	svc := NewService(
		&mockUserRepo{},
		&mockSessionRepo{
			deleteByIDFn: func(ctx context.Context, id string) error {
				deletedID = id
				return nil
			},
		},
		&mockPinRepo{},
		testConfig(),
	)

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deletedID != "session-1" {
		t.Errorf("deleted session id = %q, want session-1", deletedID)
	}
}

func TestLogout_EmptySessionID_ReturnsError(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockPinRepo{}, testConfig())

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session ID")
	}
}

func TestGetCurrentUser_Success(t *testing.T) {
	user := testUser(t, "pw")
	svc := NewService(
		&mockUserRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				if id != "user-1" {
					t.Errorf("id = %q, want user-1", id)
				}
				return user, nil
			},
		},
		&mockSessionRepo{},
		&mockPinRepo{},
		testConfig(),
	)

	got, err := svc.GetCurrentUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("Email = %q, want %q", got.Email, user.Email)
	}
}

func TestGetCurrentUser_NotFound_ReturnsError(t *testing.T) {
	svc := NewService(
		&mockUserRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return nil, nil
			},
		},
		&mockSessionRepo{},
		&mockPinRepo{},
		testConfig(),
	)

	_, err := svc.GetCurrentUser(context.Background(), "user-x")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("err = %v, want USER_NOT_FOUND", err)
	}
}
