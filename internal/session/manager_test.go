package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/sakif/playground-cli/internal/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memoryStore is an in-memory TokenStore for tests.
type memoryStore struct {
	token  string
	saves  int
	clears int
}

func (m *memoryStore) Token() (string, error) { return m.token, nil }

func (m *memoryStore) Save(token string) error {
	m.token = token
	m.saves++
	return nil
}

func (m *memoryStore) Clear() error {
	m.token = ""
	m.clears++
	return nil
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func TestInitialize_NoPersistedToken(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	m := NewManager(srv.URL, &memoryStore{}, testLogger())
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := m.Current().Status; got != StatusAnonymous {
		t.Errorf("status = %v, want anonymous", got)
	}
	if requests != 0 {
		t.Errorf("made %d requests, want 0 without a token", requests)
	}
}

func TestInitialize_RestoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer persisted-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"status":"success","data":{"user":{"id":"u1","username":"ada","email":"ada@example.com"}}}`))
	}))
	defer srv.Close()

	store := &memoryStore{token: "persisted-token"}
	m := NewManager(srv.URL, store, testLogger())
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	snap := m.Current()
	if snap.Status != StatusAuthenticated {
		t.Fatalf("status = %v, want authenticated", snap.Status)
	}
	if snap.User.Username != "ada" {
		t.Errorf("username = %q, want ada", snap.User.Username)
	}
	if m.Token() != "persisted-token" {
		t.Errorf("Token() = %q, want the restored token", m.Token())
	}
}

func TestInitialize_ExpiredTokenSkipsNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	store := &memoryStore{token: signedToken(t, now.Add(-time.Hour))}

	m := NewManagerWithClock(srv.URL, store, testLogger(), clock)
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if requests != 0 {
		t.Errorf("made %d requests, want 0 for a visibly expired token", requests)
	}
	if got := m.Current().Status; got != StatusAnonymous {
		t.Errorf("status = %v, want anonymous", got)
	}
	if store.clears == 0 {
		t.Error("expired token should be cleared from the store")
	}
}

func TestInitialize_RejectedTokenEndsAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"Authentication required"}`))
	}))
	defer srv.Close()

	store := &memoryStore{token: "stale-token"}
	m := NewManager(srv.URL, store, testLogger())
	// A rejected token is not a startup failure: the client just begins
	// signed out.
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := m.Current().Status; got != StatusAnonymous {
		t.Errorf("status = %v, want anonymous", got)
	}
	if store.token != "" {
		t.Error("rejected token should be cleared so the next run skips it")
	}
	if m.Token() != "" {
		t.Errorf("Token() = %q, want empty after reset", m.Token())
	}
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/signin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"user":{"id":"u1","username":"ada","email":"ada@example.com"},"token":"fresh-token"}}`))
	}))
	defer srv.Close()

	store := &memoryStore{}
	m := NewManager(srv.URL, store, testLogger())

	user, err := m.Login(context.Background(), Credentials{Email: "ada@example.com", Password: "hunter2"}, false)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Username != "ada" {
		t.Errorf("username = %q", user.Username)
	}
	if m.Current().Status != StatusAuthenticated {
		t.Errorf("status = %v, want authenticated", m.Current().Status)
	}
	if m.Token() != "fresh-token" {
		t.Errorf("Token() = %q, want the issued token", m.Token())
	}
	if store.token != "fresh-token" {
		t.Error("issued token should be persisted")
	}
}

func TestLogin_ValidationFailsWithoutNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	m := NewManager(srv.URL, &memoryStore{}, testLogger())
	_, err := m.Login(context.Background(), Credentials{Email: "not-an-email", Password: ""}, false)

	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error = %T, want FieldErrors", err)
	}
	if fieldErrs["email"] != "Please enter a valid email" {
		t.Errorf("email error = %q", fieldErrs["email"])
	}
	if fieldErrs["password"] != "Password is required" {
		t.Errorf("password error = %q", fieldErrs["password"])
	}
	if requests != 0 {
		t.Errorf("made %d requests, want 0 on validation failure", requests)
	}
}

func TestLogin_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		signUp  bool
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "signup conflict",
			signUp:  true,
			status:  http.StatusConflict,
			body:    `{"status":"error","message":"User already exists"}`,
			wantMsg: "User already exists. Please sign in instead.",
		},
		{
			name:    "signin bad credentials",
			status:  http.StatusUnauthorized,
			body:    `{"status":"error","message":"Invalid credentials"}`,
			wantMsg: "Invalid credentials. Please check your email and password.",
		},
		{
			name:    "server detail passes through",
			status:  http.StatusInternalServerError,
			body:    `{"status":"error","message":"Database unavailable"}`,
			wantMsg: "Database unavailable",
		},
		{
			name:    "opaque failure gets the generic message",
			status:  http.StatusBadGateway,
			body:    `<html>nope</html>`,
			wantMsg: "Authentication failed. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m := NewManager(srv.URL, &memoryStore{}, testLogger())
			creds := Credentials{Username: "ada", Email: "ada@example.com", Password: "hunter2"}
			_, err := m.Login(context.Background(), creds, tt.signUp)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := apperror.MessageOf(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if m.Current().Status != StatusFailed {
				t.Errorf("status = %v, want failed", m.Current().Status)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"user":{"id":"u1","username":"ada","email":"a@b.com"},"token":"tok"}}`))
	}))
	defer srv.Close()

	store := &memoryStore{}
	m := NewManager(srv.URL, store, testLogger())
	m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "hunter2"}, false)

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %v, want anonymous", m.Current().Status)
	}
	if m.Token() != "" {
		t.Error("Token() should be empty after logout")
	}
	if store.token != "" {
		t.Error("persisted token should be cleared on logout")
	}

	// Logging out twice is fine.
	if err := m.Logout(); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestEscalateAuthError(t *testing.T) {
	store := &memoryStore{token: "tok"}
	m := NewManager("http://unused", store, testLogger())
	m.setToken("tok")
	m.setStatus(StatusAuthenticated)

	if m.EscalateAuthError(apperror.Transport("net down", errors.New("refused"))) {
		t.Error("transport errors should not reset the session")
	}
	if m.Current().Status != StatusAuthenticated {
		t.Error("session should survive a non-auth error")
	}

	if !m.EscalateAuthError(apperror.Unauthorized("")) {
		t.Error("auth errors should reset the session")
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %v, want anonymous after escalation", m.Current().Status)
	}
	if store.token != "" {
		t.Error("escalation should clear the persisted token")
	}
}
