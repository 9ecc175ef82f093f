// Package session owns the identity lifecycle: the authenticated user, the
// bearer token, and the status transitions between them.
//
// STATE MACHINE:
//
//	Anonymous → Authenticating → Authenticated   (initialize/login success)
//	Anonymous → Authenticating → Anonymous       (initialize failure: bad or
//	                                              expired persisted token)
//	Anonymous → Authenticating → Failed          (login rejected)
//	Authenticated → Anonymous                    (logout, or a 401 observed
//	                                              anywhere and escalated here)
//
// The manager is the single writer of the token. It implements
// api.TokenSource, so every outbound request re-reads the current token at
// send time — a call issued after Logout goes out without a credential, no
// matter when the caller was constructed.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/apperror"
	"github.com/sakif/playground-cli/internal/model"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusFailed         Status = "failed"
)

// TokenStore persists the token across runs. credential.Store is the real
// implementation; tests use an in-memory fake.
type TokenStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

// Snapshot is a read-only copy of the current session for display.
type Snapshot struct {
	Status Status
	User   *model.User
}

// Manager owns the session. Exactly one Manager exists per client instance.
type Manager struct {
	client  *api.Client
	persist TokenStore
	logger  *slog.Logger
	clock   clockwork.Clock

	mu     sync.Mutex
	status Status
	user   *model.User
	token  string
}

// NewManager creates the Manager and the base API client it feeds tokens to.
// Other components get their client via Client().
func NewManager(baseURL string, persist TokenStore, logger *slog.Logger) *Manager {
	return NewManagerWithClock(baseURL, persist, logger, clockwork.NewRealClock())
}

// NewManagerWithClock is NewManager with an injectable clock for tests.
func NewManagerWithClock(baseURL string, persist TokenStore, logger *slog.Logger, clock clockwork.Clock) *Manager {
	m := &Manager{
		persist: persist,
		logger:  logger,
		clock:   clock,
		status:  StatusAnonymous,
	}
	m.client = api.New(baseURL, m, logger)
	return m
}

// Client returns the API client bound to this session's token.
func (m *Manager) Client() *api.Client { return m.client }

// Token implements api.TokenSource. Returns "" when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Current returns a snapshot of the session for display.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, User: m.user}
}

// profileData is the payload of GET /api/auth/profile.
type profileData struct {
	User *model.User `json:"user"`
}

// authData is the payload of the signup/signin endpoints.
type authData struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Initialize establishes identity from the persisted token, if any. It must
// complete before anything renders an authenticated view — callers block on
// it once at startup.
//
// A persisted token that is visibly expired (its JWT exp claim is in the
// past) is discarded without a network call. Any other failure — network,
// 401, malformed response — also ends Anonymous with the token cleared, so
// a broken credential can't wedge the client.
func (m *Manager) Initialize(ctx context.Context) error {
	token, err := m.persist.Token()
	if err != nil {
		return fmt.Errorf("session: reading persisted token: %w", err)
	}
	if token == "" {
		m.setAnonymous()
		return nil
	}

	if m.tokenExpired(token) {
		m.logger.Info("persisted token expired, starting anonymous")
		m.clearAll()
		return nil
	}

	m.setStatus(StatusAuthenticating)
	m.setToken(token)

	var data profileData
	if err := m.client.Get(ctx, "/api/auth/profile", &data); err != nil || data.User == nil {
		if err != nil {
			m.logger.Warn("profile fetch failed, starting anonymous",
				slog.String("error", err.Error()))
		}
		m.clearAll()
		return nil
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = data.User
	m.mu.Unlock()

	m.logger.Info("session restored", slog.String("username", data.User.Username))
	return nil
}

// Credentials is the login/sign-up form input.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// Login validates the credentials locally and, if they pass, calls the
// sign-up or sign-in endpoint. Validation failures return FieldErrors and
// make no network call.
//
// Remote failures are translated to the messages the product shows:
// 409 → already exists (sign-up only), 401 → invalid credentials, anything
// else → the server's message if it sent one, a generic otherwise.
func (m *Manager) Login(ctx context.Context, creds Credentials, signUp bool) (*model.User, error) {
	if fieldErrs := Validate(creds, signUp); len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	m.setStatus(StatusAuthenticating)

	endpoint := "/api/auth/signin"
	payload := map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}
	if signUp {
		endpoint = "/api/auth/signup"
		payload["username"] = creds.Username
	}

	var data authData
	if err := m.client.Post(ctx, endpoint, payload, &data); err != nil {
		m.setStatus(StatusFailed)
		return nil, loginError(err, signUp)
	}
	if data.User == nil || data.Token == "" {
		m.setStatus(StatusFailed)
		return nil, apperror.Transport("Authentication failed. Please try again.", nil)
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = data.User
	m.token = data.Token
	m.mu.Unlock()

	if err := m.persist.Save(data.Token); err != nil {
		// The session is live either way; persistence only affects the next run.
		m.logger.Warn("failed to persist token", slog.String("error", err.Error()))
	}

	m.logger.Info("logged in",
		slog.String("username", data.User.Username),
		slog.Bool("signup", signUp),
	)
	return data.User, nil
}

// Logout clears the in-memory session and the persisted token. Safe to call
// when already anonymous.
func (m *Manager) Logout() error {
	m.clearAll()
	m.logger.Info("logged out")
	return nil
}

// EscalateAuthError is how other components report a 401. If err is an auth
// error the session is force-reset and true is returned; any other error is
// left alone.
func (m *Manager) EscalateAuthError(err error) bool {
	if !errors.Is(err, apperror.ErrAuth) {
		return false
	}
	m.logger.Warn("authentication rejected by server, resetting session")
	m.clearAll()
	return true
}

// tokenExpired reports whether token is a JWT whose exp claim is in the
// past. Parsing is unverified — the client has no signing secret and doesn't
// need one to read a timestamp. Opaque or malformed tokens report false and
// get settled by the profile fetch instead.
func (m *Manager) tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(m.clock.Now())
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	m.status = StatusAnonymous
	m.user = nil
	m.token = ""
	m.mu.Unlock()
}

func (m *Manager) clearAll() {
	m.setAnonymous()
	if err := m.persist.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted token", slog.String("error", err.Error()))
	}
}

// loginError maps an API error onto the message the auth form shows.
func loginError(err error, signUp bool) error {
	switch {
	case errors.Is(err, apperror.ErrConflict) && signUp:
		return apperror.Conflict("User already exists. Please sign in instead.")
	case errors.Is(err, apperror.ErrAuth):
		return apperror.Unauthorized("Invalid credentials. Please check your email and password.")
	default:
		if msg := apperror.MessageOf(err); msg != "" && msg != "request failed" {
			return apperror.Transport(msg, err)
		}
		return apperror.Transport("Authentication failed. Please try again.", err)
	}
}
