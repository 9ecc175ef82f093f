package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/playground-cli/internal/model"
)

// tokenService issues and validates the HS256 access tokens the dev server
// hands out on signup/signin.
type tokenService struct {
	secret []byte
}

const tokenIssuer = "playground-devserver"

// tokenLifetime is generous for a dev tool: nobody wants to re-login every
// 15 minutes while poking at the CLI.
const tokenLifetime = 24 * time.Hour

func newTokenService(secret string) (*tokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("devserver: JWT secret must be at least 16 characters")
	}
	return &tokenService{secret: []byte(secret)}, nil
}

// generate signs a token whose subject is the user id.
func (t *tokenService) generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		Issuer:    tokenIssuer,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("devserver: signing token: %w", err)
	}
	return signed, nil
}

// validate verifies signature, expiry, and issuer, and returns the user id.
// Pinning the method list blocks algorithm-confusion tokens.
func (t *tokenService) validate(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("devserver: unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("devserver: invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("devserver: invalid token claims")
	}
	return claims.Subject, nil
}

// passwordService wraps bcrypt so tests can drop the cost to the minimum.
type passwordService struct {
	cost int
}

func newPasswordService(cost int) *passwordService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &passwordService{cost: cost}
}

func (p *passwordService) hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates past 72 bytes; reject instead.
		return "", errors.New("devserver: password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("devserver: hashing password: %w", err)
	}
	return string(hashed), nil
}

func (p *passwordService) verify(hash, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// contextKey keeps our context values private to this package.
type contextKey string

const userIDKey contextKey = "userID"

// bearerToken pulls the token out of the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.tokens.validate(bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches the identity when a valid token is present but
// never blocks. The execute endpoint uses this: anonymous runs are allowed,
// they just aren't recorded.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := s.tokens.validate(bearerToken(r)); err == nil && userID != "" {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleSignUp creates an account and logs it in.
//
// HTTP: POST /api/auth/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	case req.Email == "":
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	case len(req.Password) < 6:
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	hash, err := s.pwd.hash(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if _, exists := s.usersByEmail[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	user := &userRecord{
		User: model.User{
			ID:        xid.New().String(),
			Username:  req.Username,
			Email:     req.Email,
			CreatedAt: s.clock.Now().UTC(),
		},
		passwordHash: hash,
	}
	s.users[user.ID] = user
	s.usersByEmail[user.Email] = user
	s.mu.Unlock()

	token, err := s.tokens.generate(user.ID)
	if err != nil {
		s.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.Info("user signed up", slog.String("username", user.Username))
	writeSuccess(w, http.StatusCreated, map[string]any{
		"user":  user.User,
		"token": token,
	})
}

// handleSignIn verifies credentials and issues a token.
//
// HTTP: POST /api/auth/signin
//
// Unknown email and wrong password both answer the same 401 — no account
// enumeration.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()

	if !ok || s.pwd.verify(user.passwordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.generate(user.ID)
	if err != nil {
		s.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.Info("user signed in", slog.String("username", user.Username))
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":  user.User,
		"token": token,
	})
}

// handleProfile returns the authenticated user.
//
// HTTP: GET /api/auth/profile
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	user, ok := s.users[userID]
	s.mu.Unlock()

	if !ok {
		// Token subject points at a deleted account; treat as unauthenticated.
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": user.User})
}
