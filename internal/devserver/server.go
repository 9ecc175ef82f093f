// Package devserver is an in-memory implementation of the playground API
// for local development and integration tests.
//
// It speaks the exact REST surface the client consumes — same paths, same
// {status, message, data} envelope, same field names — but holds everything
// in memory and simulates code execution instead of running a sandbox.
// cmd/devserver serves it on a port; the test suites mount it on
// httptest.Server.
package devserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/sakif/playground-cli/internal/model"
)

// Config holds dev server configuration.
type Config struct {
	// JWTSecret signs access tokens. Any string of 16+ characters works for
	// development.
	JWTSecret string

	// BcryptCost lets tests drop to the bcrypt minimum (4) so signup doesn't
	// dominate the test run. Zero means the production default.
	BcryptCost int
}

// userRecord is an account plus its password hash. The hash never leaves
// this package.
type userRecord struct {
	model.User
	passwordHash string
}

// snippetRecord is a stored snippet plus its owner.
type snippetRecord struct {
	model.Snippet
	ownerID string
}

// Server is the in-memory playground API.
//
// STATE LAYOUT:
// Everything lives behind one mutex. snippetOrder preserves creation order
// (the list endpoint returns insertion order, never re-sorted) and history
// is newest-first per user, which is the order the history endpoint pages
// through.
type Server struct {
	router *chi.Mux
	logger *slog.Logger
	tokens *tokenService
	pwd    *passwordService
	clock  clockwork.Clock

	mu           sync.Mutex
	users        map[string]*userRecord // by id
	usersByEmail map[string]*userRecord
	snippets     map[string]*snippetRecord
	snippetOrder []string          // snippet ids, creation order
	shareTokens  map[string]string // share token → snippet id
	history      map[string][]model.ExecutionRecord
}

// New assembles the server: token service, password service, routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	return NewWithClock(cfg, logger, clockwork.NewRealClock())
}

// NewWithClock is New with an injectable clock, so tests control the
// timestamps stamped onto entities and history records.
func NewWithClock(cfg Config, logger *slog.Logger, clock clockwork.Clock) (*Server, error) {
	tokens, err := newTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger,
		tokens:       tokens,
		pwd:          newPasswordService(cfg.BcryptCost),
		clock:        clock,
		users:        make(map[string]*userRecord),
		usersByEmail: make(map[string]*userRecord),
		snippets:     make(map[string]*snippetRecord),
		shareTokens:  make(map[string]string),
		history:      make(map[string][]model.ExecutionRecord),
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the root http.Handler, ready for http.Server or
// httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes wires the REST surface.
//
//	POST   /api/auth/signup          → create account, issue token
//	POST   /api/auth/signin          → verify password, issue token
//	GET    /api/auth/profile         → current user (auth required)
//	POST   /api/execute              → run code (auth optional)
//	GET    /api/execute/history      → paged records (auth required)
//	GET    /api/execute/stats        → aggregate (auth required)
//	GET    /api/snippets             → own snippets (auth required)
//	POST   /api/snippets             → create (auth required)
//	PUT    /api/snippets/{id}        → full-field update (auth required)
//	DELETE /api/snippets/{id}        → delete (auth required)
//	GET    /api/snippets/share/{tok} → public share lookup (no auth)
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/signin", s.handleSignIn)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/profile", s.handleProfile)
			r.Get("/execute/history", s.handleHistory)
			r.Get("/execute/stats", s.handleStats)
			r.Get("/snippets", s.handleListSnippets)
			r.Post("/snippets", s.handleCreateSnippet)
			r.Put("/snippets/{id}", s.handleUpdateSnippet)
			r.Delete("/snippets/{id}", s.handleDeleteSnippet)
		})

		// Execution accepts anonymous callers (shared views run without a
		// session); runs are only recorded for authenticated users.
		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuth)
			r.Post("/execute", s.handleExecute)
		})

		r.Get("/snippets/share/{token}", s.handleShareLookup)
	})
}
