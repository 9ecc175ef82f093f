package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sakif/playground-cli/internal/model"
)

// createSnippetRequest matches what the create endpoint accepts. The create
// path takes camelCase isPublic.
type createSnippetRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	IsPublic    bool   `json:"isPublic"`
}

// updateSnippetRequest accepts the visibility flag under either key: the
// update endpoint historically reads is_public, but some clients send both
// spellings. Pointer fields so "absent" is distinguishable from "false".
type updateSnippetRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Code          string `json:"code"`
	IsPublic      *bool  `json:"isPublic"`
	IsPublicSnake *bool  `json:"is_public"`
}

func (r updateSnippetRequest) public() bool {
	if r.IsPublicSnake != nil {
		return *r.IsPublicSnake
	}
	if r.IsPublic != nil {
		return *r.IsPublic
	}
	return false
}

// handleListSnippets returns the caller's snippets in creation order.
//
// HTTP: GET /api/snippets
func (s *Server) handleListSnippets(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	owned := make([]model.Snippet, 0)
	for _, id := range s.snippetOrder {
		if rec, ok := s.snippets[id]; ok && rec.ownerID == userID {
			owned = append(owned, rec.Snippet)
		}
	}
	s.mu.Unlock()

	writeSuccess(w, http.StatusOK, map[string]any{"snippets": owned})
}

// handleCreateSnippet stores a new snippet and issues its share token.
// The token exists from birth — sharing is gated on knowing it, not on the
// public flag.
//
// HTTP: POST /api/snippets
func (s *Server) handleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req createSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	now := s.clock.Now().UTC()
	rec := &snippetRecord{
		Snippet: model.Snippet{
			ID:          xid.New().String(),
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Code:        req.Code,
			IsPublic:    req.IsPublic,
			ShareToken:  uuid.NewString(),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		ownerID: userID,
	}

	s.mu.Lock()
	s.snippets[rec.ID] = rec
	s.snippetOrder = append(s.snippetOrder, rec.ID)
	s.shareTokens[rec.ShareToken] = rec.ID
	s.mu.Unlock()

	s.logger.Info("snippet created",
		slog.String("id", rec.ID),
		slog.String("title", rec.Title),
	)
	writeSuccess(w, http.StatusCreated, map[string]any{"snippet": rec.Snippet})
}

// handleUpdateSnippet rewrites a snippet with the full field set. There is
// no patch semantics: what the body says is what the snippet becomes.
//
// HTTP: PUT /api/snippets/{id}
func (s *Server) handleUpdateSnippet(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	s.mu.Lock()
	rec, ok := s.snippets[id]
	if !ok || rec.ownerID != userID {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Snippet not found")
		return
	}
	rec.Title = strings.TrimSpace(req.Title)
	rec.Description = strings.TrimSpace(req.Description)
	rec.Code = req.Code
	rec.IsPublic = req.public()
	rec.UpdatedAt = s.clock.Now().UTC()
	updated := rec.Snippet
	s.mu.Unlock()

	s.logger.Info("snippet updated", slog.String("id", id))
	writeSuccess(w, http.StatusOK, map[string]any{"snippet": updated})
}

// handleDeleteSnippet removes a snippet the caller owns.
//
// HTTP: DELETE /api/snippets/{id}
func (s *Server) handleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.snippets[id]
	if !ok || rec.ownerID != userID {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Snippet not found")
		return
	}
	delete(s.snippets, id)
	delete(s.shareTokens, rec.ShareToken)
	for i, ordered := range s.snippetOrder {
		if ordered == id {
			s.snippetOrder = append(s.snippetOrder[:i], s.snippetOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Info("snippet deleted", slog.String("id", id))
	writeSuccess(w, http.StatusOK, nil)
}

// handleShareLookup resolves a share token into a read-only snippet with
// the owner's username attached. No auth, and deliberately no IsPublic
// check: possession of the token IS the access grant. An unknown token is
// a plain 404.
//
// HTTP: GET /api/snippets/share/{token}
func (s *Server) handleShareLookup(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	s.mu.Lock()
	id, ok := s.shareTokens[token]
	var shared model.Snippet
	if ok {
		rec := s.snippets[id]
		shared = rec.Snippet
		if owner, found := s.users[rec.ownerID]; found {
			shared.Username = owner.Username
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Snippet not found")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"snippet": shared})
}
