// Package snippet manages the authenticated user's snippets: listing,
// create/update, deletion, and share-link access.
//
// CONSISTENCY RULE:
// After any mutation the list is re-fetched from the server rather than
// spliced locally. One extra round trip buys the guarantee that what the
// user sees is what the server has — the local list is a cache of server
// truth, never a source of it.
package snippet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/apperror"
	"github.com/sakif/playground-cli/internal/model"
)

// Draft is the input to Save: the full field set the endpoints expect.
type Draft struct {
	Title       string
	Description string
	Code        string
	IsPublic    bool
}

// createRequest matches POST /api/snippets. The create endpoint takes
// camelCase isPublic.
type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	IsPublic    bool   `json:"isPublic"`
}

// updateRequest matches PUT /api/snippets/{id}, which reads snake_case
// is_public. This is a full-field update, not a patch: every field must be
// present or the server will clobber the missing ones with zero values.
type updateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	IsPublic    bool   `json:"is_public"`
}

type snippetData struct {
	Snippet *model.Snippet `json:"snippet"`
}

type listData struct {
	Snippets []model.Snippet `json:"snippets"`
}

// Store holds the snippet list and the "current snippet" the editor is
// working on.
type Store struct {
	client *api.Client
	logger *slog.Logger

	mu       sync.Mutex
	snippets []model.Snippet
	current  *model.Snippet
	listGen  uint64
}

// NewStore creates a Store over the given API client.
func NewStore(client *api.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// List fetches the session user's snippets and replaces the local list.
// Order is whatever the server returned — creation order is preserved, not
// re-sorted client-side.
//
// Responses can arrive out of order when a slow List overlaps a
// mutation-triggered refresh. Each fetch is stamped with a generation; a
// response that is no longer the latest is discarded instead of overwriting
// newer state.
func (s *Store) List(ctx context.Context) ([]model.Snippet, error) {
	s.mu.Lock()
	s.listGen++
	gen := s.listGen
	s.mu.Unlock()

	var data listData
	if err := s.client.Get(ctx, "/api/snippets", &data); err != nil {
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	s.mu.Lock()
	if gen == s.listGen {
		s.snippets = data.Snippets
	}
	s.mu.Unlock()

	return data.Snippets, nil
}

// Snippets returns the last fetched list.
func (s *Store) Snippets() []model.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snippets
}

// Current returns the snippet the editor is working on, or nil.
func (s *Store) Current() *model.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load makes sn the current snippet (the editor "opens" it).
func (s *Store) Load(sn *model.Snippet) {
	s.mu.Lock()
	s.current = sn
	s.mu.Unlock()
}

// Clear drops the current snippet — the editor starts fresh.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Save persists the draft. With no current snippet it creates; with one it
// updates that snippet. Either way the server's returned representation
// (including any newly issued share token) replaces the current pointer —
// the client never fabricates server-owned fields.
func (s *Store) Save(ctx context.Context, draft Draft) (*model.Snippet, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apperror.ValidationFailed("title", "Please enter a title for your snippet")
	}

	current := s.Current()

	var data snippetData
	if current == nil {
		req := createRequest(draft)
		if err := s.client.Post(ctx, "/api/snippets", req, &data); err != nil {
			return nil, fmt.Errorf("creating snippet: %w", err)
		}
	} else {
		req := updateRequest(draft)
		if err := s.client.Put(ctx, "/api/snippets/"+current.ID, req, &data); err != nil {
			return nil, fmt.Errorf("updating snippet %s: %w", current.ID, err)
		}
	}
	if data.Snippet == nil {
		return nil, apperror.Transport("server returned no snippet", nil)
	}

	s.mu.Lock()
	s.current = data.Snippet
	s.mu.Unlock()

	s.logger.Info("snippet saved",
		slog.String("id", data.Snippet.ID),
		slog.String("title", data.Snippet.Title),
	)
	return data.Snippet, nil
}

// Update rewrites snippet id with the complete field set, then refreshes
// the list so it reflects server truth.
func (s *Store) Update(ctx context.Context, id string, draft Draft) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apperror.ValidationFailed("title", "Please enter a title for your snippet")
	}

	var data snippetData
	req := updateRequest(draft)
	if err := s.client.Put(ctx, "/api/snippets/"+id, req, &data); err != nil {
		return nil, fmt.Errorf("updating snippet %s: %w", id, err)
	}

	if _, err := s.List(ctx); err != nil {
		// The update itself succeeded; a failed refresh just leaves the
		// local list stale until the next one.
		s.logger.Warn("refresh after update failed", slog.String("error", err.Error()))
	}
	return data.Snippet, nil
}

// Remove deletes snippet id and refreshes the list. Confirmation is the
// caller's job; this method deletes unconditionally.
func (s *Store) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.client.Delete(ctx, "/api/snippets/"+id); err != nil {
		return fmt.Errorf("deleting snippet %s: %w", id, err)
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	if _, err := s.List(ctx); err != nil {
		s.logger.Warn("refresh after delete failed", slog.String("error", err.Error()))
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// ResolveShareToken looks up a snippet by its share token. This is a public
// read: no session credential is attached, so it works for anonymous
// visitors and the result is read-only.
func (s *Store) ResolveShareToken(ctx context.Context, token string) (*model.Snippet, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.ValidationFailed("token", "share token is required")
	}

	var data snippetData
	if err := s.client.GetPublic(ctx, "/api/snippets/share/"+token, &data); err != nil {
		return nil, err
	}
	if data.Snippet == nil {
		return nil, apperror.NotFound("snippet")
	}
	return data.Snippet, nil
}

// BuildShareURL constructs the shareable link for a snippet. Pure string
// assembly, no network. Fails if the snippet has no server-issued token
// yet (i.e. it was never saved).
func BuildShareURL(origin string, sn *model.Snippet) (string, error) {
	if sn == nil || sn.ShareToken == "" {
		return "", apperror.ValidationFailed("snippet", "Please save the snippet first to share it")
	}
	return strings.TrimRight(origin, "/") + "/share/" + sn.ShareToken, nil
}
