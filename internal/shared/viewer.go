// Package shared bridges an anonymous visitor to one public snippet: it
// resolves a share token and lets the visitor run the code without a
// session.
package shared

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/apperror"
	"github.com/sakif/playground-cli/internal/execute"
	"github.com/sakif/playground-cli/internal/model"
	"github.com/sakif/playground-cli/internal/snippet"
)

// Viewer coordinates one shared-snippet view.
type Viewer struct {
	snippets *snippet.Store
	runner   *execute.Runner
	logger   *slog.Logger

	mu      sync.Mutex
	current *model.Snippet
}

// NewViewer builds a viewer over an anonymous client — share resolution and
// execution both go out without a credential, even if the same process has
// a logged-in session.
func NewViewer(client *api.Client, logger *slog.Logger) *Viewer {
	return &Viewer{
		snippets: snippet.NewStore(client, logger),
		runner:   execute.NewAnonymousRunner(client, logger),
		logger:   logger,
	}
}

// Open resolves the share token into a read-only snippet.
//
// Two failure classes reach the caller, and they render differently:
// not-found is terminal ("Snippet not found or is no longer available" — no
// retry offered, the link is dead), anything else is transient ("Failed to
// load shared snippet" — re-navigating retries). Use Terminal to tell them
// apart.
func (v *Viewer) Open(ctx context.Context, token string) (*model.Snippet, error) {
	sn, err := v.snippets.ResolveShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			v.logger.Info("share token not found")
			return nil, apperror.NotFound("snippet")
		}
		return nil, apperror.Transport("Failed to load shared snippet", err)
	}

	v.mu.Lock()
	v.current = sn
	v.mu.Unlock()

	v.logger.Info("shared snippet opened",
		slog.String("title", sn.Title),
		slog.String("owner", sn.Username),
	)
	return sn, nil
}

// Snippet returns the resolved snippet, or nil before a successful Open.
func (v *Viewer) Snippet() *model.Snippet {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Run executes the resolved snippet's code anonymously. No snippet id is
// sent: the run is not linked to any saved snippet or history, and whether
// the server even permits anonymous execution is its decision.
func (v *Viewer) Run(ctx context.Context) (execute.Result, error) {
	sn := v.Snippet()
	if sn == nil {
		return execute.Result{
			Output:        "Error: No code to execute",
			HasError:      true,
			ExecutionTime: -1,
		}, apperror.ValidationFailed("snippet", "no shared snippet is open")
	}
	return v.runner.Run(ctx, sn.Code, "")
}

// UserMessage maps an Open error onto the text the product shows.
func UserMessage(err error) string {
	if errors.Is(err, apperror.ErrNotFound) {
		return "Snippet not found or is no longer available"
	}
	return "Failed to load shared snippet"
}

// Terminal reports whether err is a dead-link failure with no retry path.
func Terminal(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
