// Package execute drives code-execution requests against the remote
// sandbox and tracks their lifecycle for display.
//
// The remote sandbox is a black box: we send code, it returns output,
// timing, and an error flag. Everything here is about when to send and
// which response the caller gets to see.
package execute

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/apperror"
	"github.com/sakif/playground-cli/internal/model"
)

// Phase is the runner lifecycle state. There is no separate error phase:
// failures complete with a Result whose HasError is true, so "loading with
// an error showing" is unrepresentable.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
)

// Result is what gets displayed after a run: the output pane text, the
// error flag, and the reported execution time in milliseconds.
// ExecutionTime is -1 when the run never reached the sandbox.
type Result struct {
	Output        string
	HasError      bool
	ExecutionTime int64
}

// Snapshot is the externally visible runner state.
type Snapshot struct {
	Phase  Phase
	Result Result
}

type executeRequest struct {
	Code      string `json:"code"`
	SnippetID string `json:"snippetId,omitempty"`
}

// Runner issues execution requests one user action at a time.
//
// CONCURRENCY CONTRACT:
// A new Run while one is in flight supersedes it: the superseded request is
// not cancelled, but its response is discarded on arrival. Only the latest
// call's outcome lands in the snapshot — last result wins.
type Runner struct {
	client    *api.Client
	logger    *slog.Logger
	anonymous bool

	mu         sync.Mutex
	phase      Phase
	result     Result
	generation uint64
}

// NewRunner creates a runner that executes as the current session and links
// runs to their originating snippet so the server records history.
func NewRunner(client *api.Client, logger *slog.Logger) *Runner {
	return &Runner{client: client, logger: logger, phase: PhaseIdle}
}

// NewAnonymousRunner creates a runner for shared views: no credential is
// attached and no snippet id is sent, so the run carries no session-derived
// linkage. Whether anonymous execution is permitted is the server's call.
func NewAnonymousRunner(client *api.Client, logger *slog.Logger) *Runner {
	return &Runner{client: client, logger: logger, anonymous: true, phase: PhaseIdle}
}

// Snapshot returns the current phase and latest result.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Phase: r.phase, Result: r.result}
}

// Run executes code. snippetID, when non-empty, tells the server which
// saved snippet this run came from; the server records history against it.
//
// Empty or whitespace-only code never reaches the wire: the runner
// completes immediately with a local error result.
//
// The returned Result is always what should be displayed. The error return
// carries the classification (validation, auth, transport) for callers that
// escalate — display-only callers can ignore it, since every failure is
// already folded into the Result.
func (r *Runner) Run(ctx context.Context, code, snippetID string) (Result, error) {
	if strings.TrimSpace(code) == "" {
		res := Result{
			Output:        "Error: No code to execute",
			HasError:      true,
			ExecutionTime: -1,
		}
		r.mu.Lock()
		r.generation++
		r.phase = PhaseCompleted
		r.result = res
		r.mu.Unlock()
		return res, apperror.ValidationFailed("code", "No code to execute")
	}

	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.phase = PhaseRunning
	r.mu.Unlock()

	req := executeRequest{Code: code}
	if !r.anonymous {
		req.SnippetID = snippetID
	}

	var payload model.ExecutionResult
	var err error
	if r.anonymous {
		err = r.client.PostPublic(ctx, "/api/execute", req, &payload)
	} else {
		err = r.client.Post(ctx, "/api/execute", req, &payload)
	}

	var res Result
	if err != nil {
		res = Result{
			Output:        "Error: " + failureMessage(err),
			HasError:      true,
			ExecutionTime: -1,
		}
		r.logger.Warn("execution failed", slog.String("error", err.Error()))
	} else {
		output := payload.Output
		if output == "" {
			output = "Code executed successfully (no output)"
		}
		// Output, HasError, and ExecutionTime are surfaced verbatim — the
		// sandbox's verdict is never second-guessed client-side.
		res = Result{
			Output:        output,
			HasError:      payload.HasError,
			ExecutionTime: payload.ExecutionTime,
		}
	}

	r.mu.Lock()
	// A later Run supersedes this one; its result stands, ours is dropped.
	if gen == r.generation {
		r.phase = PhaseCompleted
		r.result = res
	}
	r.mu.Unlock()

	return res, err
}

// failureMessage picks the user-facing text for a failed run: the server's
// message when it sent one, a generic retry prompt otherwise.
func failureMessage(err error) string {
	msg := apperror.MessageOf(err)
	if msg == "" || msg == "request failed" {
		return "Failed to execute code. Please try again."
	}
	return msg
}
