package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/playground-cli/internal/model"
)

// History paging bounds, clamped server-side so a client can't request a
// million rows.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type executeRequest struct {
	Code      string `json:"code"`
	SnippetID string `json:"snippetId"`
}

// handleExecute runs code through the simulated interpreter and, for
// authenticated callers, records the run in their history. Anonymous runs
// (shared views) execute but leave no trace.
//
// HTTP: POST /api/execute
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "Code cannot be empty")
		return
	}

	start := time.Now()
	output, runErr := simulateJS(req.Code)
	elapsed := time.Since(start).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}

	result := model.ExecutionResult{
		Output:        output,
		HasError:      runErr != "",
		ExecutionTime: elapsed,
	}
	if runErr != "" {
		result.Output = runErr
	}

	if userID, ok := userIDFromContext(r.Context()); ok {
		rec := model.ExecutionRecord{
			ID:            xid.New().String(),
			SnippetID:     req.SnippetID,
			Code:          req.Code,
			ExecutionTime: elapsed,
			CreatedAt:     s.clock.Now().UTC(),
		}
		if runErr != "" {
			rec.Error = runErr
		} else {
			rec.Output = output
		}

		s.mu.Lock()
		// Newest first: the history endpoint pages from most recent.
		s.history[userID] = append([]model.ExecutionRecord{rec}, s.history[userID]...)
		s.mu.Unlock()
	}

	s.logger.Info("code executed",
		slog.Bool("hasError", result.HasError),
		slog.Int64("ms", elapsed),
	)
	writeSuccess(w, http.StatusOK, result)
}

// handleHistory returns one page of the caller's execution records.
//
// HTTP: GET /api/execute/history?limit&offset
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	all := s.history[userID]
	page := make([]model.ExecutionRecord, 0, limit)
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page = append(page, all[offset:end]...)
	}
	hasMore := offset+limit < len(all)
	s.mu.Unlock()

	writeSuccess(w, http.StatusOK, map[string]any{
		"history": page,
		"pagination": model.Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
		},
	})
}

// handleStats returns the caller's execution aggregate.
//
// HTTP: GET /api/execute/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	all := s.history[userID]
	stats := model.ExecutionStats{TotalExecutions: int64(len(all))}
	var totalMs int64
	for _, rec := range all {
		totalMs += rec.ExecutionTime
		if rec.HasError() {
			stats.ErrorCount++
		}
	}
	if len(all) > 0 {
		stats.AvgExecutionTime = float64(totalMs) / float64(len(all))
	}
	s.mu.Unlock()

	writeSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// consoleLogPattern matches one console.log call and captures its argument
// list. The simulator only understands this much JavaScript.
var consoleLogPattern = regexp.MustCompile(`console\.log\((.*)\)\s*;?\s*$`)

// throwPattern matches an explicit throw with a string message.
var throwPattern = regexp.MustCompile(`throw\s+new\s+Error\(\s*['"](.*?)['"]\s*\)`)

// simulateJS is a toy stand-in for the real sandbox: it evaluates
// console.log calls with literal arguments and honors explicit throws.
// Anything else passes through silently. Good enough to develop the client
// against; nothing more.
func simulateJS(code string) (output, runErr string) {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if m := throwPattern.FindStringSubmatch(line); m != nil {
			return strings.Join(lines, "\n"), fmt.Sprintf("Error: %s", m[1])
		}

		m := consoleLogPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines = append(lines, evalLogArgs(m[1]))
	}
	if len(lines) == 0 {
		return "", ""
	}
	return strings.Join(lines, "\n") + "\n", ""
}

// evalLogArgs renders a console.log argument list: string literals are
// unquoted, numbers and booleans printed as-is, anything else echoed raw.
func evalLogArgs(args string) string {
	parts := splitTopLevel(args)
	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case len(part) >= 2 && (part[0] == '\'' || part[0] == '"' || part[0] == '`') && part[len(part)-1] == part[0]:
			rendered = append(rendered, part[1:len(part)-1])
		default:
			if n, err := strconv.ParseFloat(part, 64); err == nil {
				rendered = append(rendered, strconv.FormatFloat(n, 'f', -1, 64))
			} else {
				rendered = append(rendered, part)
			}
		}
	}
	return strings.Join(rendered, " ")
}

// splitTopLevel splits an argument list on commas that are not inside
// quotes.
func splitTopLevel(args string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == ',':
			parts = append(parts, args[start:i])
			start = i + 1
		}
	}
	parts = append(parts, args[start:])
	return parts
}
