package model

import "time"

// ExecutionResult is the payload of a successful POST /api/execute response.
//
// Unlike the entity types, the execute endpoint uses camelCase keys — the
// shape is taken verbatim from the service, quirks included. ExecutionTime
// is milliseconds.
type ExecutionResult struct {
	Output        string `json:"output"`
	HasError      bool   `json:"hasError"`
	ExecutionTime int64  `json:"executionTime"`
}

// ExecutionRecord is one immutable entry in the execution history.
//
// Output and Error are mutually exclusive in practice: the server fills
// Error (and sets execution_time) when the run failed, Output otherwise.
// SnippetID is empty for ad-hoc runs that weren't started from a saved
// snippet.
type ExecutionRecord struct {
	ID            string    `json:"id"`
	SnippetID     string    `json:"snippet_id,omitempty"`
	Code          string    `json:"code"`
	Output        string    `json:"output,omitempty"`
	Error         string    `json:"error,omitempty"`
	ExecutionTime int64     `json:"execution_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasError reports whether this record captured a failed run.
func (r ExecutionRecord) HasError() bool {
	return r.Error != ""
}

// ExecutionStats is the read-only aggregate from GET /api/execute/stats.
// It is computed server-side; the client never derives it from the history
// list (the list is paginated, the stats are not).
type ExecutionStats struct {
	TotalExecutions  int64   `json:"total_executions"`
	AvgExecutionTime float64 `json:"avg_execution_time"`
	ErrorCount       int64   `json:"error_count"`
}

// Pagination is the cursor block returned alongside history pages.
// HasMore always comes from the server — the client never computes it.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}
