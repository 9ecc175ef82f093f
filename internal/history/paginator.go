// Package history accumulates the user's execution records page by page,
// plus the separate read-only stats aggregate.
//
// ACCUMULATION RULES:
//   - A fetch at offset 0 replaces the local list; any other offset appends.
//   - The offset only ever advances by the page limit, so no window is
//     fetched twice unless the cursor is reset to 0.
//   - hasMore always comes from the server; the client never computes it.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/model"
)

// DefaultPageLimit matches the page size the product has always used.
const DefaultPageLimit = 20

type historyData struct {
	History    []model.ExecutionRecord `json:"history"`
	Pagination model.Pagination        `json:"pagination"`
}

type statsData struct {
	Stats *model.ExecutionStats `json:"stats"`
}

// Paginator incrementally fetches execution history.
type Paginator struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	limit   int
	offset  int
	hasMore bool
	records []model.ExecutionRecord
	stats   *model.ExecutionStats
}

// NewPaginator creates a paginator with the default page limit.
func NewPaginator(client *api.Client, logger *slog.Logger) *Paginator {
	return &Paginator{
		client: client,
		logger: logger,
		limit:  DefaultPageLimit,
	}
}

// Records returns the accumulated list in fetch order.
func (p *Paginator) Records() []model.ExecutionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.records
}

// HasMore reports whether the server said more pages exist.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Stats returns the last fetched aggregate, or nil when unavailable.
func (p *Paginator) Stats() *model.ExecutionStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// FetchPage fetches the page at the current cursor. At offset 0 the
// accumulated list is replaced; at any later offset the page is appended.
func (p *Paginator) FetchPage(ctx context.Context) ([]model.ExecutionRecord, error) {
	p.mu.Lock()
	limit, offset := p.limit, p.offset
	p.mu.Unlock()

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var data historyData
	if err := p.client.Get(ctx, "/api/execute/history?"+q.Encode(), &data); err != nil {
		return nil, fmt.Errorf("fetching history page (offset=%d): %w", offset, err)
	}

	p.mu.Lock()
	if offset == 0 {
		p.records = data.History
	} else {
		p.records = append(p.records, data.History...)
	}
	p.hasMore = data.Pagination.HasMore
	p.mu.Unlock()

	return data.History, nil
}

// LoadMore advances the cursor by one page and fetches it. When the server
// already said there is nothing more, this is a no-op, not an error.
func (p *Paginator) LoadMore(ctx context.Context) ([]model.ExecutionRecord, error) {
	p.mu.Lock()
	if !p.hasMore {
		p.mu.Unlock()
		return nil, nil
	}
	p.offset += p.limit
	p.mu.Unlock()

	return p.FetchPage(ctx)
}

// Reset rewinds the cursor to offset 0. The next FetchPage replaces the
// accumulated list entirely.
func (p *Paginator) Reset() {
	p.mu.Lock()
	p.offset = 0
	p.hasMore = false
	p.mu.Unlock()
}

// FetchStats fetches the server-side aggregate. Failure degrades to
// "stats unavailable": the error is logged, the stored stats are left
// untouched, and the history list is unaffected. Callers render a nil
// aggregate as absent, not as a page-level error.
func (p *Paginator) FetchStats(ctx context.Context) *model.ExecutionStats {
	var data statsData
	if err := p.client.Get(ctx, "/api/execute/stats", &data); err != nil {
		p.logger.Warn("stats unavailable", slog.String("error", err.Error()))
		return nil
	}

	p.mu.Lock()
	p.stats = data.Stats
	p.mu.Unlock()
	return data.Stats
}
