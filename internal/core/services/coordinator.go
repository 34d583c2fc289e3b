// internal/core/services/coordinator.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
)

// OfflineWarning is shown when a page had to be served from the mirror
// because the remote store failed.
const OfflineWarning = "remote inventory unavailable, showing local data"

// Refresher re-runs the last completed query regardless of caching
type Refresher interface {
	Refresh(ctx context.Context) domain.Page
}

// CoordinatorOption configures a FetchCoordinator
type CoordinatorOption func(*FetchCoordinator)

// WithJoinInFlight makes a duplicate fetch wait for the in-flight result
// instead of returning immediately.
func WithJoinInFlight() CoordinatorOption {
	return func(c *FetchCoordinator) {
		c.joinInFlight = true
	}
}

// FetchCoordinator decides where a page of inventory comes from. It queries
// the remote store, falls back to the mirror when the remote answer is
// unusable, and suppresses duplicate queries.
type FetchCoordinator struct {
	executor     QueryExecutor
	mirror       ports.MirrorStore
	logger       *slog.Logger
	joinInFlight bool
	group        singleflight.Group

	mu         sync.Mutex
	inFlight   map[string]int
	lastParams domain.ListParams
	hasFetched bool
	last       domain.Page
}

var (
	_ ports.InventoryQueryService = (*FetchCoordinator)(nil)
	_ Refresher                   = (*FetchCoordinator)(nil)
)

// NewFetchCoordinator creates a new coordinator
func NewFetchCoordinator(executor QueryExecutor, mirror ports.MirrorStore, logger *slog.Logger, opts ...CoordinatorOption) *FetchCoordinator {
	c := &FetchCoordinator{
		executor: executor,
		mirror:   mirror,
		logger:   logger.With(slog.String("service", "fetch_coordinator")),
		inFlight: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the page for params. A repeat of the last completed query is
// answered from the cached page; a repeat of a query still running is
// answered with the cached page flagged Skipped.
func (c *FetchCoordinator) Fetch(ctx context.Context, params domain.ListParams) domain.Page {
	return c.fetch(ctx, params.Normalize(), false)
}

// Refresh re-runs the last completed query, or the default query when
// nothing has been fetched yet.
func (c *FetchCoordinator) Refresh(ctx context.Context) domain.Page {
	c.mu.Lock()
	params := domain.ListParams{}.Normalize()
	if c.hasFetched {
		params = c.lastParams
	}
	c.mu.Unlock()

	return c.fetch(ctx, params, true)
}

// Last returns the most recently completed page
func (c *FetchCoordinator) Last() (domain.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFetched {
		return domain.Page{}, false
	}
	return c.last.Clone(), true
}

// Reorder swaps the item at index with its neighbour in the last page.
// Moving the first item up or the last item down changes nothing.
func (c *FetchCoordinator) Reorder(index int, direction domain.MoveDirection) (domain.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFetched {
		return domain.Page{}, false
	}

	target := index + 1
	if direction == domain.MoveUp {
		target = index - 1
	}

	items := c.last.Items
	if index < 0 || index >= len(items) || target < 0 || target >= len(items) {
		return c.last.Clone(), false
	}

	items[index], items[target] = items[target], items[index]
	return c.last.Clone(), true
}

func (c *FetchCoordinator) fetch(ctx context.Context, params domain.ListParams, force bool) domain.Page {
	key := params.Key()

	c.mu.Lock()
	if !force {
		if c.hasFetched && c.lastParams == params {
			page := c.last.Clone()
			c.mu.Unlock()
			return page
		}
		if c.inFlight[key] > 0 && !c.joinInFlight {
			page := c.skippedPage(params)
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "duplicate fetch skipped", slog.String("params", key))
			return page
		}
	}

	if force || !c.joinInFlight {
		c.inFlight[key]++
		c.mu.Unlock()
		return c.run(ctx, params)
	}
	c.mu.Unlock()

	v, _, shared := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		c.inFlight[key]++
		c.mu.Unlock()
		return c.run(ctx, params), nil
	})
	page := v.(domain.Page)
	if shared {
		page = page.Clone()
	}
	return page
}

// run executes one query and records it as the last completed page. The
// caller has already counted it in inFlight.
func (c *FetchCoordinator) run(ctx context.Context, params domain.ListParams) domain.Page {
	key := params.Key()
	page := c.resolve(ctx, params)

	c.mu.Lock()
	if c.inFlight[key]--; c.inFlight[key] <= 0 {
		delete(c.inFlight, key)
	}
	c.lastParams = params
	c.hasFetched = true
	c.last = page.Clone()
	c.mu.Unlock()

	return page
}

func (c *FetchCoordinator) resolve(ctx context.Context, params domain.ListParams) (page domain.Page) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "fetch panicked, serving local data",
				slog.String("error", fmt.Sprint(r)))
			page = c.fromMirror(params, OfflineWarning)
		}
	}()

	result := c.executor.Fetch(ctx, params)
	if result.Err != nil {
		c.logger.WarnContext(ctx, "remote fetch failed, serving local data",
			slog.String("error", result.Err.Error()))
		return c.fromMirror(params, OfflineWarning)
	}

	if len(result.Items) == 0 {
		c.logger.DebugContext(ctx, "remote returned no items, serving local data")
		return c.fromMirror(params, "")
	}

	return domain.Page{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Params:     params,
		Source:     domain.SourceRemote,
	}
}

// fromMirror serves params locally. A panicking mirror yields an empty local
// page with the offline warning.
func (c *FetchCoordinator) fromMirror(params domain.ListParams, warning string) (page domain.Page) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("local query panicked",
				slog.String("error", fmt.Sprint(r)))
			page = domain.Page{
				Items:   []domain.InventoryItem{},
				Params:  params,
				Source:  domain.SourceLocal,
				Warning: OfflineWarning,
			}
		}
	}()

	items, total := c.mirror.Query(params)
	return domain.Page{
		Items:      items,
		TotalCount: total,
		Params:     params,
		Source:     domain.SourceLocal,
		Warning:    warning,
	}
}

// skippedPage must be called with c.mu held
func (c *FetchCoordinator) skippedPage(params domain.ListParams) domain.Page {
	if !c.hasFetched {
		return domain.Page{Items: []domain.InventoryItem{}, Params: params, Skipped: true}
	}
	page := c.last.Clone()
	page.Skipped = true
	return page
}
