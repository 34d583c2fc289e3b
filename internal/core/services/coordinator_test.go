package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockmirror/internal/adapters/memory"
	"github.com/ammerola/stockmirror/internal/core/domain"
	"github.com/ammerola/stockmirror/internal/core/ports"
	"github.com/ammerola/stockmirror/internal/core/services"
	"github.com/ammerola/stockmirror/test/helpers"
	"github.com/ammerola/stockmirror/test/mocks"
)

// blockingExecutor holds every call until release is closed
type blockingExecutor struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
	items   []domain.InventoryItem
}

func newBlockingExecutor(items []domain.InventoryItem) *blockingExecutor {
	return &blockingExecutor{
		started: make(chan struct{}),
		release: make(chan struct{}),
		items:   items,
	}
}

func (e *blockingExecutor) Fetch(context.Context, domain.ListParams) services.QueryResult {
	e.calls.Add(1)
	e.once.Do(func() { close(e.started) })
	<-e.release
	return services.QueryResult{Items: e.items, TotalCount: len(e.items)}
}

func remoteItems(n int) []domain.InventoryItem {
	items := helpers.CreateTestInventoryItems(n)
	for i := range items {
		items[i].ID = []string{
			"3f2504e0-4f89-11d3-9a0c-0305e82c3301",
			"3f2504e0-4f89-11d3-9a0c-0305e82c3302",
			"3f2504e0-4f89-11d3-9a0c-0305e82c3303",
		}[i%3]
	}
	return items
}

func TestFetchCoordinator_Fetch(t *testing.T) {
	params := domain.ListParams{Page: 1, PageSize: 20}

	tests := []struct {
		name        string
		setupMocks  func(*mocks.MockQueryExecutor)
		wantSource  domain.Source
		wantWarning string
	}{
		{
			name: "uses_remote_result",
			setupMocks: func(exec *mocks.MockQueryExecutor) {
				exec.EXPECT().Fetch(gomock.Any(), params.Normalize()).
					Return(services.QueryResult{Items: remoteItems(2), TotalCount: 42})
			},
			wantSource: domain.SourceRemote,
		},
		{
			name: "remote_error_falls_back_with_warning",
			setupMocks: func(exec *mocks.MockQueryExecutor) {
				exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
					Return(services.QueryResult{Err: errors.New("timeout")})
			},
			wantSource:  domain.SourceLocal,
			wantWarning: services.OfflineWarning,
		},
		{
			name: "empty_remote_falls_back_silently",
			setupMocks: func(exec *mocks.MockQueryExecutor) {
				exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
					Return(services.QueryResult{Items: []domain.InventoryItem{}})
			},
			wantSource: domain.SourceLocal,
		},
		{
			name: "panic_falls_back_with_warning",
			setupMocks: func(exec *mocks.MockQueryExecutor) {
				exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(context.Context, domain.ListParams) services.QueryResult {
						panic("unexpected")
					})
			},
			wantSource:  domain.SourceLocal,
			wantWarning: services.OfflineWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exec := mocks.NewMockQueryExecutor(ctrl)
			tt.setupMocks(exec)

			mirror := memory.NewMirror(helpers.CreateTestInventoryItems(25))
			coordinator := services.NewFetchCoordinator(exec, mirror, helpers.TestLogger())

			page := coordinator.Fetch(context.Background(), params)

			assert.Equal(t, tt.wantSource, page.Source)
			assert.Equal(t, tt.wantWarning, page.Warning)
			assert.Equal(t, params.Normalize(), page.Params)

			if tt.wantSource == domain.SourceLocal {
				wantItems, wantTotal := mirror.Query(params)
				assert.Equal(t, wantItems, page.Items)
				assert.Equal(t, wantTotal, page.TotalCount)
			} else {
				assert.Len(t, page.Items, 2)
				assert.Equal(t, 42, page.TotalCount)
			}
		})
	}
}

// brokenMirror panics on every query
type brokenMirror struct {
	ports.MirrorStore
}

func (brokenMirror) Query(domain.ListParams) ([]domain.InventoryItem, int) {
	panic("mirror index corrupted")
}

func TestFetchCoordinator_MirrorPanicNeverEscapes(t *testing.T) {
	tests := []struct {
		name        string
		result      func(context.Context, domain.ListParams) services.QueryResult
		wantWarning string
	}{
		{
			name: "after_remote_panic",
			result: func(context.Context, domain.ListParams) services.QueryResult {
				panic("driver bug")
			},
			wantWarning: services.OfflineWarning,
		},
		{
			name: "after_remote_error",
			result: func(context.Context, domain.ListParams) services.QueryResult {
				return services.QueryResult{Err: errors.New("connection refused")}
			},
			wantWarning: services.OfflineWarning,
		},
		{
			name: "after_empty_remote",
			result: func(context.Context, domain.ListParams) services.QueryResult {
				return services.QueryResult{}
			},
			wantWarning: services.OfflineWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exec := mocks.NewMockQueryExecutor(ctrl)
			exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(tt.result)

			coordinator := services.NewFetchCoordinator(exec, brokenMirror{}, helpers.TestLogger())

			var page domain.Page
			require.NotPanics(t, func() {
				page = coordinator.Fetch(context.Background(), domain.ListParams{})
			})

			assert.Equal(t, domain.SourceLocal, page.Source)
			assert.Equal(t, tt.wantWarning, page.Warning)
			assert.Empty(t, page.Items)
			assert.Zero(t, page.TotalCount)
		})
	}
}

func TestFetchCoordinator_EmptyRemoteServesFirstMirrorPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockQueryExecutor(ctrl)
	exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(services.QueryResult{})

	mirror := memory.NewMirror(helpers.CreateTestInventoryItems(30))
	coordinator := services.NewFetchCoordinator(exec, mirror, helpers.TestLogger())

	page := coordinator.Fetch(context.Background(), domain.ListParams{Page: 1, PageSize: 20})

	require.Len(t, page.Items, 20)
	assert.Equal(t, 30, page.TotalCount)
	assert.Equal(t, "Test Item 1", page.Items[0].Name)
	assert.Equal(t, "Test Item 10", page.Items[1].Name)
	assert.Empty(t, page.Warning)
}

func TestFetchCoordinator_RepeatOfLastQueryIsCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockQueryExecutor(ctrl)
	exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(services.QueryResult{Items: remoteItems(1), TotalCount: 1}).
		Times(1)

	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
	ctx := context.Background()

	first := coordinator.Fetch(ctx, domain.ListParams{Page: 1})
	second := coordinator.Fetch(ctx, domain.ListParams{Page: 1, PageSize: domain.DefaultPageSize})

	assert.Equal(t, first, second)
}

func TestFetchCoordinator_RefreshBypassesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockQueryExecutor(ctrl)

	gomock.InOrder(
		exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return(services.QueryResult{Items: remoteItems(1), TotalCount: 1}),
		exec.EXPECT().Fetch(gomock.Any(), gomock.Cond(func(p domain.ListParams) bool {
			return p.Search == "bolt"
		})).Return(services.QueryResult{Items: remoteItems(2), TotalCount: 2}),
	)

	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
	ctx := context.Background()

	coordinator.Fetch(ctx, domain.ListParams{Search: "bolt"})
	page := coordinator.Refresh(ctx)

	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "bolt", page.Params.Search)
}

func TestFetchCoordinator_RefreshBeforeFirstFetchUsesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockQueryExecutor(ctrl)
	exec.EXPECT().Fetch(gomock.Any(), domain.ListParams{}.Normalize()).Return(services.QueryResult{})

	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
	page := coordinator.Refresh(context.Background())

	assert.Equal(t, domain.SourceLocal, page.Source)
	last, ok := coordinator.Last()
	require.True(t, ok)
	assert.Equal(t, page, last)
}

func TestFetchCoordinator_DuplicateInFlightIsDropped(t *testing.T) {
	exec := newBlockingExecutor(remoteItems(3))
	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
	ctx := context.Background()
	params := domain.ListParams{Page: 1, Search: "test"}

	done := make(chan domain.Page)
	go func() {
		done <- coordinator.Fetch(ctx, params)
	}()
	<-exec.started

	dup := coordinator.Fetch(ctx, params)
	assert.True(t, dup.Skipped)
	assert.Empty(t, dup.Items)
	assert.Equal(t, params.Normalize(), dup.Params)

	close(exec.release)
	first := <-done

	assert.False(t, first.Skipped)
	assert.Len(t, first.Items, 3)
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestFetchCoordinator_JoinInFlight(t *testing.T) {
	exec := newBlockingExecutor(remoteItems(3))
	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger(),
		services.WithJoinInFlight())
	ctx := context.Background()
	params := domain.ListParams{Page: 1}

	results := make(chan domain.Page, 2)
	go func() { results <- coordinator.Fetch(ctx, params) }()
	<-exec.started
	go func() { results <- coordinator.Fetch(ctx, params) }()

	time.Sleep(20 * time.Millisecond)
	close(exec.release)

	a, b := <-results, <-results
	assert.False(t, a.Skipped)
	assert.False(t, b.Skipped)
	assert.Equal(t, a.Items, b.Items)
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestFetchCoordinator_DifferentParamsRunConcurrently(t *testing.T) {
	exec := newBlockingExecutor(remoteItems(1))
	coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	pages := make([]domain.Page, 2)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i] = coordinator.Fetch(ctx, domain.ListParams{Page: i + 1})
		}(i)
	}

	helpers.AssertEventuallyWithTimeout(t, func() bool { return exec.calls.Load() == 2 },
		time.Second, "both fetches reach the executor")
	close(exec.release)
	wg.Wait()

	assert.Equal(t, 1, pages[0].Params.Page)
	assert.Equal(t, 2, pages[1].Params.Page)
}

func TestFetchCoordinator_Reorder(t *testing.T) {
	items := remoteItems(3)
	items[0].Name, items[1].Name, items[2].Name = "first", "second", "third"

	tests := []struct {
		name      string
		index     int
		direction domain.MoveDirection
		wantMoved bool
		wantOrder []string
	}{
		{"first_item_up_is_noop", 0, domain.MoveUp, false, []string{"first", "second", "third"}},
		{"last_item_down_is_noop", 2, domain.MoveDown, false, []string{"first", "second", "third"}},
		{"middle_item_up", 1, domain.MoveUp, true, []string{"second", "first", "third"}},
		{"first_item_down", 0, domain.MoveDown, true, []string{"second", "first", "third"}},
		{"index_out_of_range", 7, domain.MoveUp, false, []string{"first", "second", "third"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exec := mocks.NewMockQueryExecutor(ctrl)
			exec.EXPECT().Fetch(gomock.Any(), gomock.Any()).
				Return(services.QueryResult{Items: items, TotalCount: 3})

			coordinator := services.NewFetchCoordinator(exec, memory.NewMirror(nil), helpers.TestLogger())
			coordinator.Fetch(context.Background(), domain.ListParams{})

			page, moved := coordinator.Reorder(tt.index, tt.direction)
			assert.Equal(t, tt.wantMoved, moved)

			got := make([]string, len(page.Items))
			for i, item := range page.Items {
				got[i] = item.Name
			}
			assert.Equal(t, tt.wantOrder, got)

			last, _ := coordinator.Last()
			assert.Equal(t, page.Items, last.Items)
		})
	}
}

func TestFetchCoordinator_ReorderBeforeFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	coordinator := services.NewFetchCoordinator(mocks.NewMockQueryExecutor(ctrl), memory.NewMirror(nil), helpers.TestLogger())

	_, moved := coordinator.Reorder(0, domain.MoveDown)
	assert.False(t, moved)

	_, ok := coordinator.Last()
	assert.False(t, ok)
}
