package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	opts := DefaultOptions()
	opts.Now = clock.Now
	return New(opts), clock
}

func countingLoader(calls *atomic.Int32, value any) Loader {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestPatternMatches(t *testing.T) {
	march := Key{Kind: KindCompletions, Param: "2024-03"}
	tests := []struct {
		name    string
		pattern Pattern
		key     Key
		want    bool
	}{
		{"everything", Everything(), GoalsKey(), true},
		{"all completions", AllOf(KindCompletions), march, true},
		{"other kind", AllOf(KindGoals), march, false},
		{"exact", Exact(march), march, true},
		{"exact other month", Exact(march), Key{Kind: KindCompletions, Param: "2024-04"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(tt.key))
		})
	}
}

func TestFetch_ServesFreshValueFromCache(t *testing.T) {
	s, _ := newTestStore()
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		v, err := s.Fetch(context.Background(), GoalsKey(), countingLoader(&calls, "goals"))
		require.NoError(t, err)
		assert.Equal(t, "goals", v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ConcurrentCallsShareOneLoad(t *testing.T) {
	s, _ := newTestStore()
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "goals", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Fetch(context.Background(), GoalsKey(), load)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool {
		return s.Snapshot(GoalsKey()).Waiters == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, StatusLoading, s.Snapshot(GoalsKey()).Status)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []any{"goals", "goals"}, results)
}

func TestFetch_FreshnessWindow(t *testing.T) {
	s, clock := newTestStore()
	var cats, comps atomic.Int32
	ctx := context.Background()
	month := Key{Kind: KindCompletions, Param: "2024-03"}

	_, _ = s.Fetch(ctx, CategoriesKey(), countingLoader(&cats, 1))
	_, _ = s.Fetch(ctx, month, countingLoader(&comps, 1))

	clock.Advance(4 * time.Minute)
	_, _ = s.Fetch(ctx, CategoriesKey(), countingLoader(&cats, 1))
	assert.Equal(t, int32(1), cats.Load())

	clock.Advance(2 * time.Minute)
	_, _ = s.Fetch(ctx, CategoriesKey(), countingLoader(&cats, 1))
	assert.Equal(t, int32(2), cats.Load())

	// Completions have no window.
	clock.Advance(365 * 24 * time.Hour)
	_, _ = s.Fetch(ctx, month, countingLoader(&comps, 1))
	assert.Equal(t, int32(1), comps.Load())
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	s, _ := newTestStore()
	var goals, march, april atomic.Int32
	ctx := context.Background()
	marchKey := Key{Kind: KindCompletions, Param: "2024-03"}
	aprilKey := Key{Kind: KindCompletions, Param: "2024-04"}

	_, _ = s.Fetch(ctx, GoalsKey(), countingLoader(&goals, 1))
	_, _ = s.Fetch(ctx, marchKey, countingLoader(&march, 1))
	_, _ = s.Fetch(ctx, aprilKey, countingLoader(&april, 1))

	n := s.Invalidate(AllOf(KindGoals), AllOf(KindCompletions))
	assert.Equal(t, 3, n)
	assert.True(t, s.Snapshot(GoalsKey()).Stale)

	_, _ = s.Fetch(ctx, GoalsKey(), countingLoader(&goals, 1))
	_, _ = s.Fetch(ctx, marchKey, countingLoader(&march, 1))
	_, _ = s.Fetch(ctx, aprilKey, countingLoader(&april, 1))
	assert.Equal(t, int32(2), goals.Load())
	assert.Equal(t, int32(2), march.Load())
	assert.Equal(t, int32(2), april.Load())
}

func TestInvalidate_DuringFlightDiscardsResult(t *testing.T) {
	s, _ := newTestStore()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	first := func(context.Context) (any, error) {
		calls.Add(1)
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan any)
	go func() {
		v, _ := s.Fetch(context.Background(), GoalsKey(), first)
		done <- v
	}()
	<-started

	s.Invalidate(Exact(GoalsKey()))
	close(release)
	assert.Equal(t, "old", <-done)

	v, err := s.Fetch(context.Background(), GoalsKey(), countingLoader(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ErrorDoesNotPoisonCache(t *testing.T) {
	s, _ := newTestStore()
	var calls atomic.Int32
	boom := apperrors.New(apperrors.KindNetwork, "list goals", "down")

	load := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "goals", nil
	}

	_, err := s.Fetch(context.Background(), GoalsKey(), load)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	snap := s.Snapshot(GoalsKey())
	assert.Equal(t, StatusError, snap.Status)
	assert.True(t, errors.Is(snap.Err, boom))

	v, err := s.Fetch(context.Background(), GoalsKey(), load)
	require.NoError(t, err)
	assert.Equal(t, "goals", v)
	assert.Equal(t, StatusReady, s.Snapshot(GoalsKey()).Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_CancelledCallerDoesNotCancelLoad(t *testing.T) {
	s, _ := newTestStore()
	release := make(chan struct{})
	var loadErr atomic.Value

	load := func(ctx context.Context) (any, error) {
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
		}
		return "goals", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		_, err := s.Fetch(ctx, GoalsKey(), load)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return s.Snapshot(GoalsKey()).Waiters == 1
	}, time.Second, time.Millisecond)
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err), "an abandoned wait is tagged like any other failed read")

	close(release)
	require.Eventually(t, func() bool {
		return s.Snapshot(GoalsKey()).Status == StatusReady
	}, time.Second, time.Millisecond)
	assert.Nil(t, loadErr.Load())
}

func TestSnapshot_Idle(t *testing.T) {
	s, _ := newTestStore()
	assert.Equal(t, StatusIdle, s.Snapshot(CategoriesKey()).Status)
}
