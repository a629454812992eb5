package mutation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/cache"
	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type fakeRemote struct {
	mu        sync.Mutex
	fail      error
	recorded  []string
	deleted   []string
	gate      chan struct{}
	goalsDel  []string
	catsDel   []string
	created   []api.NewGoal
	renamed   []string
	createdCa []string
}

func (f *fakeRemote) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeRemote) RecordCompletion(_ context.Context, habitID, date string) (models.HabitCompletion, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.HabitCompletion{}, f.fail
	}
	f.recorded = append(f.recorded, CompletionKey(date, habitID))
	return models.HabitCompletion{ID: "new", HabitID: habitID, CompletionDate: date}, nil
}

func (f *fakeRemote) DeleteCompletion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) CreateCategory(_ context.Context, name string) (models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Category{}, f.fail
	}
	f.createdCa = append(f.createdCa, name)
	return models.Category{ID: "9", Name: name}, nil
}

func (f *fakeRemote) RenameCategory(_ context.Context, id, name string) (models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Category{}, f.fail
	}
	f.renamed = append(f.renamed, id+"="+name)
	return models.Category{ID: id, Name: name}, nil
}

func (f *fakeRemote) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.catsDel = append(f.catsDel, id)
	return nil
}

func (f *fakeRemote) CreateGoal(_ context.Context, goal api.NewGoal) (models.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Goal{}, f.fail
	}
	f.created = append(f.created, goal)
	return models.Goal{ID: "g9", Description: goal.Description}, nil
}

func (f *fakeRemote) MoveGoal(_ context.Context, id, categoryID string) (models.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Goal{}, f.fail
	}
	return models.Goal{ID: id, CategoryID: categoryID}, nil
}

func (f *fakeRemote) DeleteGoal(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.goalsDel = append(f.goalsDel, id)
	return nil
}

func newToggler(remote *fakeRemote, store *cache.Store, policy UnmarkPolicy) *CompletionToggler {
	var inv Invalidator
	if store != nil {
		inv = store
	}
	return NewCompletionToggler(NewCoordinator(inv), remote, policy, WithClock(testClock, time.UTC))
}

func TestToggle_FailureRestoresCompletionsByDate(t *testing.T) {
	remote := &fakeRemote{fail: apperrors.New(apperrors.KindNetwork, "record completion", "down")}
	toggler := newToggler(remote, cache.New(cache.DefaultOptions()), UnmarkAllowed)
	month := models.Month{Year: 2024, Month: 3}

	base := derive.CompletionsByDate([]models.HabitCompletion{{ID: "c1", HabitID: "h1", CompletionDate: "2024-03-01"}})
	before := derive.ApplyCompletionOverlay(base, toggler.Overlay().Values(), month)

	p, err := toggler.Begin(Toggle{HabitID: "h2", Date: "2024-03-10"})
	require.NoError(t, err)

	during := derive.ApplyCompletionOverlay(base, toggler.Overlay().Values(), month)
	assert.True(t, during.Completed(10, "h2"), "optimistic delta not visible")
	assert.True(t, toggler.IsPending("2024-03-10", "h2"))

	err = p.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))

	after := derive.ApplyCompletionOverlay(base, toggler.Overlay().Values(), month)
	assert.Equal(t, before, after)
	assert.False(t, toggler.IsPending("2024-03-10", "h2"))
	assert.Equal(t, 0, toggler.Overlay().Len())
}

func TestToggle_SuccessInvalidatesMonthAndClearsDelta(t *testing.T) {
	store := cache.New(cache.DefaultOptions())
	var loads atomic.Int32
	march := cache.CompletionsKey(models.Month{Year: 2024, Month: 3})
	april := cache.CompletionsKey(models.Month{Year: 2024, Month: 4})
	load := func(context.Context) (any, error) { loads.Add(1); return []models.HabitCompletion{}, nil }
	ctx := context.Background()
	_, _ = store.Fetch(ctx, march, load)
	_, _ = store.Fetch(ctx, april, load)

	remote := &fakeRemote{}
	toggler := newToggler(remote, store, UnmarkAllowed)
	require.NoError(t, toggler.Run(ctx, Toggle{HabitID: "h1", Date: "2024-03-15"}))

	assert.Equal(t, []string{"2024-03-15-h1"}, remote.recorded)
	assert.Equal(t, 0, toggler.Overlay().Len())
	assert.True(t, store.Snapshot(march).Stale)
	assert.False(t, store.Snapshot(april).Stale)

	_, _ = store.Fetch(ctx, march, load)
	assert.Equal(t, int32(3), loads.Load())
}

func TestToggle_DeferredSettleKeepsDeltaUntilSettled(t *testing.T) {
	store := cache.New(cache.DefaultOptions())
	ctx := context.Background()
	march := cache.CompletionsKey(models.Month{Year: 2024, Month: 3})
	_, _ = store.Fetch(ctx, march, func(context.Context) (any, error) { return []models.HabitCompletion{}, nil })

	toggler := newToggler(&fakeRemote{}, store, UnmarkAllowed)
	req := Toggle{HabitID: "h1", Date: "2024-03-15"}

	early, err := toggler.Begin(req)
	require.NoError(t, err)
	early.Settle()
	assert.Equal(t, 1, toggler.Overlay().Len(), "settling before the write finishes does nothing")

	early.DeferSettle()
	require.NoError(t, early.Execute(ctx))
	assert.True(t, store.Snapshot(march).Stale, "the cache is invalidated when the write succeeds")
	assert.Equal(t, 1, toggler.Overlay().Len(), "the delta waits for Settle")
	assert.True(t, toggler.IsPending("2024-03-15", "h1"), "the key stays reserved until Settle")

	_, err = toggler.Begin(req)
	require.Error(t, err)

	early.Settle()
	early.Settle()
	assert.Equal(t, 0, toggler.Overlay().Len())
	assert.False(t, toggler.IsPending("2024-03-15", "h1"))
}

func TestToggle_DeferredSettleFailureStillReverts(t *testing.T) {
	remote := &fakeRemote{fail: apperrors.New(apperrors.KindNetwork, "record completion", "down")}
	toggler := newToggler(remote, nil, UnmarkAllowed)

	p, err := toggler.Begin(Toggle{HabitID: "h1", Date: "2024-03-15"})
	require.NoError(t, err)
	p.DeferSettle()
	require.Error(t, p.Execute(context.Background()))

	assert.Equal(t, 0, toggler.Overlay().Len())
	assert.False(t, toggler.IsPending("2024-03-15", "h1"))
	p.Settle()
	assert.Equal(t, 0, toggler.Overlay().Len())
}

func TestToggle_FutureDateRejectedBeforeRemote(t *testing.T) {
	remote := &fakeRemote{}
	toggler := newToggler(remote, nil, UnmarkAllowed)

	_, err := toggler.Begin(Toggle{HabitID: "h1", Date: "2024-03-16"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, 0, toggler.Overlay().Len())
	assert.Empty(t, remote.recorded)
	assert.False(t, toggler.IsPending("2024-03-16", "h1"))
}

func TestToggle_SameKeyRejectedWhilePending(t *testing.T) {
	remote := &fakeRemote{}
	toggler := newToggler(remote, nil, UnmarkAllowed)
	req := Toggle{HabitID: "h1", Date: "2024-03-14"}

	p, err := toggler.Begin(req)
	require.NoError(t, err)

	_, err = toggler.Begin(req)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, 1, toggler.Overlay().Len())

	require.NoError(t, p.Execute(context.Background()))
	assert.Error(t, p.Execute(context.Background()), "second Execute must not resend")
	assert.Len(t, remote.recorded, 1)

	p2, err := toggler.Begin(req)
	require.NoError(t, err)
	p2.Discard()
	assert.Equal(t, 0, toggler.Overlay().Len())
	assert.False(t, toggler.IsPending(req.Date, req.HabitID))
}

func TestToggle_DifferentKeysAreIndependent(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{})}
	toggler := newToggler(remote, nil, UnmarkAllowed)

	p1, err := toggler.Begin(Toggle{HabitID: "h1", Date: "2024-03-14"})
	require.NoError(t, err)
	p2, err := toggler.Begin(Toggle{HabitID: "h2", Date: "2024-03-14"})
	require.NoError(t, err)
	assert.Equal(t, 2, toggler.Overlay().Len())

	errs := make(chan error, 2)
	go func() { errs <- p2.Execute(context.Background()) }()
	go func() { errs <- p1.Execute(context.Background()) }()
	remote.gate <- struct{}{}
	remote.gate <- struct{}{}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	assert.ElementsMatch(t, []string{"2024-03-14-h1", "2024-03-14-h2"}, remote.recorded)
	assert.Equal(t, 0, toggler.Overlay().Len())
}

func TestToggle_UnmarkPolicies(t *testing.T) {
	records := []models.HabitCompletion{
		{ID: "c2", HabitID: "h1", CompletionDate: "2024-03-01"},
		{ID: "c1", HabitID: "h1", CompletionDate: "2024-03-01"},
	}
	past := Toggle{HabitID: "h1", Date: "2024-03-01", Completed: true, Records: records}
	today := Toggle{HabitID: "h1", Date: "2024-03-15", Completed: true, Records: []models.HabitCompletion{{ID: "c7"}}}

	tests := []struct {
		name    string
		policy  UnmarkPolicy
		req     Toggle
		wantErr bool
		deleted []string
	}{
		{"allowed past", UnmarkAllowed, past, false, []string{"c1", "c2"}},
		{"today-only past", UnmarkTodayOnly, past, true, nil},
		{"today-only today", UnmarkTodayOnly, today, false, []string{"c7"}},
		{"never today", UnmarkNever, today, true, nil},
		{"allowed without records", UnmarkAllowed, Toggle{HabitID: "h1", Date: "2024-03-02", Completed: true}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			toggler := newToggler(remote, nil, tt.policy)
			err := toggler.Run(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				assert.Empty(t, remote.deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.deleted, remote.deleted)
		})
	}
}

func TestParseUnmarkPolicy(t *testing.T) {
	for in, want := range map[string]UnmarkPolicy{"allowed": UnmarkAllowed, "Today": UnmarkTodayOnly, "never": UnmarkNever, "": UnmarkTodayOnly} {
		got, err := ParseUnmarkPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseUnmarkPolicy("sometimes")
	assert.Error(t, err)
}

func TestGoalDelete_InvalidatesGoalsAndEveryMonth(t *testing.T) {
	store := cache.New(cache.DefaultOptions())
	ctx := context.Background()
	var goals, march, april atomic.Int32
	goalsLoad := func(context.Context) (any, error) { goals.Add(1); return []models.Goal{}, nil }
	marchLoad := func(context.Context) (any, error) { march.Add(1); return []models.HabitCompletion{}, nil }
	aprilLoad := func(context.Context) (any, error) { april.Add(1); return []models.HabitCompletion{}, nil }
	marchKey := cache.CompletionsKey(models.Month{Year: 2024, Month: 3})
	aprilKey := cache.CompletionsKey(models.Month{Year: 2024, Month: 4})

	_, _ = store.Fetch(ctx, cache.GoalsKey(), goalsLoad)
	_, _ = store.Fetch(ctx, marchKey, marchLoad)
	_, _ = store.Fetch(ctx, aprilKey, aprilLoad)

	remote := &fakeRemote{}
	editor := NewGoalEditor(NewCoordinator(store), remote)
	p, err := editor.BeginDelete(models.Goal{ID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 1, editor.Overlay().Len())
	require.NoError(t, p.Execute(ctx))

	_, _ = store.Fetch(ctx, cache.GoalsKey(), goalsLoad)
	_, _ = store.Fetch(ctx, marchKey, marchLoad)
	_, _ = store.Fetch(ctx, aprilKey, aprilLoad)
	assert.Equal(t, int32(2), goals.Load())
	assert.Equal(t, int32(2), march.Load())
	assert.Equal(t, int32(2), april.Load())
	assert.Equal(t, []string{"g1"}, remote.goalsDel)
	assert.Equal(t, 0, editor.Overlay().Len())
}

func TestGoalEditor_CreateAndMove(t *testing.T) {
	remote := &fakeRemote{}
	editor := NewGoalEditor(NewCoordinator(nil), remote)
	ctx := context.Background()

	_, err := editor.BeginCreate("  ", "1", []string{"Run"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	_, err = editor.BeginCreate("Get fit", "1", []string{" ", ""})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	p, err := editor.BeginCreate(" Get fit ", "1", []string{"Run", " ", "Stretch"})
	require.NoError(t, err)
	deltas := editor.Overlay().Values()
	require.Len(t, deltas, 1)
	assert.Equal(t, models.DeltaCreate, deltas[0].Op)
	assert.Len(t, deltas[0].Goal.Habits, 2)
	require.NoError(t, p.Execute(ctx))
	require.Len(t, remote.created, 1)
	assert.Equal(t, api.NewGoal{Description: "Get fit", Habits: []string{"Run", "Stretch"}, CategoryID: "1"}, remote.created[0])

	goal := models.Goal{ID: "g1", CategoryID: "1"}
	_, err = editor.BeginMove(goal, "1")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	remote.fail = apperrors.New(apperrors.KindNotFound, "move goal", "goal not found")
	p, err = editor.BeginMove(goal, "2")
	require.NoError(t, err)
	assert.True(t, editor.IsPending("g1"))
	err = p.Execute(ctx)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, 0, editor.Overlay().Len())
	assert.False(t, editor.IsPending("g1"))
}

func TestCategoryEditor(t *testing.T) {
	store := cache.New(cache.DefaultOptions())
	ctx := context.Background()
	load := func(context.Context) (any, error) { return []models.Goal{}, nil }
	_, _ = store.Fetch(ctx, cache.CategoriesKey(), load)
	_, _ = store.Fetch(ctx, cache.GoalsKey(), load)

	remote := &fakeRemote{}
	editor := NewCategoryEditor(NewCoordinator(store), remote)

	_, err := editor.BeginCreate("   ")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, run(editor.BeginCreate(" Health ")))
	assert.Equal(t, []string{"Health"}, remote.createdCa)
	assert.True(t, store.Snapshot(cache.CategoriesKey()).Stale)
	assert.False(t, store.Snapshot(cache.GoalsKey()).Stale)

	cat := models.Category{ID: "1", Name: "Health"}
	_, err = editor.BeginRename(cat, "Health")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	require.NoError(t, run(editor.BeginRename(cat, "Fitness")))
	assert.Equal(t, []string{"1=Fitness"}, remote.renamed)

	_, _ = store.Fetch(ctx, cache.CategoriesKey(), load)
	require.NoError(t, run(editor.BeginDelete(cat)))
	assert.Equal(t, []string{"1"}, remote.catsDel)
	assert.True(t, store.Snapshot(cache.CategoriesKey()).Stale)
	assert.True(t, store.Snapshot(cache.GoalsKey()).Stale)
	assert.Equal(t, 0, editor.Overlay().Len())
}

func run(p *Pending, err error) error {
	if err != nil {
		return err
	}
	return p.Execute(context.Background())
}

func TestOverlay_PreservesOrder(t *testing.T) {
	o := NewOverlay[int]()
	o.Set("a", 1)
	o.Set("b", 2)
	o.Set("a", 3)
	o.Set("c", 4)
	o.Delete("b")
	o.Delete("missing")

	assert.Equal(t, []int{3, 4}, o.Values())
	v, ok := o.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, o.Len())
}
