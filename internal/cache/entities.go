package cache

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/models"
)

// Source is the remote the entity cache reads through to.
type Source interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListGoals(ctx context.Context) ([]models.Goal, error)
	ListCompletionsRange(ctx context.Context, start, end string) ([]models.HabitCompletion, error)
	ListCompletionsByDate(ctx context.Context, date string) ([]models.HabitCompletion, error)
	SupportsCompletionRange() bool
}

// MonthStrategy is how a month of completions is loaded.
type MonthStrategy int

const (
	// MonthRange issues one range request.
	MonthRange MonthStrategy = iota
	// MonthPerDay issues one request per day of the month and merges the
	// results. This is a degraded mode for servers without a range endpoint.
	MonthPerDay
)

func (s MonthStrategy) String() string {
	if s == MonthPerDay {
		return "per-day"
	}
	return "range"
}

// Progress reports per-day month loading.
type Progress func(done, total int)

// EntitiesOption configures Entities.
type EntitiesOption func(*Entities)

// WithPerDayFallback permits the per-day month strategy when the source has
// no range endpoint. Without it such months fail to load.
func WithPerDayFallback(allowed bool) EntitiesOption {
	return func(e *Entities) { e.allowPerDay = allowed }
}

// WithPerDayConcurrency bounds concurrent requests in per-day mode.
func WithPerDayConcurrency(n int) EntitiesOption {
	return func(e *Entities) {
		if n > 0 {
			e.perDayLimit = n
		}
	}
}

// WithProgress installs a callback for per-day month loading.
func WithProgress(p Progress) EntitiesOption {
	return func(e *Entities) { e.progress = p }
}

// Entities is the typed view over a Store for the goals domain.
type Entities struct {
	store       *Store
	src         Source
	allowPerDay bool
	perDayLimit int
	progress    Progress
}

// NewEntities binds store to src.
func NewEntities(store *Store, src Source, opts ...EntitiesOption) *Entities {
	e := &Entities{store: store, src: src, perDayLimit: 4}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Entities) Store() *Store {
	return e.store
}

// MonthStrategy reports which strategy month fetches use, or an error when
// neither is available.
func (e *Entities) MonthStrategy() (MonthStrategy, error) {
	if e.src.SupportsCompletionRange() {
		return MonthRange, nil
	}
	if e.allowPerDay {
		return MonthPerDay, nil
	}
	return MonthRange, apperrors.Validation("load month",
		"the goals service has no completion range endpoint and per-day fallback is disabled")
}

// Categories returns the customer's categories.
func (e *Entities) Categories(ctx context.Context) ([]models.Category, error) {
	v, err := e.store.Fetch(ctx, CategoriesKey(), func(ctx context.Context) (any, error) {
		return e.src.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Category)), nil
}

// Goals returns the customer's goals.
func (e *Entities) Goals(ctx context.Context) ([]models.Goal, error) {
	v, err := e.store.Fetch(ctx, GoalsKey(), func(ctx context.Context) (any, error) {
		return e.src.ListGoals(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Goal)), nil
}

// Completions returns the completions recorded in month.
func (e *Entities) Completions(ctx context.Context, month models.Month) ([]models.HabitCompletion, error) {
	strategy, err := e.MonthStrategy()
	if err != nil {
		return nil, err
	}
	v, err := e.store.Fetch(ctx, CompletionsKey(month), func(ctx context.Context) (any, error) {
		if strategy == MonthPerDay {
			return e.loadMonthPerDay(ctx, month)
		}
		return e.loadMonthRange(ctx, month)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.HabitCompletion)), nil
}

func (e *Entities) loadMonthRange(ctx context.Context, month models.Month) ([]models.HabitCompletion, error) {
	completions, err := e.src.ListCompletionsRange(ctx, month.StartDate(), month.EndDate())
	if err != nil {
		return nil, err
	}
	return inMonth(completions, month), nil
}

func (e *Entities) loadMonthPerDay(ctx context.Context, month models.Month) ([]models.HabitCompletion, error) {
	days := month.Days()
	logger.Warn("Loading month one day at a time", "month", month.String(), "requests", days)

	var (
		mu   sync.Mutex
		out  []models.HabitCompletion
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.perDayLimit)
	for day := 1; day <= days; day++ {
		date := month.Date(day)
		g.Go(func() error {
			completions, err := e.src.ListCompletionsByDate(gctx, date)
			if err != nil {
				return fmt.Errorf("%s: %w", date, err)
			}
			mu.Lock()
			out = append(out, completions...)
			done++
			n := done
			mu.Unlock()
			if e.progress != nil {
				e.progress(n, days)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inMonth(out, month), nil
}

// inMonth drops records outside month and orders the rest by date then id.
func inMonth(completions []models.HabitCompletion, month models.Month) []models.HabitCompletion {
	prefix := month.String() + "-"
	out := make([]models.HabitCompletion, 0, len(completions))
	for _, c := range completions {
		if len(c.CompletionDate) == len(prefix)+2 && c.CompletionDate[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompletionDate != out[j].CompletionDate {
			return out[i].CompletionDate < out[j].CompletionDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}
