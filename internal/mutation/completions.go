package mutation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/goaltrack/internal/cache"
	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/utils"
	"github.com/julianstephens/goaltrack/internal/validation"
)

// UnmarkPolicy decides whether a completion may be removed.
type UnmarkPolicy int

const (
	// UnmarkAllowed permits removing completions on any past day.
	UnmarkAllowed UnmarkPolicy = iota
	// UnmarkTodayOnly permits removing only today's completions.
	UnmarkTodayOnly
	// UnmarkNever forbids removing completions.
	UnmarkNever
)

func (p UnmarkPolicy) String() string {
	switch p {
	case UnmarkTodayOnly:
		return "today"
	case UnmarkNever:
		return "never"
	default:
		return "allowed"
	}
}

// ParseUnmarkPolicy parses "allowed", "today" or "never".
func ParseUnmarkPolicy(s string) (UnmarkPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allowed", "always", "any":
		return UnmarkAllowed, nil
	case "today", "today-only", "":
		return UnmarkTodayOnly, nil
	case "never":
		return UnmarkNever, nil
	default:
		return UnmarkTodayOnly, fmt.Errorf("invalid unmark policy %q (expected allowed, today or never)", s)
	}
}

// CompletionRemote is the subset of the goals API used for completions.
type CompletionRemote interface {
	RecordCompletion(ctx context.Context, habitID, date string) (models.HabitCompletion, error)
	DeleteCompletion(ctx context.Context, id string) error
}

// CompletionKey is the mutation key for a habit on a day.
func CompletionKey(date, habitID string) string {
	return date + "-" + habitID
}

// Toggle asks to flip one habit on one day.
type Toggle struct {
	HabitID string
	Date    string
	// Completed is the state currently displayed; the toggle flips it.
	Completed bool
	// Records are the existing completion records for the pair. They are
	// required when unmarking.
	Records []models.HabitCompletion
}

// CompletionToggler marks and unmarks habits.
type CompletionToggler struct {
	coord   *Coordinator
	remote  CompletionRemote
	overlay *Overlay[models.CompletionDelta]
	policy  UnmarkPolicy
	clock   utils.Clock
	loc     *time.Location
	refetch func(ctx context.Context, month models.Month) error
}

// TogglerOption configures a CompletionToggler.
type TogglerOption func(*CompletionToggler)

// WithClock sets the clock and zone that define "today".
func WithClock(clock utils.Clock, loc *time.Location) TogglerOption {
	return func(t *CompletionToggler) {
		t.clock = clock
		t.loc = loc
	}
}

// WithMonthRefetch reloads the affected month after a successful toggle.
func WithMonthRefetch(fn func(ctx context.Context, month models.Month) error) TogglerOption {
	return func(t *CompletionToggler) { t.refetch = fn }
}

// NewCompletionToggler creates a toggler applying policy to unmarks.
func NewCompletionToggler(coord *Coordinator, remote CompletionRemote, policy UnmarkPolicy, opts ...TogglerOption) *CompletionToggler {
	t := &CompletionToggler{
		coord:   coord,
		remote:  remote,
		overlay: NewOverlay[models.CompletionDelta](),
		policy:  policy,
		clock:   utils.SystemClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Overlay returns the pending completion deltas.
func (t *CompletionToggler) Overlay() *Overlay[models.CompletionDelta] {
	return t.overlay
}

// Policy returns the unmark policy.
func (t *CompletionToggler) Policy() UnmarkPolicy {
	return t.policy
}

// IsPending reports whether the pair has a toggle in flight.
func (t *CompletionToggler) IsPending(date, habitID string) bool {
	return t.coord.IsPending(CompletionKey(date, habitID))
}

// Begin validates the toggle and applies it optimistically.
func (t *CompletionToggler) Begin(req Toggle) (*Pending, error) {
	key := CompletionKey(req.Date, req.HabitID)
	today := utils.Today(t.clock, t.loc)
	mark := !req.Completed

	var month models.Month
	if d, err := utils.ParseDateInLocation(req.Date, today.Location()); err == nil {
		month = models.MonthOf(d)
	}

	m := Mutation{
		Key:  key,
		Name: "toggle completion",
		Validate: func() error {
			if err := validation.ID("habit", req.HabitID); err != nil {
				return err
			}
			d, err := validation.CompletionDate(req.Date, today)
			if err != nil {
				return err
			}
			if mark {
				return nil
			}
			return t.checkUnmark(d, today, req.Records)
		},
		Apply: func() {
			t.overlay.Set(key, models.CompletionDelta{Date: req.Date, HabitID: req.HabitID, Completed: mark})
		},
		Revert:      func() { t.overlay.Delete(key) },
		Settle:      func() { t.overlay.Delete(key) },
		Invalidates: []cache.Pattern{cache.Exact(cache.CompletionsKey(month))},
		Remote: func(ctx context.Context) error {
			if mark {
				_, err := t.remote.RecordCompletion(ctx, req.HabitID, req.Date)
				return err
			}
			return t.deleteAll(ctx, req.Records, month)
		},
	}
	if t.refetch != nil {
		m.Refetch = func(ctx context.Context) error { return t.refetch(ctx, month) }
	}
	return t.coord.Begin(m)
}

// Run toggles and waits for the remote.
func (t *CompletionToggler) Run(ctx context.Context, req Toggle) error {
	p, err := t.Begin(req)
	if err != nil {
		return err
	}
	return p.Execute(ctx)
}

func (t *CompletionToggler) checkUnmark(d, today time.Time, records []models.HabitCompletion) error {
	switch t.policy {
	case UnmarkNever:
		return apperrors.Validation("unmark completion", "completions cannot be removed")
	case UnmarkTodayOnly:
		if !utils.SameDay(d, today) {
			return apperrors.Newf(apperrors.KindValidation, "unmark completion",
				"only today's completions can be removed, not %s", d.Format(constants.DateFormat))
		}
	}
	if len(records) == 0 {
		return apperrors.Validation("unmark completion", "no completion record to remove")
	}
	return nil
}

// deleteAll removes every record for the pair in id order. A partial
// failure still invalidates the month since some records are gone.
func (t *CompletionToggler) deleteAll(ctx context.Context, records []models.HabitCompletion, month models.Month) error {
	sorted := append([]models.HabitCompletion(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i, r := range sorted {
		if err := t.remote.DeleteCompletion(ctx, r.ID); err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				continue
			}
			if i > 0 && t.coord.cache != nil {
				t.coord.cache.Invalidate(cache.Exact(cache.CompletionsKey(month)))
			}
			return err
		}
	}
	return nil
}
