// Package selection holds which category, goal, month and day are active.
// Transitions are a pure function of (state, event, today).
package selection

import (
	"time"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/utils"
)

// State is the current selection. Date always falls within Month.
type State struct {
	CategoryID string
	// GoalID is set only while a goal detail is open.
	GoalID string
	Month  models.Month
	Date   time.Time
}

// New selects today.
func New(today time.Time) State {
	today = utils.StartOfDay(today)
	return State{Month: models.MonthOf(today), Date: today}
}

// DateString formats the selected date.
func (s State) DateString() string {
	return s.Date.Format(constants.DateFormat)
}

// Event is a selection transition.
type Event interface {
	isEvent()
}

// SelectCategory selects a category. An empty ID clears the selection.
type SelectCategory struct{ ID string }

// SelectGoal opens a goal detail. An empty ID closes it.
type SelectGoal struct{ ID string }

// NextMonth moves forward one month.
type NextMonth struct{}

// PrevMonth moves back one month.
type PrevMonth struct{}

// GoToMonth jumps to a month.
type GoToMonth struct{ Month models.Month }

// SelectDate selects a day. Days after today are rejected.
type SelectDate struct{ Date time.Time }

// CategoriesLoaded reports freshly loaded category groups.
type CategoriesLoaded struct{ Groups []derive.CategoryGoals }

func (SelectCategory) isEvent()   {}
func (SelectGoal) isEvent()       {}
func (NextMonth) isEvent()        {}
func (PrevMonth) isEvent()        {}
func (GoToMonth) isEvent()        {}
func (SelectDate) isEvent()       {}
func (CategoriesLoaded) isEvent() {}

// Reduce applies ev to s. On error s is returned unchanged.
func Reduce(s State, ev Event, today time.Time) (State, error) {
	switch ev := ev.(type) {
	case SelectCategory:
		if ev.ID != s.CategoryID {
			s.GoalID = ""
		}
		s.CategoryID = ev.ID
		return s, nil

	case SelectGoal:
		s.GoalID = ev.ID
		return s, nil

	case NextMonth:
		return changeMonth(s, s.Month.Next()), nil

	case PrevMonth:
		return changeMonth(s, s.Month.Prev()), nil

	case GoToMonth:
		return changeMonth(s, ev.Month), nil

	case SelectDate:
		if utils.IsAfterDay(ev.Date, today) {
			return s, apperrors.Newf(apperrors.KindValidation, "select date",
				"%s is in the future", ev.Date.Format(constants.DateFormat))
		}
		s.Date = utils.StartOfDay(ev.Date)
		s.Month = models.MonthOf(s.Date)
		return s, nil

	case CategoriesLoaded:
		return reconcileCategory(s, ev.Groups), nil

	default:
		return s, apperrors.Validation("selection", "unknown selection event")
	}
}

// changeMonth moves to m and pulls Date back inside it.
func changeMonth(s State, m models.Month) State {
	s.Month = m
	if !s.Month.Contains(s.Date) {
		loc := s.Date.Location()
		if s.Date.IsZero() {
			loc = time.Local
		}
		s.Date = m.First(loc)
	}
	return s
}

// reconcileCategory auto-selects the first category with qualifying goals
// when nothing is selected or the selected category is gone.
func reconcileCategory(s State, groups []derive.CategoryGoals) State {
	if s.CategoryID != "" {
		for _, g := range groups {
			if g.Category.ID == s.CategoryID {
				return s
			}
		}
	}
	s.GoalID = ""
	if len(groups) == 0 {
		s.CategoryID = ""
		return s
	}
	s.CategoryID = groups[0].Category.ID
	return s
}

// CanSelectDay reports whether day of s.Month may be selected.
func CanSelectDay(s State, day int, today time.Time) bool {
	if day < 1 || day > s.Month.Days() {
		return false
	}
	d := time.Date(s.Month.Year, s.Month.Month, day, 0, 0, 0, 0, today.Location())
	return !utils.IsAfterDay(d, today)
}
