package handlers

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/selection"
	"github.com/julianstephens/goaltrack/internal/tui/components/goallist"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

var mainViews = []constants.SessionState{constants.StateCalendar, constants.StateGoals, constants.StateStats}

// HandleGlobalKeys handles keys shared by every main view.
func HandleGlobalKeys(m *state.Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Quitting = true
		return true, tea.Quit
	}
	// Letters belong to the goal filter while it is open.
	if m.State == constants.StateGoals && m.GoalList.Filtering() {
		return false, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Quitting = true
		return true, tea.Quit
	case key.Matches(msg, m.Keys.Tab):
		m.State = cycle(m.State, 1)
		return true, nil
	case key.Matches(msg, m.Keys.ShiftTab):
		m.State = cycle(m.State, -1)
		return true, nil
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return true, nil
	case key.Matches(msg, m.Keys.Dismiss):
		if m.Notification != nil {
			m.Notification = nil
			return true, nil
		}
		return false, nil
	case key.Matches(msg, m.Keys.Reload):
		return true, Reload(m)
	case key.Matches(msg, m.Keys.DismissPrompt):
		return true, DismissEmailPrompt(m)
	case key.Matches(msg, m.Keys.Quiz):
		return true, OpenQuiz(m)
	case key.Matches(msg, m.Keys.AddCategory):
		return true, OpenAddCategory(m)
	case key.Matches(msg, m.Keys.RenameCategory):
		return true, OpenRenameCategory(m)
	case key.Matches(msg, m.Keys.DeleteCategory):
		return true, OpenDeleteCategory(m)
	}
	return false, nil
}

func cycle(s constants.SessionState, step int) constants.SessionState {
	for i, v := range mainViews {
		if v == s {
			return mainViews[(i+step+len(mainViews))%len(mainViews)]
		}
	}
	return s
}

// HandleCalendarKeys moves through days, months, categories and habits and
// toggles completions.
func HandleCalendarKeys(m *state.Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.Keys.PrevDay):
		return selectDay(m, -1)
	case key.Matches(msg, m.Keys.NextDay):
		return selectDay(m, 1)
	case key.Matches(msg, m.Keys.Up):
		if m.HabitCursor > 0 {
			m.HabitCursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.HabitCursor < len(ScopedHabits(m))-1 {
			m.HabitCursor++
		}
	case key.Matches(msg, m.Keys.Toggle):
		return ToggleSelected(m)
	default:
		return handleScopeKeys(m, msg)
	}
	return nil
}

// HandleStatsKeys changes the month and category the statistics cover.
func HandleStatsKeys(m *state.Model, msg tea.KeyMsg) tea.Cmd {
	return handleScopeKeys(m, msg)
}

// HandleGoalKeys forwards keys to the goal list.
func HandleGoalKeys(m *state.Model, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.GoalList, cmd = m.GoalList.Update(msg)
	return cmd
}

// HandleGoalListMessages opens the forms the goal list asks for.
func HandleGoalListMessages(m *state.Model, msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case goallist.AddGoalMsg:
		return true, OpenAddGoal(m)
	case goallist.MoveGoalMsg:
		return true, OpenMoveGoal(m, msg.Goal)
	case goallist.DeleteGoalMsg:
		return true, OpenDeleteGoal(m, msg.Goal)
	}
	return false, nil
}

func handleScopeKeys(m *state.Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.Keys.PrevMonth):
		return Select(m, selection.PrevMonth{})
	case key.Matches(msg, m.Keys.NextMonth):
		return Select(m, selection.NextMonth{})
	case key.Matches(msg, m.Keys.Today):
		return Select(m, selection.SelectDate{Date: m.Today()})
	case key.Matches(msg, m.Keys.PrevCategory):
		return selectCategory(m, -1)
	case key.Matches(msg, m.Keys.NextCategory):
		return selectCategory(m, 1)
	}
	return nil
}

// Select applies a selection event and fetches the new month when the
// event moved to one.
func Select(m *state.Model, ev selection.Event) tea.Cmd {
	before := m.Selection
	next, err := selection.Reduce(m.Selection, ev, m.Today())
	if err != nil {
		return NotifyError(m, "", err)
	}
	m.Selection = next
	if next.CategoryID != before.CategoryID {
		m.HabitCursor = 0
	}
	if next.Month != before.Month {
		return FetchCompletions(m, next.Month)
	}
	return nil
}

// selectDay moves the selected date by delta days. Future days cannot be
// selected, so moving past today does nothing.
func selectDay(m *state.Model, delta int) tea.Cmd {
	d := m.Selection.Date.AddDate(0, 0, delta)
	month := models.MonthOf(d)
	probe := m.Selection
	probe.Month = month
	if !selection.CanSelectDay(probe, d.Day(), m.Today()) {
		return nil
	}
	return Select(m, selection.SelectDate{Date: d})
}

// selectCategory steps through the category tabs, skipping categories with
// a change in flight.
func selectCategory(m *state.Model, step int) tea.Cmd {
	groups := m.Groups()
	var ids []string
	for _, g := range groups {
		if m.Categories != nil && m.Categories.IsPending(g.Category.ID) {
			continue
		}
		ids = append(ids, g.Category.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	idx := -1
	for i, id := range ids {
		if id == m.Selection.CategoryID {
			idx = i
		}
	}
	next := 0
	if idx >= 0 {
		next = (idx + step + len(ids)) % len(ids)
	}
	return Select(m, selection.SelectCategory{ID: ids[next]})
}
