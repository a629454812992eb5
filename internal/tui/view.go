package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/tui/components/calendar"
	"github.com/julianstephens/goaltrack/internal/tui/components/stats"
	"github.com/julianstephens/goaltrack/internal/tui/handlers"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var content string
	switch m.State {
	case constants.StateCalendar:
		content = m.viewCalendar()
	case constants.StateGoals:
		content = m.viewGoals()
	case constants.StateStats:
		content = m.viewStats()
	default:
		content = m.viewForm()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewBanner(),
		docStyle.Render(content),
		m.viewNotification(),
		m.Help.View(m),
	)
}

func (m Model) viewTabs() string {
	titles := []struct {
		state constants.SessionState
		title string
	}{
		{constants.StateCalendar, "Calendar"},
		{constants.StateGoals, "Goals"},
		{constants.StateStats, "Stats"},
	}
	active := m.State
	if handlers.IsForm(active) {
		active = m.PreviousState
	}

	var tabs []string
	for _, t := range titles {
		if t.state == active {
			tabs = append(tabs, activeTabStyle.Render(t.title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewBanner() string {
	if !m.ShowEmailPrompt {
		return ""
	}
	return warningStyle.Render("Please verify your email address. Press v to hide this reminder.")
}

func (m Model) viewNotification() string {
	if m.Notification == nil {
		return ""
	}
	if m.Notification.Error {
		return errorStyle.Render("✗ "+m.Notification.Message) + mutedStyle.Render("  (esc to dismiss)")
	}
	return noticeStyle.Render("✓ " + m.Notification.Message)
}

func (m Model) viewForm() string {
	if m.Form == nil {
		return m.Spinner.View() + " Loading questionnaire…"
	}
	view := m.Form.View()
	if m.FormError != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, errorStyle.Render(m.FormError))
	}
	return view
}

// viewLoad returns the loading or error state of views, if any. Data
// already on screen stays visible while it is refreshed.
func (m Model) viewLoad(what string, views ...constants.ViewID) (string, bool) {
	for _, v := range views {
		l := m.Load(v)
		if l.FirstLoad() {
			return m.Spinner.View() + " Loading " + what + "…", true
		}
		if l.Err != nil && !l.Loaded {
			return errorStyle.Render("Could not load "+what+": "+apperrors.UserMessage(l.Err)) +
				"\n" + mutedStyle.Render("Press r to retry."), true
		}
	}
	return "", false
}

func (m Model) viewCategoryTabs() string {
	var tabs []string
	for _, g := range m.Groups() {
		name := g.Category.Name
		if m.Categories != nil && m.Categories.IsPending(g.Category.ID) {
			name = "⋯ " + name
		}
		if g.Category.ID == m.Selection.CategoryID {
			tabs = append(tabs, activeCategoryStyle.Render(name))
		} else {
			tabs = append(tabs, categoryStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

const noGoalsMessage = "No goals with habits yet.\nOpen the Goals view and press 'a' to add one."

func (m Model) viewCalendar() string {
	if s, ok := m.viewLoad("goals", constants.ViewCategories, constants.ViewGoals); ok {
		return s
	}
	if len(m.Groups()) == 0 {
		return mutedStyle.Render(noGoalsMessage)
	}

	var body string
	if s, ok := m.viewLoad("completions", constants.ViewCompletions); ok {
		body = s
	} else if m.Load(constants.ViewCompletions).Err != nil && m.CompletionsMonth != m.Selection.Month {
		body = errorStyle.Render("Could not load completions: "+apperrors.UserMessage(m.Load(constants.ViewCompletions).Err)) +
			"\n" + mutedStyle.Render("Press r to retry.")
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			calendar.View(m.calendarProps()),
			"    ",
			m.viewHabitRows(),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewCategoryTabs(), "", body)
}

func (m Model) calendarProps() calendar.Props {
	month := m.Selection.Month
	habits := handlers.ScopedHabits(&m.Model)
	byDate := m.MonthCompletions()

	done := make(map[int]int)
	for day := 1; day <= month.Days(); day++ {
		for _, h := range habits {
			if byDate.Completed(day, h.ID) {
				done[day]++
			}
		}
	}

	pending := make(map[int]bool)
	if m.Toggler != nil {
		for day := 1; day <= month.Days(); day++ {
			for _, h := range habits {
				if m.Toggler.IsPending(month.Date(day), h.ID) {
					pending[day] = true
				}
			}
		}
	}

	today := m.Today()
	todayDay := 0
	if models.MonthOf(today) == month {
		todayDay = today.Day()
	}
	return calendar.Props{
		Month:      month,
		Weeks:      derive.CalendarGrid(month),
		Done:       done,
		Habits:     len(habits),
		Selected:   m.Selection.Date.Day(),
		Selectable: m.SelectableDays(),
		Today:      todayDay,
		Pending:    pending,
	}
}

func (m Model) viewHabitRows() string {
	habits := handlers.ScopedHabits(&m.Model)
	byDate := m.MonthCompletions()
	date := m.Selection.DateString()

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Habits on " + date))
	b.WriteString("\n\n")
	for i, h := range habits {
		cursor := "  "
		if i == m.HabitCursor {
			cursor = cursorStyle.Render("> ")
		}
		mark := "[ ]"
		if byDate.Completed(m.Selection.Date.Day(), h.ID) {
			mark = "[✓]"
		}
		title := h.Title
		if m.Toggler != nil && m.Toggler.IsPending(date, h.ID) {
			title = mutedStyle.Render(title + " ⋯")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, title)
	}
	return b.String()
}

func (m Model) viewGoals() string {
	if s, ok := m.viewLoad("goals", constants.ViewCategories, constants.ViewGoals); ok {
		return s
	}
	return m.GoalList.View()
}

func (m Model) viewStats() string {
	if s, ok := m.viewLoad("goals", constants.ViewCategories, constants.ViewGoals); ok {
		return s
	}
	if len(m.Groups()) == 0 {
		return mutedStyle.Render(noGoalsMessage)
	}
	if s, ok := m.viewLoad("completions", constants.ViewCompletions); ok {
		return lipgloss.JoinVertical(lipgloss.Left, m.viewCategoryTabs(), "", s)
	}

	month := m.Selection.Month
	goals := m.ScopedGoals()
	scoped := scopeCompletions(m.MonthCompletions(), derive.HabitsInScope(goals), month.Days())

	cat, _ := m.SelectedCategory()
	props := stats.Props{
		Title:   fmt.Sprintf("%s, %s", cat.Name, month.First(m.Location).Format("January 2006")),
		Summary: derive.MonthlyFromDays(scoped, goals, month.Days()),
		Habits:  derive.HabitStats(goals, scoped, m.Selection.Date.Day()),
		Chart:   derive.ChartSeries(scoped, month.Days()),
		MaxBar:  max(10, m.Width/3),
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewCategoryTabs(), "", stats.View(props))
}

// scopeCompletions keeps only the completions of habits.
func scopeCompletions(byDate derive.DayCompletions, habits []models.Habit, days int) derive.DayCompletions {
	scoped := make(derive.DayCompletions)
	for day := 1; day <= days; day++ {
		for _, h := range habits {
			if !byDate.Completed(day, h.ID) {
				continue
			}
			if scoped[day] == nil {
				scoped[day] = make(map[string]bool)
			}
			scoped[day][h.ID] = true
		}
	}
	return scoped
}
