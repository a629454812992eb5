package handlers

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/mutation"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

// MutationDoneMsg reports the outcome of a remote write. Loaded holds the
// views fetched again after the write; they are applied before the
// optimistic delta is settled so the view never falls back to data from
// before the change.
type MutationDoneMsg struct {
	Name    string
	Success string
	Err     error
	Pending *mutation.Pending
	Loaded  []tea.Msg
}

type QuizSavedMsg struct {
	Err error
}

// execute runs p off the event loop, then reloads the listed views. The
// optimistic change is already visible and stays until the reloaded data
// is in place.
func execute(m *state.Model, p *mutation.Pending, name, success string, reload ...constants.ViewID) tea.Cmd {
	p.DeferSettle()
	fetches := make([]fetch, 0, len(reload))
	for _, v := range reload {
		if f := fetchView(m, v); f != nil {
			fetches = append(fetches, f)
		}
	}
	return func() tea.Msg {
		ctx := context.Background()
		msg := MutationDoneMsg{Name: name, Success: success, Pending: p}
		msg.Err = p.Execute(ctx)
		// A failed write invalidated nothing, so these are served from the
		// cache and close out the sequence numbers taken above.
		for _, f := range fetches {
			msg.Loaded = append(msg.Loaded, f(ctx))
		}
		return msg
	}
}

// ToggleSelected flips the habit under the cursor on the selected date.
func ToggleSelected(m *state.Model) tea.Cmd {
	if m.Toggler == nil {
		return nil
	}
	habits := ScopedHabits(m)
	if m.HabitCursor < 0 || m.HabitCursor >= len(habits) {
		return nil
	}
	if m.CompletionsMonth != m.Selection.Month || !m.Load(constants.ViewCompletions).Loaded {
		return Notify(m, "Completions are still loading.")
	}

	habit := habits[m.HabitCursor]
	date := m.Selection.DateString()
	if m.Toggler.IsPending(date, habit.ID) {
		return nil
	}

	records := derive.RecordsFor(m.CompletionData, habit.ID, date)
	p, err := m.Toggler.Begin(mutation.Toggle{
		HabitID:   habit.ID,
		Date:      date,
		Completed: m.MonthCompletions().Completed(m.Selection.Date.Day(), habit.ID),
		Records:   records,
	})
	if err != nil {
		return NotifyError(m, "", err)
	}
	return execute(m, p, "update "+habit.Title, "", constants.ViewCompletions)
}

func createCategory(m *state.Model, name string) (tea.Cmd, error) {
	p, err := m.Categories.BeginCreate(name)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "create category", "Category created.", constants.ViewCategories), nil
}

func renameCategory(m *state.Model, cat models.Category, name string) (tea.Cmd, error) {
	p, err := m.Categories.BeginRename(cat, name)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "rename category", "Category renamed.", constants.ViewCategories), nil
}

func deleteCategory(m *state.Model, cat models.Category) (tea.Cmd, error) {
	p, err := m.Categories.BeginDelete(cat)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "delete category", "Category deleted.",
		constants.ViewCategories, constants.ViewGoals, constants.ViewCompletions), nil
}

func createGoal(m *state.Model, description, categoryID string, habits []string) (tea.Cmd, error) {
	p, err := m.Goals.BeginCreate(description, categoryID, habits)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "create goal", "Goal created.", constants.ViewGoals), nil
}

func moveGoal(m *state.Model, goal models.Goal, categoryID string) (tea.Cmd, error) {
	p, err := m.Goals.BeginMove(goal, categoryID)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "move goal", "Goal moved.", constants.ViewGoals), nil
}

func deleteGoal(m *state.Model, goal models.Goal) (tea.Cmd, error) {
	p, err := m.Goals.BeginDelete(goal)
	if err != nil {
		return nil, err
	}
	return execute(m, p, "delete goal", "Goal deleted.", constants.ViewGoals, constants.ViewCompletions), nil
}

func saveQuiz(m *state.Model) tea.Cmd {
	client, resp := m.Client, m.Quiz.Response
	return func() tea.Msg {
		return QuizSavedMsg{Err: client.SaveQuiz(context.Background(), resp)}
	}
}

// HandleMutationMessages applies the outcome of remote writes.
func HandleMutationMessages(m *state.Model, msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case MutationDoneMsg:
		var cmds []tea.Cmd
		for _, loaded := range msg.Loaded {
			_, cmd := HandleDataMessages(m, loaded)
			cmds = append(cmds, cmd)
		}
		if msg.Pending != nil {
			msg.Pending.Settle()
		}
		cmds = append(cmds, RefreshGoalList(m))
		if msg.Err != nil {
			cmds = append(cmds, NotifyError(m, "Could not "+msg.Name, msg.Err))
			return true, tea.Batch(cmds...)
		}
		if msg.Success != "" {
			cmds = append(cmds, Notify(m, msg.Success))
		}
		return true, tea.Batch(cmds...)

	case QuizSavedMsg:
		if msg.Err != nil {
			return true, NotifyError(m, "Could not save questionnaire (press p to retry)", msg.Err)
		}
		m.QuizDone = true
		return true, Notify(m, "Questionnaire saved. Thanks!")
	}
	return false, nil
}
