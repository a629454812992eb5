package handlers

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
	"github.com/julianstephens/goaltrack/internal/selection"
	"github.com/julianstephens/goaltrack/internal/tui/components/goallist"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

// Fetch results carry the sequence number of the request that produced them
// so a superseded request never overwrites newer state.

type CategoriesLoadedMsg struct {
	Seq        uint64
	Categories []models.Category
	Err        error
}

type GoalsLoadedMsg struct {
	Seq   uint64
	Goals []models.Goal
	Err   error
}

type CompletionsLoadedMsg struct {
	Seq         uint64
	Month       models.Month
	Completions []models.HabitCompletion
	Err         error
}

type QuizLoadedMsg struct {
	Seq      uint64
	Response models.QuizResponse
	Found    bool
	Err      error
}

// fetch is a load whose sequence number is already taken on the event loop.
type fetch func(ctx context.Context) tea.Msg

func (f fetch) cmd() tea.Cmd {
	return func() tea.Msg { return f(context.Background()) }
}

func fetchCategories(m *state.Model) fetch {
	seq := m.Load(constants.ViewCategories).Begin()
	entities := m.Entities
	return func(ctx context.Context) tea.Msg {
		cats, err := entities.Categories(ctx)
		return CategoriesLoadedMsg{Seq: seq, Categories: cats, Err: err}
	}
}

func fetchGoals(m *state.Model) fetch {
	seq := m.Load(constants.ViewGoals).Begin()
	entities := m.Entities
	return func(ctx context.Context) tea.Msg {
		goals, err := entities.Goals(ctx)
		return GoalsLoadedMsg{Seq: seq, Goals: goals, Err: err}
	}
}

func fetchCompletions(m *state.Model, month models.Month) fetch {
	seq := m.Load(constants.ViewCompletions).Begin()
	entities := m.Entities
	return func(ctx context.Context) tea.Msg {
		completions, err := entities.Completions(ctx, month)
		return CompletionsLoadedMsg{Seq: seq, Month: month, Completions: completions, Err: err}
	}
}

// fetchView loads one main view; completions follow the selected month.
func fetchView(m *state.Model, v constants.ViewID) fetch {
	switch v {
	case constants.ViewCategories:
		return fetchCategories(m)
	case constants.ViewGoals:
		return fetchGoals(m)
	case constants.ViewCompletions:
		return fetchCompletions(m, m.Selection.Month)
	}
	return nil
}

// FetchCategories loads the category collection through the Entity Cache.
func FetchCategories(m *state.Model) tea.Cmd {
	return fetchCategories(m).cmd()
}

// FetchGoals loads the goal collection through the Entity Cache.
func FetchGoals(m *state.Model) tea.Cmd {
	return fetchGoals(m).cmd()
}

// FetchCompletions loads one month of completions through the Entity Cache.
func FetchCompletions(m *state.Model, month models.Month) tea.Cmd {
	return fetchCompletions(m, month).cmd()
}

// FetchQuiz loads the saved questionnaire. A missing quiz is not an error.
func FetchQuiz(m *state.Model) tea.Cmd {
	seq := m.Load(constants.ViewQuiz).Begin()
	client := m.Client
	return func() tea.Msg {
		resp, found, err := client.GetQuiz(context.Background())
		return QuizLoadedMsg{Seq: seq, Response: resp, Found: found, Err: err}
	}
}

// Reload fetches everything the main views show.
func Reload(m *state.Model) tea.Cmd {
	return tea.Batch(
		FetchCategories(m),
		FetchGoals(m),
		FetchCompletions(m, m.Selection.Month),
	)
}

// HandleDataMessages applies fetch results.
func HandleDataMessages(m *state.Model, msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case CategoriesLoadedMsg:
		if !m.Load(constants.ViewCategories).Finish(msg.Seq, msg.Err) {
			return true, nil
		}
		if msg.Err != nil {
			logger.Warn("Failed to load categories", "error", msg.Err)
			return true, nil
		}
		m.CategoryData = msg.Categories
		return true, Reconcile(m)

	case GoalsLoadedMsg:
		if !m.Load(constants.ViewGoals).Finish(msg.Seq, msg.Err) {
			return true, nil
		}
		if msg.Err != nil {
			logger.Warn("Failed to load goals", "error", msg.Err)
			return true, nil
		}
		m.GoalData = msg.Goals
		return true, Reconcile(m)

	case CompletionsLoadedMsg:
		// Every month change starts its own fetch, so a result for another
		// month is never the live one.
		if msg.Month != m.Selection.Month {
			return true, nil
		}
		if !m.Load(constants.ViewCompletions).Finish(msg.Seq, msg.Err) {
			return true, nil
		}
		if msg.Err != nil {
			logger.Warn("Failed to load completions", "month", msg.Month.String(), "error", msg.Err)
			return true, nil
		}
		m.CompletionData = msg.Completions
		m.CompletionsMonth = msg.Month
		return true, nil

	case QuizLoadedMsg:
		if !m.Load(constants.ViewQuiz).Finish(msg.Seq, msg.Err) {
			return true, nil
		}
		return true, quizLoaded(m, msg)
	}
	return false, nil
}

// Reconcile refreshes everything derived from categories and goals. The
// selection only settles once both collections are known.
func Reconcile(m *state.Model) tea.Cmd {
	if m.Load(constants.ViewCategories).Loaded && m.Load(constants.ViewGoals).Loaded {
		before := m.Selection.CategoryID
		next, err := selection.Reduce(m.Selection, selection.CategoriesLoaded{Groups: m.Groups()}, m.Today())
		if err == nil {
			m.Selection = next
		}
		if m.Selection.CategoryID != before {
			m.HabitCursor = 0
		}
	}
	clampHabitCursor(m)
	return RefreshGoalList(m)
}

// RefreshGoalList rebuilds the goal list from the visible goals.
func RefreshGoalList(m *state.Model) tea.Cmd {
	names := make(map[string]string)
	for _, c := range m.VisibleCategories() {
		names[c.ID] = c.Name
	}

	goals := m.VisibleGoals()
	items := make([]goallist.Item, 0, len(goals))
	for _, g := range goals {
		category, ok := names[g.CategoryID]
		if !ok {
			category = "Uncategorized"
		}
		items = append(items, goallist.Item{
			Goal:     g,
			Category: category,
			Pending:  m.Goals != nil && m.Goals.IsPending(g.ID),
		})
	}
	return m.GoalList.SetItems(items)
}

// ScopedHabits are the habits tracked on the calendar for the selected
// category.
func ScopedHabits(m *state.Model) []models.Habit {
	return derive.HabitsInScope(m.ScopedGoals())
}

func clampHabitCursor(m *state.Model) {
	n := len(ScopedHabits(m))
	if m.HabitCursor >= n {
		m.HabitCursor = n - 1
	}
	if m.HabitCursor < 0 {
		m.HabitCursor = 0
	}
}

func quizLoaded(m *state.Model, msg QuizLoadedMsg) tea.Cmd {
	if m.State != constants.StateQuiz {
		return nil
	}
	if msg.Err != nil {
		m.State = m.PreviousState
		return NotifyError(m, "Could not load questionnaire", msg.Err)
	}
	if msg.Found {
		m.QuizDone = true
		m.Quiz = quiz.Resume(msg.Response)
		m.State = m.PreviousState
		return Notify(m, "You have already completed the questionnaire.")
	}
	return openQuizForm(m)
}
