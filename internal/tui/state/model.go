package state

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cache"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/mutation"
	"github.com/julianstephens/goaltrack/internal/quiz"
	"github.com/julianstephens/goaltrack/internal/selection"
	"github.com/julianstephens/goaltrack/internal/storage"
	"github.com/julianstephens/goaltrack/internal/tui/components/goallist"
	"github.com/julianstephens/goaltrack/internal/utils"
)

// Load tracks one view's request. Seq identifies the live request; results
// carrying an older sequence number are dropped.
type Load struct {
	Seq uint64
	// Applied is the sequence number of the data on screen.
	Applied uint64
	Loading bool
	Loaded  bool
	Err     error
}

// Begin starts a new request and returns its sequence number.
func (l *Load) Begin() uint64 {
	l.Seq++
	l.Loading = true
	return l.Seq
}

// Finish records the outcome of request seq. It reports false when data
// from a later request is already on screen. A result that arrives while a
// later request is still running is kept, since it is newer than what is
// shown.
func (l *Load) Finish(seq uint64, err error) bool {
	if seq <= l.Applied {
		return false
	}
	if seq == l.Seq {
		l.Loading = false
	}
	l.Err = err
	if err == nil {
		l.Applied = seq
		l.Loaded = true
	}
	return true
}

// FirstLoad reports whether nothing has been shown yet.
func (l *Load) FirstLoad() bool {
	return l.Loading && !l.Loaded && l.Err == nil
}

// Notification is a dismissible message. Errors stay until dismissed or
// replaced.
type Notification struct {
	ID      int
	Message string
	Error   bool
}

// Deps are the collaborators the TUI reads and writes through.
type Deps struct {
	Entities   *cache.Entities
	Client     *api.Client
	Coord      *mutation.Coordinator
	LocalState *storage.State
	Claims     auth.ClaimsProvider
	UserID     string
	Policy     mutation.UnmarkPolicy
	Clock      utils.Clock
	Location   *time.Location
}

// Model is the shared TUI state.
type Model struct {
	Deps

	Categories *mutation.CategoryEditor
	Goals      *mutation.GoalEditor
	Toggler    *mutation.CompletionToggler

	State         constants.SessionState
	PreviousState constants.SessionState
	Keys          KeyMap
	Help          help.Model
	Spinner       spinner.Model
	GoalList      goallist.Model

	Selection   selection.State
	HabitCursor int

	CategoryData     []models.Category
	GoalData         []models.Goal
	CompletionData   []models.HabitCompletion
	CompletionsMonth models.Month
	Loads            map[constants.ViewID]*Load

	Form             *huh.Form
	CategoryForm     *forms.CategoryFormModel
	GoalForm         *forms.GoalFormModel
	MoveGoalForm     *forms.MoveGoalFormModel
	ConfirmationForm *forms.ConfirmationFormModel
	QuizForm         *forms.QuizFormModel
	Quiz             quiz.State
	QuizDone         bool
	EditingCategory  *models.Category
	EditingGoal      *models.Goal
	FormError        string

	Notification        *Notification
	NotificationSeq     int
	NotificationTimeout time.Duration
	ShowEmailPrompt     bool

	Quitting bool
	Width    int
	Height   int
}

// New creates the shared state with today selected.
func New(deps Deps) Model {
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	m := Model{
		Deps:                deps,
		State:               constants.StateCalendar,
		Keys:                DefaultKeyMap(),
		Help:                help.New(),
		Spinner:             spinner.New(spinner.WithSpinner(spinner.Dot)),
		GoalList:            goallist.New(0, 0),
		Loads:               make(map[constants.ViewID]*Load),
		NotificationTimeout: constants.NotificationTimeout,
	}
	for _, v := range []constants.ViewID{constants.ViewCategories, constants.ViewGoals, constants.ViewCompletions, constants.ViewQuiz} {
		m.Loads[v] = &Load{}
	}
	m.Selection = selection.New(m.Today())

	if deps.Coord != nil && deps.Client != nil {
		m.Categories = mutation.NewCategoryEditor(deps.Coord, deps.Client)
		m.Goals = mutation.NewGoalEditor(deps.Coord, deps.Client)
		m.Toggler = mutation.NewCompletionToggler(deps.Coord, deps.Client, deps.Policy,
			mutation.WithClock(deps.Clock, deps.Location),
			mutation.WithMonthRefetch(m.refetchMonth),
		)
	}
	return m
}

// refetchMonth reloads a month into the cache before its toggle settles so
// the view moves from the delta straight to fresh data.
func (m Model) refetchMonth(ctx context.Context, month models.Month) error {
	if m.Entities == nil {
		return nil
	}
	_, err := m.Entities.Completions(ctx, month)
	return err
}

// Today is midnight of the current day in the configured zone.
func (m Model) Today() time.Time {
	return utils.Today(m.Clock, m.Location)
}

// Load returns the request state of view.
func (m Model) Load(view constants.ViewID) *Load {
	return m.Loads[view]
}

// VisibleCategories are the categories with pending edits applied.
func (m Model) VisibleCategories() []models.Category {
	if m.Categories == nil {
		return m.CategoryData
	}
	return derive.ApplyCategoryOverlay(m.CategoryData, m.Categories.Overlay().Values())
}

// VisibleGoals are the goals with pending edits applied. Goals of a
// category being deleted are hidden since the remote cascades.
func (m Model) VisibleGoals() []models.Goal {
	goals := m.GoalData
	if m.Goals != nil {
		goals = derive.ApplyGoalOverlay(goals, m.Goals.Overlay().Values())
	}
	if m.Categories != nil {
		goals = derive.DropCategoryGoals(goals, m.Categories.Overlay().Values())
	}
	return goals
}

// Groups are the visible qualifying goals grouped by category.
func (m Model) Groups() []derive.CategoryGoals {
	return derive.GroupGoalsByCategory(m.VisibleGoals(), m.VisibleCategories())
}

// ScopedGoals are the goals in the selected category.
func (m Model) ScopedGoals() []models.Goal {
	if m.Selection.CategoryID == "" {
		return nil
	}
	return derive.GoalsInCategory(m.Groups(), m.Selection.CategoryID)
}

// SelectedCategory returns the selected category, if it is visible.
func (m Model) SelectedCategory() (models.Category, bool) {
	for _, c := range m.VisibleCategories() {
		if c.ID == m.Selection.CategoryID {
			return c, true
		}
	}
	return models.Category{}, false
}

// MonthCompletions is the displayed month's completion map with pending
// toggles applied. It is empty until that month has loaded.
func (m Model) MonthCompletions() derive.DayCompletions {
	byDate := derive.DayCompletions{}
	if m.CompletionsMonth == m.Selection.Month {
		byDate = derive.CompletionsByDate(m.CompletionData)
	}
	if m.Toggler == nil {
		return byDate
	}
	return derive.ApplyCompletionOverlay(byDate, m.Toggler.Overlay().Values(), m.Selection.Month)
}

// SelectableDays is the last day of the displayed month that may be chosen.
func (m Model) SelectableDays() int {
	today := m.Today()
	return derive.SelectableDays(m.Selection.Month, models.MonthOf(today), today.Day())
}
