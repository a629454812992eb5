package handlers

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

func openForm(m *state.Model, s constants.SessionState, f *huh.Form) tea.Cmd {
	if !IsForm(m.State) {
		m.PreviousState = m.State
	}
	m.State = s
	m.Form = f
	m.FormError = ""
	return m.Form.Init()
}

func closeForm(m *state.Model) {
	m.State = m.PreviousState
	m.Form = nil
	m.FormError = ""
	m.EditingCategory = nil
	m.EditingGoal = nil
}

// IsForm reports whether s shows a form instead of a main view.
func IsForm(s constants.SessionState) bool {
	switch s {
	case constants.StateCalendar, constants.StateGoals, constants.StateStats:
		return false
	}
	return true
}

// OpenAddCategory starts the new category form.
func OpenAddCategory(m *state.Model) tea.Cmd {
	m.CategoryForm = &forms.CategoryFormModel{}
	return openForm(m, constants.StateAddCategory, forms.NewCategoryForm(m.CategoryForm, "New category"))
}

// OpenRenameCategory starts renaming the selected category.
func OpenRenameCategory(m *state.Model) tea.Cmd {
	cat, ok := editableCategory(m)
	if !ok {
		return nil
	}
	m.CategoryForm = &forms.CategoryFormModel{Name: cat.Name}
	cmd := openForm(m, constants.StateRenameCategory, forms.NewCategoryForm(m.CategoryForm, "Rename "+cat.Name))
	m.EditingCategory = &cat
	return cmd
}

// OpenDeleteCategory asks before deleting the selected category.
func OpenDeleteCategory(m *state.Model) tea.Cmd {
	cat, ok := editableCategory(m)
	if !ok {
		return nil
	}
	m.ConfirmationForm = &forms.ConfirmationFormModel{}
	cmd := openForm(m, constants.StateConfirmDeleteCategory, forms.NewConfirmationForm(m.ConfirmationForm,
		"Delete "+cat.Name+"?",
		"Its goals and their completions are deleted too."))
	m.EditingCategory = &cat
	return cmd
}

// editableCategory is the selected category unless a change to it is
// still in flight.
func editableCategory(m *state.Model) (models.Category, bool) {
	cat, ok := m.SelectedCategory()
	if !ok || m.Categories == nil || m.Categories.IsPending(cat.ID) {
		return models.Category{}, false
	}
	return cat, true
}

// OpenAddGoal starts the new goal form, preselecting the current category.
func OpenAddGoal(m *state.Model) tea.Cmd {
	m.GoalForm = &forms.GoalFormModel{CategoryID: m.Selection.CategoryID}
	return openForm(m, constants.StateAddGoal, forms.NewGoalForm(m.GoalForm, m.VisibleCategories()))
}

// OpenMoveGoal asks where to move goal.
func OpenMoveGoal(m *state.Model, goal models.Goal) tea.Cmd {
	if m.Goals == nil || m.Goals.IsPending(goal.ID) {
		return nil
	}
	m.MoveGoalForm = &forms.MoveGoalFormModel{CategoryID: goal.CategoryID}
	cmd := openForm(m, constants.StateMoveGoal, forms.NewMoveGoalForm(m.MoveGoalForm, goal, m.VisibleCategories()))
	m.EditingGoal = &goal
	return cmd
}

// OpenDeleteGoal asks before deleting goal.
func OpenDeleteGoal(m *state.Model, goal models.Goal) tea.Cmd {
	if m.Goals == nil || m.Goals.IsPending(goal.ID) {
		return nil
	}
	m.ConfirmationForm = &forms.ConfirmationFormModel{}
	cmd := openForm(m, constants.StateConfirmDeleteGoal, forms.NewConfirmationForm(m.ConfirmationForm,
		"Delete \""+goal.Description+"\"?",
		"Its habits and their completions are deleted too."))
	m.EditingGoal = &goal
	return cmd
}

// OpenQuiz resumes the questionnaire. Answers stay in memory until the last
// question, so closing the form keeps progress for this session.
func OpenQuiz(m *state.Model) tea.Cmd {
	switch {
	case m.QuizDone:
		return Notify(m, "You have already completed the questionnaire.")
	case m.Quiz.Complete():
		return tea.Batch(Notify(m, "Saving questionnaire…"), saveQuiz(m))
	case m.Quiz.Response.CurrentQuestion > 0 || m.Load(constants.ViewQuiz).Loaded:
		if !IsForm(m.State) {
			m.PreviousState = m.State
		}
		m.State = constants.StateQuiz
		return openQuizForm(m)
	}
	if !IsForm(m.State) {
		m.PreviousState = m.State
	}
	m.State = constants.StateQuiz
	m.Form = nil
	return FetchQuiz(m)
}

func openQuizForm(m *state.Model) tea.Cmd {
	m.QuizForm = &forms.QuizFormModel{}
	return openForm(m, constants.StateQuiz, forms.NewQuizForm(m.QuizForm, m.Quiz))
}

// HandleFormState drives whichever form is open.
func HandleFormState(m *state.Model, msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.Type == tea.KeyEsc {
			closeForm(m)
			return nil
		}
		if m.State == constants.StateQuiz && key.Matches(msg, m.Keys.QuizBack) {
			return quizBack(m)
		}
	}
	if m.Form == nil {
		// The questionnaire is still loading.
		return nil
	}

	var cmds []tea.Cmd
	form, cmd := m.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.Form = f
	}
	cmds = append(cmds, cmd)

	switch m.Form.State {
	case huh.StateCompleted:
		next, err := submit(m)
		if err != nil {
			m.FormError = apperrors.UserMessage(err)
			m.Form.State = huh.StateNormal
			break
		}
		cmds = append(cmds, next)
	case huh.StateAborted:
		closeForm(m)
	}
	return tea.Batch(cmds...)
}

// submit starts the action of a completed form. An error keeps the form open.
func submit(m *state.Model) (tea.Cmd, error) {
	var (
		cmd tea.Cmd
		err error
	)
	switch m.State {
	case constants.StateAddCategory:
		cmd, err = createCategory(m, m.CategoryForm.Name)
	case constants.StateRenameCategory:
		cmd, err = renameCategory(m, *m.EditingCategory, m.CategoryForm.Name)
	case constants.StateConfirmDeleteCategory:
		if m.ConfirmationForm.Confirmed {
			cmd, err = deleteCategory(m, *m.EditingCategory)
		}
	case constants.StateAddGoal:
		cmd, err = createGoal(m, m.GoalForm.Description, m.GoalForm.CategoryID, m.GoalForm.HabitTitles())
	case constants.StateMoveGoal:
		cmd, err = moveGoal(m, *m.EditingGoal, m.MoveGoalForm.CategoryID)
	case constants.StateConfirmDeleteGoal:
		if m.ConfirmationForm.Confirmed {
			cmd, err = deleteGoal(m, *m.EditingGoal)
		}
	case constants.StateQuiz:
		return answerQuiz(m)
	}
	if err != nil {
		return nil, err
	}
	closeForm(m)
	return tea.Batch(cmd, RefreshGoalList(m)), nil
}

func answerQuiz(m *state.Model) (tea.Cmd, error) {
	next, err := quiz.Reduce(m.Quiz, m.QuizForm.Answer())
	if err != nil {
		return nil, err
	}
	m.Quiz = next
	if m.Quiz.Complete() {
		closeForm(m)
		return saveQuiz(m), nil
	}
	return openQuizForm(m), nil
}

func quizBack(m *state.Model) tea.Cmd {
	prev, err := quiz.Reduce(m.Quiz, quiz.Back{})
	if err != nil || prev.Question() == m.Quiz.Question() {
		return nil
	}
	m.Quiz = prev
	return openQuizForm(m)
}
