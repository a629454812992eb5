// Package forms builds the huh forms shared by the CLI prompts and the TUI.
package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
	"github.com/julianstephens/goaltrack/internal/validation"
)

// CategoryFormModel backs the add and rename category forms.
type CategoryFormModel struct {
	Name string
}

// GoalFormModel backs the create goal form. Habits holds one title per line.
type GoalFormModel struct {
	Description string
	CategoryID  string
	Habits      string
}

// HabitTitles splits the habits text into titles.
func (fm *GoalFormModel) HabitTitles() []string {
	return SplitLines(fm.Habits)
}

// MoveGoalFormModel backs the move goal form.
type MoveGoalFormModel struct {
	CategoryID string
}

// ConfirmationFormModel backs yes/no prompts.
type ConfirmationFormModel struct {
	Confirmed bool
}

// QuizFormModel holds the answer to the current quiz question.
type QuizFormModel struct {
	Text    string
	Choices []string
}

// Answer converts the form values into a quiz event.
func (fm *QuizFormModel) Answer() quiz.Answer {
	return quiz.Answer{Text: fm.Text, Choices: fm.Choices}
}

// TokenFormModel backs the sign-in prompt.
type TokenFormModel struct {
	RefreshToken string
}

// SplitLines returns the non-blank trimmed lines of s.
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func theme() *huh.Theme {
	return huh.ThemeDracula()
}

// fieldError strips the operation prefix so inline messages read cleanly.
func fieldError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(apperrors.UserMessage(err))
}

// NewCategoryForm asks for a category name. title distinguishes add from rename.
func NewCategoryForm(fm *CategoryFormModel, title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&fm.Name).
				CharLimit(validation.MaxNameLength).
				Validate(func(s string) error {
					_, err := validation.CategoryName(s)
					return fieldError(err)
				}),
		),
	).WithTheme(theme())
}

func categoryOptions(categories []models.Category, includeNone bool) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(categories)+1)
	if includeNone {
		opts = append(opts, huh.NewOption("(no category)", ""))
	}
	for _, c := range categories {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}
	return opts
}

// NewGoalForm asks for a description, category and habit titles. Any text
// already in fm.Habits is shown as the starting value.
func NewGoalForm(fm *GoalFormModel, categories []models.Category) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal").
				Placeholder("Run a half marathon").
				Value(&fm.Description).
				Validate(func(s string) error {
					_, err := validation.GoalDescription(s)
					return fieldError(err)
				}),
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions(categories, true)...).
				Value(&fm.CategoryID),
			huh.NewText().
				Title("Habits").
				Description("One habit per line").
				Value(&fm.Habits).
				Validate(func(s string) error {
					_, err := validation.HabitTitles(SplitLines(s))
					return fieldError(err)
				}),
		),
	).WithTheme(theme())
}

// NewMoveGoalForm asks for the destination category of goal.
func NewMoveGoalForm(fm *MoveGoalFormModel, goal models.Goal, categories []models.Category) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Move \"" + goal.Description + "\" to").
				Options(categoryOptions(categories, true)...).
				Value(&fm.CategoryID),
		),
	).WithTheme(theme())
}

// NewConfirmationForm asks a yes/no question.
func NewConfirmationForm(fm *ConfirmationFormModel, title, description string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&fm.Confirmed),
		),
	).WithTheme(theme())
}

// NewTokenForm asks for an identity provider refresh token.
func NewTokenForm(fm *TokenFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh token").
				Description("Paste the refresh token issued by your identity provider").
				EchoMode(huh.EchoModePassword).
				Value(&fm.RefreshToken).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("the refresh token cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(theme())
}

// NewQuizForm asks the current question of s. Answers are checked against
// the questionnaire rules before the form can be submitted.
func NewQuizForm(fm *QuizFormModel, s quiz.State) *huh.Form {
	q := s.Question()
	answered, total := s.Progress()
	desc := progressLabel(answered, total)

	var field huh.Field
	switch q {
	case quiz.QuestionEducation:
		field = huh.NewSelect[string]().
			Title(q.Prompt()).
			Description(desc).
			Options(huh.NewOptions(quiz.EducationLevels...)...).
			Value(&fm.Text)
	case quiz.QuestionGoals:
		field = huh.NewMultiSelect[string]().
			Title(q.Prompt()).
			Description(desc).
			Options(huh.NewOptions(quiz.GoalAreas...)...).
			Value(&fm.Choices).
			Validate(func(v []string) error {
				_, err := quiz.Reduce(s, quiz.Answer{Choices: v})
				return fieldError(err)
			})
	default:
		field = huh.NewInput().
			Title(q.Prompt()).
			Description(desc).
			Value(&fm.Text).
			Validate(func(v string) error {
				_, err := quiz.Reduce(s, quiz.Answer{Text: v})
				return fieldError(err)
			})
	}
	return huh.NewForm(huh.NewGroup(field)).WithTheme(theme())
}

func progressLabel(answered, total int) string {
	return fmt.Sprintf("Question %d of %d", answered+1, total)
}
