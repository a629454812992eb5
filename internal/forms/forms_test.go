package forms

import (
	"reflect"
	"testing"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank lines dropped", "\n  \nRun\n\n", []string{"Run"}},
		{"trimmed", "  Stretch \r\n Walk", []string{"Stretch", "Walk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGoalFormModelHabitTitles(t *testing.T) {
	fm := &GoalFormModel{Habits: "Run\n\nStretch"}
	want := []string{"Run", "Stretch"}
	if got := fm.HabitTitles(); !reflect.DeepEqual(got, want) {
		t.Errorf("HabitTitles() = %v, want %v", got, want)
	}
}

func TestQuizFormModelAnswer(t *testing.T) {
	fm := &QuizFormModel{Text: "30"}
	next, err := quiz.Reduce(quiz.State{}, fm.Answer())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if next.Response.Age != 30 {
		t.Errorf("Age = %d, want 30", next.Response.Age)
	}
}

func TestFieldErrorDropsOperation(t *testing.T) {
	err := fieldError(apperrors.Validation("category", "category name cannot be empty"))
	if err.Error() != "category name cannot be empty" {
		t.Errorf("fieldError = %q", err.Error())
	}
	if fieldError(nil) != nil {
		t.Error("fieldError(nil) should be nil")
	}
}

func TestCategoryOptions(t *testing.T) {
	cats := []models.Category{{ID: "c1", Name: "Health"}}
	opts := categoryOptions(cats, true)
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2", len(opts))
	}
	if opts[0].Value != "" || opts[1].Value != "c1" {
		t.Errorf("unexpected option values %q, %q", opts[0].Value, opts[1].Value)
	}
	if got := categoryOptions(cats, false); len(got) != 1 {
		t.Errorf("without none option got %d, want 1", len(got))
	}
}

func TestFormsBuild(t *testing.T) {
	cats := []models.Category{{ID: "c1", Name: "Health"}}
	if NewCategoryForm(&CategoryFormModel{}, "New category") == nil {
		t.Error("NewCategoryForm returned nil")
	}
	if NewGoalForm(&GoalFormModel{}, cats) == nil {
		t.Error("NewGoalForm returned nil")
	}
	if NewMoveGoalForm(&MoveGoalFormModel{}, models.Goal{Description: "Run"}, cats) == nil {
		t.Error("NewMoveGoalForm returned nil")
	}
	if NewConfirmationForm(&ConfirmationFormModel{}, "Delete?", "") == nil {
		t.Error("NewConfirmationForm returned nil")
	}
	if NewTokenForm(&TokenFormModel{}) == nil {
		t.Error("NewTokenForm returned nil")
	}
	for _, q := range []quiz.Question{quiz.QuestionAge, quiz.QuestionEducation, quiz.QuestionGoals} {
		s := quiz.Resume(models.QuizResponse{CurrentQuestion: int(q)})
		if NewQuizForm(&QuizFormModel{}, s) == nil {
			t.Errorf("NewQuizForm(%d) returned nil", q)
		}
	}
}
