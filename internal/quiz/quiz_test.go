package quiz

import (
	"testing"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

func TestReduce_FullRun(t *testing.T) {
	steps := []Answer{
		{Text: "34"},
		{Text: "Master"},
		{Text: "72.5"},
		{Text: "180"},
		{Choices: []string{"fitness", " sleep ", "fitness", ""}},
	}

	var s State
	for i, a := range steps {
		if s.Complete() {
			t.Fatalf("complete before step %d", i)
		}
		var err error
		s, err = Reduce(s, a)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if !s.Complete() {
		t.Fatal("expected the questionnaire to be complete")
	}
	r := s.Response
	if r.Age != 34 || r.EducationLevel != "master" || r.Weight != 72.5 || r.Height != 180 {
		t.Errorf("unexpected response: %+v", r)
	}
	if len(r.Goals) != 2 || r.Goals[0] != "fitness" || r.Goals[1] != "sleep" {
		t.Errorf("Goals = %v", r.Goals)
	}

	if _, err := Reduce(s, Answer{Text: "x"}); err == nil {
		t.Error("expected an error answering a complete questionnaire")
	}
}

func TestReduce_InvalidAnswersLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		answer   Answer
	}{
		{"age not a number", QuestionAge, Answer{Text: "old"}},
		{"age too young", QuestionAge, Answer{Text: "5"}},
		{"unknown education", QuestionEducation, Answer{Text: "kindergarten"}},
		{"weight out of range", QuestionWeight, Answer{Text: "5000"}},
		{"height not a number", QuestionHeight, Answer{Text: "tall"}},
		{"no goals", QuestionGoals, Answer{Choices: []string{" "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Resume(models.QuizResponse{CurrentQuestion: int(tt.question)})
			got, err := Reduce(s, tt.answer)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("kind = %v, want validation", apperrors.KindOf(err))
			}
			if got.Question() != tt.question {
				t.Errorf("question advanced to %v", got.Question())
			}
		})
	}
}

func TestReduce_BackAndReset(t *testing.T) {
	s, _ := Reduce(State{}, Answer{Text: "40"})
	s, _ = Reduce(s, Back{})
	if s.Question() != QuestionAge || s.Response.Age != 40 {
		t.Errorf("Back lost state: %+v", s.Response)
	}

	s, _ = Reduce(s, Back{})
	if s.Question() != QuestionAge {
		t.Error("Back moved before the first question")
	}

	s, _ = Reduce(s, Reset{})
	if s.Response.Age != 0 || s.Question() != QuestionAge {
		t.Errorf("Reset kept answers: %+v", s.Response)
	}
}

func TestResume_ClampsCorruptProgress(t *testing.T) {
	if s := Resume(models.QuizResponse{CurrentQuestion: 42}); s.Question() != QuestionAge {
		t.Errorf("Question() = %v, want age", s.Question())
	}
	answered, total := Resume(models.QuizResponse{CurrentQuestion: 2}).Progress()
	if answered != 2 || total != 5 {
		t.Errorf("Progress() = %d/%d", answered, total)
	}
}
