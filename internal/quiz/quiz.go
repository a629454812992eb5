// Package quiz is the onboarding questionnaire as a linear state machine.
// Answers stay local until the last question is answered.
package quiz

import (
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

// Question is a step of the questionnaire.
type Question int

const (
	QuestionAge Question = iota
	QuestionEducation
	QuestionWeight
	QuestionHeight
	QuestionGoals
	QuestionDone
)

// Prompt is the text shown for q.
func (q Question) Prompt() string {
	switch q {
	case QuestionAge:
		return "How old are you?"
	case QuestionEducation:
		return "What is your highest level of education?"
	case QuestionWeight:
		return "What is your weight (kg)?"
	case QuestionHeight:
		return "What is your height (cm)?"
	case QuestionGoals:
		return "Which areas do you want to improve?"
	default:
		return "All done"
	}
}

// EducationLevels are the accepted education answers.
var EducationLevels = []string{"high_school", "associate", "bachelor", "master", "doctorate", "other"}

// GoalAreas are the suggested goal answers. Free-form areas are accepted too.
var GoalAreas = []string{"fitness", "nutrition", "sleep", "mindfulness", "learning", "productivity", "finances", "relationships"}

// State is the in-progress questionnaire.
type State struct {
	Response models.QuizResponse
}

// Resume continues from a partially answered response.
func Resume(resp models.QuizResponse) State {
	if resp.CurrentQuestion < int(QuestionAge) || resp.CurrentQuestion > int(QuestionDone) {
		resp.CurrentQuestion = int(QuestionAge)
	}
	return State{Response: resp}
}

// Question returns the current step.
func (s State) Question() Question {
	return Question(s.Response.CurrentQuestion)
}

// Complete reports whether every question has been answered.
func (s State) Complete() bool {
	return s.Question() == QuestionDone
}

// Progress returns answered and total question counts.
func (s State) Progress() (answered, total int) {
	return s.Response.CurrentQuestion, int(QuestionDone)
}

// Event is a questionnaire transition.
type Event interface {
	isEvent()
}

// Answer answers the current question. Goals use Choices; every other
// question uses Text.
type Answer struct {
	Text    string
	Choices []string
}

// Back returns to the previous question, keeping its answer.
type Back struct{}

// Reset discards every answer.
type Reset struct{}

func (Answer) isEvent() {}
func (Back) isEvent()   {}
func (Reset) isEvent()  {}

// Reduce applies ev to s. On error s is returned unchanged.
func Reduce(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case Reset:
		return State{}, nil
	case Back:
		if s.Response.CurrentQuestion > int(QuestionAge) {
			s.Response.CurrentQuestion--
		}
		return s, nil
	case Answer:
		return answer(s, ev)
	default:
		return s, apperrors.Validation("quiz", "unknown quiz event")
	}
}

func answer(s State, a Answer) (State, error) {
	resp := s.Response
	text := strings.TrimSpace(a.Text)

	switch s.Question() {
	case QuestionAge:
		age, err := strconv.Atoi(text)
		if err != nil || age < 13 || age > 120 {
			return s, apperrors.Validation("quiz", "age must be a whole number between 13 and 120")
		}
		resp.Age = age
	case QuestionEducation:
		level := strings.ToLower(text)
		if !slices.Contains(EducationLevels, level) {
			return s, apperrors.Newf(apperrors.KindValidation, "quiz", "education must be one of %s", strings.Join(EducationLevels, ", "))
		}
		resp.EducationLevel = level
	case QuestionWeight:
		w, err := strconv.ParseFloat(text, 64)
		if err != nil || w < 20 || w > 500 {
			return s, apperrors.Validation("quiz", "weight must be between 20 and 500 kg")
		}
		resp.Weight = w
	case QuestionHeight:
		h, err := strconv.ParseFloat(text, 64)
		if err != nil || h < 50 || h > 300 {
			return s, apperrors.Validation("quiz", "height must be between 50 and 300 cm")
		}
		resp.Height = h
	case QuestionGoals:
		var goals []string
		for _, c := range a.Choices {
			c = strings.TrimSpace(c)
			if c != "" && !slices.Contains(goals, c) {
				goals = append(goals, c)
			}
		}
		if len(goals) == 0 {
			return s, apperrors.Validation("quiz", "choose at least one area")
		}
		resp.Goals = goals
	default:
		return s, apperrors.Validation("quiz", "the questionnaire is already complete")
	}

	resp.CurrentQuestion++
	return State{Response: resp}, nil
}
