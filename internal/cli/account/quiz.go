package account

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/julianstephens/goaltrack/internal/cli"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
)

// QuizCmd groups the onboarding questionnaire commands.
type QuizCmd struct {
	Show QuizShowCmd `cmd:"" default:"1" help:"Show your saved answers."`
	Take QuizTakeCmd `cmd:"" help:"Answer the questionnaire."`
}

// QuizShowCmd prints the saved questionnaire.
type QuizShowCmd struct{}

func (cmd *QuizShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	client, err := ctx.Client(bg)
	if err != nil {
		return err
	}
	resp, found, err := client.GetQuiz(bg)
	if err != nil {
		return err
	}
	if !found {
		if ctx.Output != cli.FormatText {
			return ctx.Render(nil, nil)
		}
		fmt.Fprintln(ctx.Out, "You have not taken the questionnaire yet. Run 'goaltrack quiz take'.")
		return nil
	}
	return ctx.Render(resp, func(w io.Writer) error {
		printQuiz(w, resp)
		return nil
	})
}

func printQuiz(w io.Writer, resp models.QuizResponse) {
	fmt.Fprintf(w, "Age:        %d\n", resp.Age)
	fmt.Fprintf(w, "Education:  %s\n", resp.EducationLevel)
	fmt.Fprintf(w, "Weight:     %s kg\n", strconv.FormatFloat(resp.Weight, 'f', -1, 64))
	fmt.Fprintf(w, "Height:     %s cm\n", strconv.FormatFloat(resp.Height, 'f', -1, 64))
	fmt.Fprintf(w, "Goal areas: %s\n", strings.Join(resp.Goals, ", "))
}

// QuizTakeCmd answers the questionnaire. Answers given as flags skip their
// prompt; the rest are asked interactively. Nothing is sent until every
// question is answered.
type QuizTakeCmd struct {
	Age       string   `help:"Age in years."`
	Education string   `help:"Highest education level." enum:",high_school,associate,bachelor,master,doctorate,other" default:""`
	Weight    string   `help:"Weight in kg."`
	Height    string   `help:"Height in cm."`
	Goals     []string `help:"Areas to improve (repeatable)."`
	Yes       bool     `short:"y" help:"Submit without confirmation."`
}

func (cmd *QuizTakeCmd) Run(ctx *cli.Context) error {
	s, err := cmd.answer(quiz.State{}, askInteractively)
	if err != nil {
		return err
	}

	if !cmd.Yes && ctx.Output == cli.FormatText {
		printQuiz(ctx.Out, s.Response)
		fm := &forms.ConfirmationFormModel{Confirmed: true}
		if err := forms.NewConfirmationForm(fm, "Submit these answers?", "").Run(); err != nil {
			return apperrors.Wrap(apperrors.KindValidation, "quiz", err)
		}
		if !fm.Confirmed {
			fmt.Fprintln(ctx.Out, "⊘ Questionnaire discarded")
			return nil
		}
	}

	bg := context.Background()
	client, err := ctx.Client(bg)
	if err != nil {
		return err
	}
	if err := client.SaveQuiz(bg, s.Response); err != nil {
		return err
	}
	return ctx.Render(s.Response, func(w io.Writer) error {
		fmt.Fprintln(w, "✓ Questionnaire saved")
		return nil
	})
}

type asker func(s quiz.State) (quiz.Answer, error)

func askInteractively(s quiz.State) (quiz.Answer, error) {
	fm := &forms.QuizFormModel{}
	if err := forms.NewQuizForm(fm, s).Run(); err != nil {
		return quiz.Answer{}, apperrors.Wrap(apperrors.KindValidation, "quiz", err)
	}
	return fm.Answer(), nil
}

// answer walks the questionnaire, taking flag values first and asking for
// whatever is missing.
func (cmd *QuizTakeCmd) answer(s quiz.State, ask asker) (quiz.State, error) {
	for !s.Complete() {
		a, given := cmd.flagAnswer(s.Question())
		if !given {
			var err error
			if a, err = ask(s); err != nil {
				return s, err
			}
		}
		next, err := quiz.Reduce(s, a)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

func (cmd *QuizTakeCmd) flagAnswer(q quiz.Question) (quiz.Answer, bool) {
	switch q {
	case quiz.QuestionAge:
		return quiz.Answer{Text: cmd.Age}, cmd.Age != ""
	case quiz.QuestionEducation:
		return quiz.Answer{Text: cmd.Education}, cmd.Education != ""
	case quiz.QuestionWeight:
		return quiz.Answer{Text: cmd.Weight}, cmd.Weight != ""
	case quiz.QuestionHeight:
		return quiz.Answer{Text: cmd.Height}, cmd.Height != ""
	case quiz.QuestionGoals:
		return quiz.Answer{Choices: cmd.Goals}, len(cmd.Goals) > 0
	default:
		return quiz.Answer{}, false
	}
}
