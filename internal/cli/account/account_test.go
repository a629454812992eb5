package account

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/cli/clitest"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/keyring"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/quiz"
)

func TestLoginStoresTokenAndRemembersUser(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)

	cmd := &LoginCmd{Token: " refresh-123 "}
	require.NoError(t, cmd.Run(env.Context))

	stored, err := keyring.GetRefreshToken("default")
	require.NoError(t, err)
	assert.Equal(t, "refresh-123", stored)
	assert.Contains(t, env.Stdout.String(), "Signed in as u1")

	state, err := env.State()
	require.NoError(t, err)
	last, ok, err := state.LastUser()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, clitest.UserID, last)
}

func TestLoginTokenFromEnvironment(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)
	t.Setenv(RefreshTokenEnv, "from-env")

	require.NoError(t, (&LoginCmd{NoVerify: true}).Run(env.Context))

	stored, err := keyring.GetRefreshToken("default")
	require.NoError(t, err)
	assert.Equal(t, "from-env", stored)
}

func TestLogoutForget(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)
	require.NoError(t, keyring.SetRefreshToken("default", "tok"))

	state, err := env.State()
	require.NoError(t, err)
	require.NoError(t, state.DismissEmailVerification(clitest.UserID))
	require.NoError(t, state.RememberUser(clitest.UserID))

	require.NoError(t, (&LogoutCmd{Forget: true}).Run(env.Context))

	_, err = keyring.GetRefreshToken("default")
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	dismissed, err := state.EmailVerificationDismissed(clitest.UserID)
	require.NoError(t, err)
	assert.False(t, dismissed)
	assert.Contains(t, env.Stdout.String(), "Signed out")
}

func TestLogoutWhenSignedOut(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)
	require.NoError(t, (&LogoutCmd{}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "was not signed in")
}

func TestWhoamiJSON(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)
	env.Output = cli.FormatJSON

	require.NoError(t, (&WhoamiCmd{}).Run(env.Context))

	var id Identity
	require.NoError(t, json.Unmarshal(env.Stdout.Bytes(), &id))
	assert.Equal(t, "default", id.Profile)
	assert.Equal(t, clitest.UserID, id.UserID)
}

func TestQuizShowNotTaken(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)
	require.NoError(t, (&QuizShowCmd{}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "not taken the questionnaire")
}

func TestQuizTakeFromFlags(t *testing.T) {
	svc := clitest.NewService(t)
	env := clitest.NewEnv(t, svc, nil)

	cmd := &QuizTakeCmd{Age: "30", Education: "master", Weight: "70.5", Height: "180", Goals: []string{"sleep", "fitness"}, Yes: true}
	require.NoError(t, cmd.Run(env.Context))

	require.NotNil(t, svc.Quiz)
	assert.Equal(t, 30, svc.Quiz.Age)
	assert.Equal(t, "master", svc.Quiz.EducationLevel)
	assert.Equal(t, []string{"sleep", "fitness"}, svc.Quiz.Goals)
	assert.Equal(t, int(quiz.QuestionDone), svc.Quiz.CurrentQuestion)

	env.Stdout.Reset()
	require.NoError(t, (&QuizShowCmd{}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "Weight:     70.5 kg")
}

func TestQuizTakeAsksForMissingAnswers(t *testing.T) {
	cmd := &QuizTakeCmd{Age: "40", Goals: []string{"learning"}}
	var asked []quiz.Question
	ask := func(s quiz.State) (quiz.Answer, error) {
		asked = append(asked, s.Question())
		switch s.Question() {
		case quiz.QuestionEducation:
			return quiz.Answer{Text: "bachelor"}, nil
		case quiz.QuestionWeight:
			return quiz.Answer{Text: "80"}, nil
		default:
			return quiz.Answer{Text: "175"}, nil
		}
	}

	s, err := cmd.answer(quiz.State{}, ask)
	require.NoError(t, err)
	assert.True(t, s.Complete())
	assert.Equal(t, []quiz.Question{quiz.QuestionEducation, quiz.QuestionWeight, quiz.QuestionHeight}, asked)
	assert.Equal(t, models.QuizResponse{
		Age: 40, EducationLevel: "bachelor", Weight: 80, Height: 175,
		Goals: []string{"learning"}, CurrentQuestion: int(quiz.QuestionDone),
	}, s.Response)
}

func TestQuizTakeRejectsBadFlag(t *testing.T) {
	svc := clitest.NewService(t)
	env := clitest.NewEnv(t, svc, nil)

	cmd := &QuizTakeCmd{Age: "7", Education: "master", Weight: "70", Height: "180", Goals: []string{"sleep"}, Yes: true}
	err := cmd.Run(env.Context)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "age"))
	assert.Nil(t, svc.Quiz, "nothing is sent for an incomplete questionnaire")
}
