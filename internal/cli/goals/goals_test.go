package goals

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/cli/clitest"
	"github.com/julianstephens/goaltrack/internal/config"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
)

func TestCategoryListText(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t).Seed(), nil)

	require.NoError(t, (&CategoryListCmd{ShowIDs: true}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "Health (ID: 1) - 1 goal")
}

func TestCategoryListEmpty(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)

	require.NoError(t, (&CategoryListCmd{}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "No categories yet")
}

func TestCategoryAddRenameDelete(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	env := clitest.NewEnv(t, svc, nil)

	require.NoError(t, (&CategoryAddCmd{Name: "  Work  "}).Run(env.Context))
	require.Len(t, svc.Categories, 2)
	assert.Equal(t, "Work", svc.Categories[1].Name, "names are trimmed before sending")

	require.NoError(t, (&CategoryRenameCmd{Category: "work", Name: "Career"}).Run(env.Context))
	assert.Equal(t, "Career", svc.Categories[1].Name)

	require.NoError(t, (&CategoryDeleteCmd{Category: "Health", Yes: true}).Run(env.Context))
	require.Len(t, svc.Categories, 1)
	assert.Empty(t, svc.Goals, "the service cascades to the category's goals")

	env.Stdout.Reset()
	require.NoError(t, (&GoalListCmd{}).Run(env.Context))
	assert.Contains(t, env.Stdout.String(), "No goals found", "deleting a category invalidates cached goals")
}

func TestCategoryAddRejectsBlankName(t *testing.T) {
	svc := clitest.NewService(t)
	env := clitest.NewEnv(t, svc, nil)

	err := (&CategoryAddCmd{Name: "   "}).Run(env.Context)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Zero(t, svc.Count("POST /me/categories"), "validation failures never reach the service")
}

func TestCategoryRenameUnknown(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t).Seed(), nil)

	err := (&CategoryRenameCmd{Category: "Finance", Name: "Money"}).Run(env.Context)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGoalListJSON(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Goals = append(svc.Goals, clitest.Goal{ID: "g2", Description: "Read more", Habits: []clitest.Habit{{ID: "h2", Title: "Read"}}})
	env := clitest.NewEnv(t, svc, nil)
	env.Output = cli.FormatJSON

	require.NoError(t, (&GoalListCmd{}).Run(env.Context))

	var groups []GoalGroup
	require.NoError(t, json.Unmarshal(env.Stdout.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Health", groups[0].Category)
	assert.Equal(t, "Uncategorized", groups[1].Category)
	assert.Equal(t, "Read more", groups[1].Goals[0].Description)
}

func TestGoalAddWithHabits(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	env := clitest.NewEnv(t, svc, nil)

	cmd := &GoalAddCmd{Description: "Sleep better", Category: "Health", Habit: []string{"No screens after 10pm", " "}}
	require.NoError(t, cmd.Run(env.Context))

	require.Len(t, svc.Goals, 2)
	created := svc.Goals[1]
	assert.Equal(t, "Sleep better", created.Description)
	require.NotNil(t, created.CategoryID)
	assert.Equal(t, "1", *created.CategoryID)
	require.Len(t, created.Habits, 1, "blank habits are dropped")
	assert.Equal(t, "No screens after 10pm", created.Habits[0].Title)
}

func TestGoalAddSuggest(t *testing.T) {
	svc := clitest.NewService(t)
	svc.Suggestions = []string{"Walk 10k steps", "Stretch"}
	env := clitest.NewEnv(t, svc, map[string]any{config.KeyHabitSuggestions: true})

	require.NoError(t, (&GoalAddCmd{Description: "Move more", Suggest: true}).Run(env.Context))
	require.Len(t, svc.Goals, 1)
	assert.Len(t, svc.Goals[0].Habits, 2)
}

func TestGoalAddSuggestDisabled(t *testing.T) {
	env := clitest.NewEnv(t, clitest.NewService(t), nil)

	err := (&GoalAddCmd{Description: "Move more", Suggest: true}).Run(env.Context)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestGoalAddNeedsHabit(t *testing.T) {
	svc := clitest.NewService(t)
	env := clitest.NewEnv(t, svc, nil)

	err := (&GoalAddCmd{Description: "Be happier"}).Run(env.Context)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Empty(t, svc.Goals)
}

func TestGoalMove(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Categories = append(svc.Categories, clitest.Category{ID: "2", Name: "Work"})
	env := clitest.NewEnv(t, svc, nil)

	require.NoError(t, (&GoalMoveCmd{Goal: "Get fit", Category: "Work"}).Run(env.Context))
	require.NotNil(t, svc.Goals[0].CategoryID)
	assert.Equal(t, "2", *svc.Goals[0].CategoryID)

	require.NoError(t, (&GoalMoveCmd{Goal: "g1", None: true}).Run(env.Context))
	assert.Nil(t, svc.Goals[0].CategoryID)
	assert.Contains(t, env.Stdout.String(), "now uncategorized")
}

func TestGoalMoveSameCategory(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	env := clitest.NewEnv(t, svc, nil)

	err := (&GoalMoveCmd{Goal: "g1", Category: "Health"}).Run(env.Context)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Zero(t, svc.Count("PATCH /me/goals/g1"))
}

func TestGoalDeleteRefetchesGoals(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	env := clitest.NewEnv(t, svc, nil)

	_, err := env.LoadOverview(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, svc.Count("GET /me/goals"))

	require.NoError(t, (&GoalDeleteCmd{Goal: "Get fit", Yes: true}).Run(env.Context))
	assert.Empty(t, svc.Goals)
	assert.Equal(t, 1, svc.Count("GET /me/goals"), "the delete command reuses the cached goals")

	_, err = env.LoadOverview(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Count("GET /me/goals"), "goals are fetched again after the delete")
}

func TestGoalDeleteFailureKeepsGoal(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Fail["DELETE /me/goals"] = true
	env := clitest.NewEnv(t, svc, nil)

	err := (&GoalDeleteCmd{Goal: "g1", Yes: true}).Run(env.Context)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	assert.Len(t, svc.Goals, 1)
}
