package goals

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/forms"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/models"
)

// GoalsCmd groups goal commands.
type GoalsCmd struct {
	List   GoalListCmd   `cmd:"" default:"1" help:"List goals grouped by category."`
	Add    GoalAddCmd    `cmd:"" help:"Create a goal with its habits."`
	Move   GoalMoveCmd   `cmd:"" help:"Move a goal to another category."`
	Delete GoalDeleteCmd `cmd:"" help:"Delete a goal and its habits."`
}

// GoalGroup is one heading of the goal listing.
type GoalGroup struct {
	Category string        `json:"category" yaml:"category"`
	Goals    []models.Goal `json:"goals" yaml:"goals"`
}

// GoalListCmd lists goals.
type GoalListCmd struct {
	Category string `short:"c" help:"Only show goals in this category (ID or name)."`
	ShowIDs  bool   `help:"Show goal and habit IDs." name:"show-ids"`
}

func (cmd *GoalListCmd) Run(ctx *cli.Context) error {
	ov, err := ctx.LoadOverview(context.Background())
	if err != nil {
		return err
	}

	var groups []GoalGroup
	if cmd.Category != "" {
		cat, err := cli.FindCategory(ov.Categories, cmd.Category)
		if err != nil {
			return err
		}
		groups = append(groups, GoalGroup{Category: cat.Name, Goals: derive.GoalsInCategory(ov.Groups(), cat.ID)})
	} else {
		for _, g := range ov.Groups() {
			groups = append(groups, GoalGroup{Category: g.Category.Name, Goals: g.Goals})
		}
		if rest := derive.Uncategorized(ov.Goals, ov.Categories); len(rest) > 0 {
			groups = append(groups, GoalGroup{Category: "Uncategorized", Goals: rest})
		}
	}

	return ctx.Render(groups, func(w io.Writer) error {
		empty := true
		for _, g := range groups {
			if len(g.Goals) == 0 {
				continue
			}
			empty = false
			fmt.Fprintf(w, "%s:\n", g.Category)
			for _, goal := range g.Goals {
				fmt.Fprintf(w, "  %s%s\n", goal.Description, cmd.id(goal.ID))
				for _, h := range goal.Habits {
					fmt.Fprintf(w, "    - %s%s\n", h.Title, cmd.id(h.ID))
				}
			}
		}
		if empty {
			fmt.Fprintln(w, "No goals found. Add one with 'goaltrack goals add'.")
		}
		return nil
	})
}

func (cmd *GoalListCmd) id(id string) string {
	if !cmd.ShowIDs {
		return ""
	}
	return fmt.Sprintf(" (ID: %s)", id)
}

// GoalAddCmd creates a goal. Without a description the goal is built in an
// interactive form.
type GoalAddCmd struct {
	Description string   `arg:"" optional:"" help:"What you want to achieve."`
	Category    string   `short:"c" help:"Category ID or name."`
	Habit       []string `short:"H" help:"Habit title (repeatable)." sep:"none"`
	Suggest     bool     `help:"Ask the goals service to suggest habits."`
}

func (cmd *GoalAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}

	desc, categoryID, habits := cmd.Description, "", cmd.Habit
	if cmd.Category != "" {
		cat, err := cli.FindCategory(ov.Categories, cmd.Category)
		if err != nil {
			return err
		}
		categoryID = cat.ID
	}

	if desc != "" && cmd.Suggest {
		suggested, err := cmd.suggest(bg, ctx, desc)
		if err != nil {
			return err
		}
		habits = append(habits, suggested...)
	}

	if desc == "" {
		fm := &forms.GoalFormModel{CategoryID: categoryID, Habits: strings.Join(habits, "\n")}
		if err := forms.NewGoalForm(fm, ov.Categories).Run(); err != nil {
			return err
		}
		desc, categoryID, habits = fm.Description, fm.CategoryID, fm.HabitTitles()
	}

	editor, err := ctx.GoalEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginCreate(desc, categoryID, habits)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Created goal %q\n", strings.TrimSpace(desc))
	return nil
}

func (cmd *GoalAddCmd) suggest(bg context.Context, ctx *cli.Context, desc string) ([]string, error) {
	client, err := ctx.Client(bg)
	if err != nil {
		return nil, err
	}
	suggested, err := client.SuggestHabits(bg, desc)
	if err != nil {
		return nil, err
	}
	logger.Debug("Habit suggestions received", "count", len(suggested))
	if len(suggested) == 0 {
		fmt.Fprintln(ctx.Err, "⚠ No habits were suggested")
	}
	return suggested, nil
}

// GoalMoveCmd moves a goal between categories.
type GoalMoveCmd struct {
	Goal     string `arg:"" help:"Goal ID or description."`
	Category string `arg:"" optional:"" help:"Destination category ID or name; omit with --none to uncategorize."`
	None     bool   `help:"Remove the goal from its category."`
}

func (cmd *GoalMoveCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}
	goal, err := cli.FindGoal(ov.Goals, cmd.Goal)
	if err != nil {
		return err
	}

	var dest models.Category
	switch {
	case cmd.None && cmd.Category != "":
		return apperrors.Validation("move goal", "give a category or --none, not both")
	case cmd.None:
	case cmd.Category != "":
		if dest, err = cli.FindCategory(ov.Categories, cmd.Category); err != nil {
			return err
		}
	default:
		fm := &forms.MoveGoalFormModel{CategoryID: goal.CategoryID}
		if err := forms.NewMoveGoalForm(fm, goal, ov.Categories).Run(); err != nil {
			return err
		}
		if fm.CategoryID != "" {
			if dest, err = cli.FindCategory(ov.Categories, fm.CategoryID); err != nil {
				return err
			}
		}
	}

	editor, err := ctx.GoalEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginMove(goal, dest.ID)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	if dest.ID == "" {
		fmt.Fprintf(ctx.Out, "✓ %q is now uncategorized\n", goal.Description)
	} else {
		fmt.Fprintf(ctx.Out, "✓ Moved %q to %s\n", goal.Description, dest.Name)
	}
	return nil
}

// GoalDeleteCmd deletes a goal.
type GoalDeleteCmd struct {
	Goal string `arg:"" help:"Goal ID or description."`
	Yes  bool   `short:"y" help:"Delete without confirmation."`
}

func (cmd *GoalDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}
	goal, err := cli.FindGoal(ov.Goals, cmd.Goal)
	if err != nil {
		return err
	}

	ok, err := ctx.Confirm(cmd.Yes,
		fmt.Sprintf("Delete goal %q?", goal.Description),
		"Its habits and their completion history will be deleted too.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "⊘ Cancelled")
		return nil
	}

	editor, err := ctx.GoalEditor(bg)
	if err != nil {
		return err
	}
	pending, err := editor.BeginDelete(goal)
	if err != nil {
		return err
	}
	if err := pending.Execute(bg); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Deleted goal: %s (ID: %s)\n", goal.Description, goal.ID)
	return nil
}
