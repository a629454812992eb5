package habits

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/mutation"
)

// HabitsCmd groups habit tracking commands.
type HabitsCmd struct {
	List     ListCmd     `cmd:"" default:"1" help:"List habits with today's status."`
	Mark     MarkCmd     `cmd:"" help:"Mark a habit done."`
	Unmark   UnmarkCmd   `cmd:"" help:"Remove a habit's completion."`
	Calendar CalendarCmd `cmd:"" help:"Show a month of completions."`
	Stats    StatsCmd    `cmd:"" help:"Show monthly statistics."`
}

// HabitStatus is one habit and whether it is done on the listed date.
type HabitStatus struct {
	GoalID    string `json:"goal_id" yaml:"goal_id"`
	Goal      string `json:"goal" yaml:"goal"`
	HabitID   string `json:"habit_id" yaml:"habit_id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// ListCmd lists habits and their status on a date.
type ListCmd struct {
	Date     string `short:"d" help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
	Category string `short:"c" help:"Only habits of this category (ID or name)."`
	ShowIDs  bool   `help:"Show habit IDs." name:"show-ids"`
}

func (cmd *ListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	date, err := ctx.ResolveDate(cmd.Date)
	if err != nil {
		return err
	}
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return err
	}
	goals, err := scopedGoals(ov, cmd.Category)
	if err != nil {
		return err
	}
	month := models.MonthOf(date)
	completions, err := ctx.MonthCompletions(bg, month, ov.Goals)
	if err != nil {
		return err
	}
	byDate := derive.CompletionsByDate(completions)

	var rows []HabitStatus
	for _, g := range goals {
		for _, h := range g.Habits {
			rows = append(rows, HabitStatus{
				GoalID: g.ID, Goal: g.Description,
				HabitID: h.ID, Title: h.Title,
				Completed: byDate.Completed(date.Day(), h.ID),
			})
		}
	}

	return ctx.Render(rows, func(w io.Writer) error {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No habits found. Add a goal with 'goaltrack goals add'.")
			return nil
		}
		fmt.Fprintf(w, "Habits for %s:\n", date.Format(constants.DateFormat))
		current := ""
		for _, r := range rows {
			if r.Goal != current {
				current = r.Goal
				fmt.Fprintf(w, "  %s\n", r.Goal)
			}
			mark := " "
			if r.Completed {
				mark = "✓"
			}
			idStr := ""
			if cmd.ShowIDs {
				idStr = fmt.Sprintf(" (ID: %s)", r.HabitID)
			}
			fmt.Fprintf(w, "    [%s] %s%s\n", mark, r.Title, idStr)
		}
		return nil
	})
}

// scopedGoals returns the qualifying goals, limited to category when given.
func scopedGoals(ov cli.Overview, category string) ([]models.Goal, error) {
	if category == "" {
		return derive.QualifyingGoals(ov.Goals), nil
	}
	cat, err := cli.FindCategory(ov.Categories, category)
	if err != nil {
		return nil, err
	}
	return derive.GoalsInCategory(ov.Groups(), cat.ID), nil
}

// toggleTarget resolves a habit and its current state on a date.
type toggleTarget struct {
	ref       cli.HabitRef
	date      time.Time
	records   []models.HabitCompletion
	completed bool
	goals     []models.Goal
}

func resolveToggle(bg context.Context, ctx *cli.Context, habit, date string) (toggleTarget, error) {
	d, err := ctx.ResolveDate(date)
	if err != nil {
		return toggleTarget{}, err
	}
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return toggleTarget{}, err
	}
	ref, err := cli.FindHabit(ov.Goals, habit)
	if err != nil {
		return toggleTarget{}, err
	}
	completions, err := ctx.MonthCompletions(bg, models.MonthOf(d), ov.Goals)
	if err != nil {
		return toggleTarget{}, err
	}
	records := derive.RecordsFor(completions, ref.Habit.ID, d.Format(constants.DateFormat))
	return toggleTarget{ref: ref, date: d, records: records, completed: len(records) > 0, goals: ov.Goals}, nil
}

func (t toggleTarget) toggle(bg context.Context, ctx *cli.Context, policy mutation.UnmarkPolicy) error {
	toggler, err := ctx.Toggler(bg, policy, t.goals)
	if err != nil {
		return err
	}
	return toggler.Run(bg, mutation.Toggle{
		HabitID:   t.ref.Habit.ID,
		Date:      t.date.Format(constants.DateFormat),
		Completed: t.completed,
		Records:   t.records,
	})
}

// MarkCmd records a completion. With --toggle an already completed habit is
// unmarked instead, under the configured unmark policy.
type MarkCmd struct {
	Habit  string `arg:"" help:"Habit ID or title."`
	Date   string `short:"d" help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
	Toggle bool   `short:"t" help:"Unmark when already completed."`
}

func (cmd *MarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	target, err := resolveToggle(bg, ctx, cmd.Habit, cmd.Date)
	if err != nil {
		return err
	}
	day := target.date.Format(constants.DateFormat)

	if target.completed && !cmd.Toggle {
		fmt.Fprintf(ctx.Out, "⊘ %s is already done on %s\n", target.ref.Habit.Title, day)
		return nil
	}
	if err := target.toggle(bg, ctx, ctx.Config.Unmark()); err != nil {
		return err
	}
	if target.completed {
		fmt.Fprintf(ctx.Out, "✓ Unmarked %s on %s\n", target.ref.Habit.Title, day)
	} else {
		fmt.Fprintf(ctx.Out, "✓ Marked %s done on %s\n", target.ref.Habit.Title, day)
	}
	return nil
}

// UnmarkCmd deletes every completion record of a habit on a date, subject to
// the configured unmark policy.
type UnmarkCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
	Date  string `short:"d" help:"Date (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (cmd *UnmarkCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	target, err := resolveToggle(bg, ctx, cmd.Habit, cmd.Date)
	if err != nil {
		return err
	}
	day := target.date.Format(constants.DateFormat)

	if !target.completed {
		fmt.Fprintf(ctx.Out, "⊘ %s is not marked on %s\n", target.ref.Habit.Title, day)
		return nil
	}
	if err := target.toggle(bg, ctx, ctx.Config.Unmark()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Unmarked %s on %s\n", target.ref.Habit.Title, day)
	return nil
}
