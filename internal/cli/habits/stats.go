package habits

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/models"
)

// StatsReport is a month's statistics for the habits in scope.
type StatsReport struct {
	Month   string              `json:"month" yaml:"month"`
	Summary derive.MonthlyStats `json:"summary" yaml:"summary"`
	Habits  []derive.HabitStat  `json:"habits" yaml:"habits"`
	Chart   []derive.ChartPoint `json:"chart,omitempty" yaml:"chart,omitempty"`
}

// StatsCmd shows monthly completion statistics.
type StatsCmd struct {
	Month    string `short:"m" help:"Month (YYYY-MM), defaults to the current month."`
	Category string `short:"c" help:"Only habits of this category (ID or name)."`
	Chart    bool   `help:"Include a per-day completion chart."`
}

func (cmd *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	month, err := ctx.ResolveMonth(cmd.Month)
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
	completions, err := ctx.MonthCompletions(bg, month, ov.Goals)
	if err != nil {
		return err
	}

	today := ctx.Today()
	report := buildReport(month, derive.CompletionsByDate(completions), goals, models.MonthOf(today), today.Day())
	if !cmd.Chart {
		report.Chart = nil
	}

	return ctx.Render(report, func(w io.Writer) error {
		renderStats(w, report)
		return nil
	})
}

// buildReport counts only completions of habits in goals. Per-habit rates
// run through today for the current month.
func buildReport(month models.Month, byDate derive.DayCompletions, goals []models.Goal, current models.Month, todayDay int) StatsReport {
	scoped := make(derive.DayCompletions)
	for _, h := range derive.HabitsInScope(goals) {
		for day := 1; day <= month.Days(); day++ {
			if byDate.Completed(day, h.ID) {
				if scoped[day] == nil {
					scoped[day] = make(map[string]bool)
				}
				scoped[day][h.ID] = true
			}
		}
	}

	through := derive.SelectableDays(month, current, todayDay)
	return StatsReport{
		Month:   month.String(),
		Summary: derive.MonthlyFromDays(scoped, goals, month.Days()),
		Habits:  derive.HabitStats(goals, scoped, through),
		Chart:   derive.ChartSeries(scoped, month.Days()),
	}
}

func renderStats(w io.Writer, report StatsReport) {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	bar := r.NewStyle().Foreground(lipgloss.Color("42"))
	muted := r.NewStyle().Faint(true)

	fmt.Fprintln(w, title.Render("Statistics for "+report.Month))
	fmt.Fprintf(w, "Completions: %d of %d possible (%.1f%%)\n",
		report.Summary.CompletionCount, report.Summary.PossibleCompletions, report.Summary.CompletionRate)

	if len(report.Habits) == 0 {
		fmt.Fprintln(w, muted.Render("No habits in scope."))
		return
	}
	fmt.Fprintln(w)
	for _, h := range report.Habits {
		fmt.Fprintf(w, "  %-30s %3d days  %5.1f%%  streak %d\n", truncate(h.Title, 30), h.DaysCompleted, h.CompletionRate, h.CurrentStreak)
	}

	if len(report.Chart) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, p := range report.Chart {
		fmt.Fprintf(w, "  %2d %s %d\n", p.Day, bar.Render(strings.Repeat("█", p.CompletionCount)), p.CompletionCount)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
