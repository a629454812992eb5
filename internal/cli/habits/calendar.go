package habits

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/models"
)

// CalendarView is a month of completions for the habits in scope.
type CalendarView struct {
	Month  string  `json:"month" yaml:"month"`
	Habits int     `json:"habits" yaml:"habits"`
	Weeks  [][]int `json:"weeks" yaml:"weeks"`
	// Done maps day of month to completed habit count. Days without
	// completions are omitted.
	Done    map[int]int `json:"done" yaml:"done"`
	Offline bool        `json:"offline,omitempty" yaml:"offline,omitempty"`
	SavedAt *time.Time  `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
}

// CalendarCmd renders a month grid. Each fetch refreshes the offline
// snapshot of that month; --offline renders the snapshot instead.
type CalendarCmd struct {
	Month    string `short:"m" help:"Month (YYYY-MM), defaults to the current month."`
	Category string `short:"c" help:"Only habits of this category (ID or name)."`
	Habit    string `help:"Only this habit (ID or title)."`
	Offline  bool   `help:"Render the last saved snapshot without contacting the goals service."`
}

func (cmd *CalendarCmd) Run(ctx *cli.Context) error {
	month, err := ctx.ResolveMonth(cmd.Month)
	if err != nil {
		return err
	}

	var view CalendarView
	if cmd.Offline {
		view, err = cmd.offline(ctx, month)
	} else {
		view, err = cmd.online(ctx, month)
	}
	if err != nil {
		return err
	}

	today := ctx.Today()
	return ctx.Render(view, func(w io.Writer) error {
		renderCalendar(w, view, models.MonthOf(today), today.Day())
		return nil
	})
}

func (cmd *CalendarCmd) online(ctx *cli.Context, month models.Month) (CalendarView, error) {
	bg := context.Background()
	ov, err := ctx.LoadOverview(bg)
	if err != nil {
		return CalendarView{}, err
	}
	goals, err := scopedGoals(ov, cmd.Category)
	if err != nil {
		return CalendarView{}, err
	}
	habits := derive.HabitsInScope(goals)
	if cmd.Habit != "" {
		ref, err := cli.FindHabit(goals, cmd.Habit)
		if err != nil {
			return CalendarView{}, err
		}
		habits = []models.Habit{ref.Habit}
	}

	completions, err := ctx.MonthCompletions(bg, month, ov.Goals)
	if err != nil {
		return CalendarView{}, err
	}
	return newCalendarView(month, derive.CompletionsByDate(completions), habits), nil
}

func (cmd *CalendarCmd) offline(ctx *cli.Context, month models.Month) (CalendarView, error) {
	snap, err := ctx.OfflineMonth(month)
	if err != nil {
		return CalendarView{}, err
	}

	habits := make([]models.Habit, 0, len(snap.Habits))
	for id, title := range snap.Habits {
		if cmd.Habit != "" && id != cmd.Habit && !strings.EqualFold(title, cmd.Habit) {
			continue
		}
		habits = append(habits, models.Habit{ID: id, Title: title})
	}
	view := newCalendarView(month, snap.DayCompletions(), habits)
	view.Offline = true
	saved := snap.SavedAt.In(ctx.Config.Location())
	view.SavedAt = &saved
	return view, nil
}

func newCalendarView(month models.Month, byDate derive.DayCompletions, habits []models.Habit) CalendarView {
	view := CalendarView{
		Month:  month.String(),
		Habits: len(habits),
		Weeks:  derive.CalendarGrid(month),
		Done:   make(map[int]int),
	}
	for day := 1; day <= month.Days(); day++ {
		n := 0
		for _, h := range habits {
			if byDate.Completed(day, h.ID) {
				n++
			}
		}
		if n > 0 {
			view.Done[day] = n
		}
	}
	return view
}

var weekdayHeader = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

func renderCalendar(w io.Writer, view CalendarView, current models.Month, todayDay int) {
	r := lipgloss.NewRenderer(w)
	var (
		title   = r.NewStyle().Bold(true)
		full    = r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
		partial = r.NewStyle().Foreground(lipgloss.Color("214"))
		none    = r.NewStyle().Foreground(lipgloss.Color("245"))
		future  = r.NewStyle().Faint(true)
		today   = r.NewStyle().Underline(true)
		muted   = r.NewStyle().Faint(true)
	)

	month, err := models.ParseMonth(view.Month)
	if err != nil {
		return
	}
	selectable := derive.SelectableDays(month, current, todayDay)

	fmt.Fprintln(w, title.Render(time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")))
	fmt.Fprintln(w, strings.Join(weekdayHeader, " "))
	for _, week := range view.Weeks {
		cells := make([]string, len(week))
		for i, day := range week {
			if day == 0 {
				cells[i] = "  "
				continue
			}
			label := fmt.Sprintf("%2d", day)
			var style lipgloss.Style
			switch done := view.Done[day]; {
			case day > selectable:
				style = future
			case view.Habits > 0 && done >= view.Habits:
				style = full
			case done > 0:
				style = partial
			default:
				style = none
			}
			if month == current && day == todayDay {
				style = style.Inherit(today)
			}
			cells[i] = style.Render(label)
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}

	if view.Habits == 0 {
		fmt.Fprintln(w, muted.Render("No habits in scope."))
	}
	days := len(view.Done)
	fmt.Fprintf(w, "%d %s with completions across %d %s\n", days, pluralize(days, "day", "days"), view.Habits, pluralize(view.Habits, "habit", "habits"))
	if view.Offline && view.SavedAt != nil {
		fmt.Fprintln(w, muted.Render("Offline snapshot saved "+view.SavedAt.Format(constants.DateFormat+" 15:04")))
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
