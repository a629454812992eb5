// Package calendar renders a month grid with per-day completion shading.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goaltrack/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fullStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	partialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	futureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Italic(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	todayStyle    = lipgloss.NewStyle().Underline(true)
)

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Props is everything the grid shows.
type Props struct {
	Month models.Month
	Weeks [][]int
	// Done maps day to the number of habits completed that day.
	Done   map[int]int
	Habits int
	// Selected is the highlighted day.
	Selected int
	// Selectable is the last day that may be selected; later days are
	// shown as unavailable.
	Selectable int
	// Today is today's day when Month is the current month, else 0.
	Today int
	// Pending marks days with a toggle in flight.
	Pending map[int]bool
}

func View(p Props) string {
	var b strings.Builder
	title := time.Date(p.Month.Year, p.Month.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(strings.Join(weekdays, " ")))
	b.WriteString("\n")

	for _, week := range p.Weeks {
		cells := make([]string, len(week))
		for i, day := range week {
			cells[i] = cell(p, day)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func cell(p Props, day int) string {
	if day == 0 {
		return "  "
	}
	label := fmt.Sprintf("%2d", day)

	var style lipgloss.Style
	done := p.Done[day]
	switch {
	case day > p.Selectable:
		style = futureStyle
	case p.Pending[day]:
		style = pendingStyle
	case p.Habits > 0 && done >= p.Habits:
		style = fullStyle
	case done > 0:
		style = partialStyle
	default:
		style = emptyStyle
	}
	if day == p.Today {
		style = style.Inherit(todayStyle)
	}
	if day == p.Selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(label)
}
