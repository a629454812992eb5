// Package stats renders monthly statistics and the per-day chart.
package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/goaltrack/internal/derive"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	rateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// Props is a month's statistics for the habits in scope.
type Props struct {
	Title   string
	Summary derive.MonthlyStats
	Habits  []derive.HabitStat
	Chart   []derive.ChartPoint
	// MaxBar caps the bar width in cells.
	MaxBar int
}

func View(p Props) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Completion rate: %s  (%d of %d possible)\n",
		rateStyle.Render(fmt.Sprintf("%.1f%%", p.Summary.CompletionRate)),
		p.Summary.CompletionCount, p.Summary.PossibleCompletions)

	if len(p.Habits) == 0 {
		b.WriteString(mutedStyle.Render("No habits in scope."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, h := range p.Habits {
		fmt.Fprintf(&b, "  %-28s %3d days  %5.1f%%  streak %d\n", truncate(h.Title, 28), h.DaysCompleted, h.CompletionRate, h.CurrentStreak)
	}

	b.WriteString("\n")
	b.WriteString(chart(p.Chart, p.MaxBar))
	return b.String()
}

// chart draws one horizontal bar per day, scaled so the busiest day fills
// maxBar cells.
func chart(points []derive.ChartPoint, maxBar int) string {
	if maxBar <= 0 {
		maxBar = 30
	}
	peak := 0
	for _, p := range points {
		peak = max(peak, p.CompletionCount)
	}

	var b strings.Builder
	for _, p := range points {
		width := 0
		if peak > 0 {
			width = p.CompletionCount * maxBar / peak
		}
		if p.CompletionCount > 0 && width == 0 {
			width = 1
		}
		fmt.Fprintf(&b, "%s %s %d\n", axisStyle.Render(fmt.Sprintf("%2d", p.Day)), barStyle.Render(strings.Repeat("█", width)), p.CompletionCount)
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
