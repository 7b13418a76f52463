// Package termreport renders analytics and digests for the terminal.
package termreport

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/models"
)

var (
	primary   = lipgloss.Color("#7C3AED") // purple
	secondary = lipgloss.Color("#10B981") // green
	muted     = lipgloss.Color("#6B7280") // gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondary)

	barStyle = lipgloss.NewStyle().
			Foreground(secondary)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1)
)

// sparkTicks are the levels used to draw the timeline.
var sparkTicks = []rune("▁▂▃▄▅▆▇█")

const maxBarWidth = 24

// Overview renders streaks, the timeline sparkline and the tech ranking.
func Overview(ov activity.Overview) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Activity"))
	b.WriteString("\n")
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("current streak", days(ov.CurrentStreak)),
		"   ",
		stat("longest streak", days(ov.LongestStreak)),
		"   ",
		stat("active days", fmt.Sprint(ov.ActiveDays)),
	)
	b.WriteString(stats)
	b.WriteString("\n\n")

	if n := len(ov.Timeline); n > 0 {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Last %d days", n)))
		b.WriteString("\n")
		b.WriteString(barStyle.Render(Sparkline(ov.Timeline)))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%s … %s", ov.Timeline[0].Date, ov.Timeline[n-1].Date)))
		b.WriteString("\n\n")
	}

	b.WriteString(titleStyle.Render("Tech stack"))
	b.WriteString("\n")
	if len(ov.TechStack) == 0 {
		b.WriteString(labelStyle.Render("No technologies recorded yet."))
		b.WriteString("\n")
	}
	b.WriteString(ranking(ov.TechStack))

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Digest renders a stored weekly digest.
func Digest(d *models.Digest) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Weekly digest"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(d.WeekLabel))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(72).Render(d.Summary))
	if !d.GeneratedAt.IsZero() {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Generated " + d.GeneratedAt.Local().Format("Jan 2, 2006 15:04")))
	}
	return boxStyle.Render(b.String())
}

// Sparkline draws one tick per timeline entry, scaled to the busiest day.
// Days without activity are blank.
func Sparkline(tl []activity.TimelineEntry) string {
	peak := 0
	for _, e := range tl {
		peak = max(peak, e.Total)
	}
	out := make([]rune, len(tl))
	for i, e := range tl {
		if e.Total == 0 || peak == 0 {
			out[i] = ' '
			continue
		}
		level := (e.Total*len(sparkTicks) - 1) / peak
		out[i] = sparkTicks[min(level, len(sparkTicks)-1)]
	}
	return string(out)
}

func ranking(labels []activity.LabelCount) string {
	if len(labels) == 0 {
		return ""
	}
	width := 0
	for _, l := range labels {
		width = max(width, lipgloss.Width(l.Name))
	}
	top := labels[0].Count

	var b strings.Builder
	for _, l := range labels {
		n := max(1, l.Count*maxBarWidth/top)
		fmt.Fprintf(&b, "%-*s %s %d\n", width, l.Name, barStyle.Render(strings.Repeat("█", n)), l.Count)
	}
	return b.String()
}

func stat(label, value string) string {
	return lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(label), valueStyle.Render(value))
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
