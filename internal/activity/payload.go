package activity

import (
	"fmt"
	"strings"
	"time"
)

const untitled = "Untitled"

// BuildPayload renders this week's records as the plain-text report the
// digest generator summarizes. Sections always appear in the order
// Projects, Notes, Code snippets.
func BuildPayload(cal Calendar, snap Snapshot, now time.Time) string {
	week := WeekOf(cal, now)
	in := week.Filter(snap)

	var b strings.Builder
	fmt.Fprintf(&b, "Week: %s\n", week.Label())

	b.WriteString("\n## Projects\n")
	if len(in.Projects) == 0 {
		b.WriteString("No project activity this week.\n")
	}
	for _, p := range in.Projects {
		fmt.Fprintf(&b, "- %s (status: %s, progress: %d%%)\n", p.Title, p.Status, p.Progress)
		if len(p.TechStack) > 0 {
			fmt.Fprintf(&b, "  Tech: %s\n", strings.Join(p.TechStack, ", "))
		}
	}

	b.WriteString("\n## Notes\n")
	if len(in.Notes) == 0 {
		b.WriteString("No note activity this week.\n")
	}
	for _, n := range in.Notes {
		fmt.Fprintf(&b, "- %s\n", orUntitled(n.Title))
	}

	b.WriteString("\n## Code snippets\n")
	if len(in.Snippets) == 0 {
		b.WriteString("No snippet activity this week.\n")
	}
	for _, s := range in.Snippets {
		fmt.Fprintf(&b, "- %s (%s)\n", orUntitled(s.Title), s.Language)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func orUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}
