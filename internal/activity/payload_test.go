package activity

import (
	"strings"
	"testing"
)

func TestBuildPayload_Empty(t *testing.T) {
	got := BuildPayload(UTC, Snapshot{}, day("2024-01-03"))
	for _, line := range []string{
		"No project activity this week.",
		"No note activity this week.",
		"No snippet activity this week.",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("payload missing %q:\n%s", line, got)
		}
	}
	for _, l := range strings.Split(got, "\n") {
		if strings.HasPrefix(l, "- ") {
			t.Errorf("unexpected record line %q", l)
		}
	}
}

func TestBuildPayload_Full(t *testing.T) {
	now := day("2024-01-03")
	snap := Snapshot{
		Projects: []Project{
			{Title: "DevFlow", Status: "in-progress", Progress: 40, TechStack: []string{"Go", "React"}, UpdatedAt: day("2024-01-02")},
			{Title: "Bare", Status: "planning", CreatedAt: day("2024-01-01")},
			{Title: "Stale", Status: "completed", Progress: 100, UpdatedAt: day("2023-11-01")},
		},
		Notes: []Note{
			{Title: "", CreatedAt: day("2024-01-03")},
			{Title: "Retro", CreatedAt: day("2024-01-03")},
		},
		Snippets: []Snippet{
			{Title: "debounce", Language: "typescript", UpdatedAt: day("2024-01-04")},
		},
	}
	want := strings.Join([]string{
		"Week: Jan 1, 2024 – Jan 7, 2024",
		"",
		"## Projects",
		"- DevFlow (status: in-progress, progress: 40%)",
		"  Tech: Go, React",
		"- Bare (status: planning, progress: 0%)",
		"",
		"## Notes",
		"- Untitled",
		"- Retro",
		"",
		"## Code snippets",
		"- debounce (typescript)",
	}, "\n")
	if got := BuildPayload(UTC, snap, now); got != want {
		t.Errorf("payload mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPayload_SectionOrder(t *testing.T) {
	got := BuildPayload(UTC, Snapshot{}, day("2024-01-03"))
	p := strings.Index(got, "## Projects")
	n := strings.Index(got, "## Notes")
	s := strings.Index(got, "## Code snippets")
	if !(p >= 0 && p < n && n < s) {
		t.Errorf("sections out of order: %d %d %d", p, n, s)
	}
}

func TestSummarize(t *testing.T) {
	ov := Summarize(UTC, sampleSnapshot(), day("2024-01-03"), 10)
	if ov.CurrentStreak != 3 || ov.LongestStreak != 3 {
		t.Errorf("streaks = %d/%d, want 3/3", ov.CurrentStreak, ov.LongestStreak)
	}
	if ov.ActiveDays != 3 {
		t.Errorf("ActiveDays = %d", ov.ActiveDays)
	}
	if len(ov.Timeline) != 10 {
		t.Errorf("timeline len = %d", len(ov.Timeline))
	}
	if len(ov.TechStack) != 1 || ov.TechStack[0].Name != "go" {
		t.Errorf("tech = %v", ov.TechStack)
	}
}
