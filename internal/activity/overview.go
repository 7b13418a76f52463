package activity

import "time"

// Overview bundles every metric the dashboard shows.
type Overview struct {
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	ActiveDays    int             `json:"active_days"`
	Timeline      []TimelineEntry `json:"timeline"`
	TechStack     []LabelCount    `json:"tech_stack"`
}

// Summarize computes the full overview for snap as of now.
func Summarize(cal Calendar, snap Snapshot, now time.Time, days int) Overview {
	active := ActiveDays(cal, snap)
	sorted := active.Sorted()
	return Overview{
		CurrentStreak: CurrentStreak(cal, sorted, now),
		LongestStreak: LongestStreak(cal, sorted),
		ActiveDays:    active.Len(),
		Timeline:      Timeline(cal, snap, now, days),
		TechStack:     RankLabels(snap),
	}
}
