package activity

import "time"

// DefaultTimelineDays is the trailing window used when none is given.
const DefaultTimelineDays = 30

// TimelineEntry counts record activity on one day.
type TimelineEntry struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	Projects int    `json:"projects"`
	Notes    int    `json:"notes"`
	Snippets int    `json:"snippets"`
}

// Timeline buckets creations and modifications into one entry per day for
// the days days starting at today minus days. The window ends the day
// before today; today's activity is not represented.
func Timeline(cal Calendar, snap Snapshot, now time.Time, days int) []TimelineEntry {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	start := cal.Midnight(now).AddDate(0, 0, -days)
	startKey := start.Format(DayKeyLayout)

	counts := make(map[string]*TimelineEntry)
	add := func(t time.Time, kind func(*TimelineEntry)) {
		key := cal.KeyOf(t)
		if key == "" || key < startKey {
			return
		}
		e, ok := counts[key]
		if !ok {
			e = &TimelineEntry{Date: key}
			counts[key] = e
		}
		e.Total++
		kind(e)
	}
	project := func(e *TimelineEntry) { e.Projects++ }
	note := func(e *TimelineEntry) { e.Notes++ }
	snippet := func(e *TimelineEntry) { e.Snippets++ }

	for _, p := range snap.Projects {
		add(p.CreatedAt, project)
		add(p.UpdatedAt, project)
	}
	for _, n := range snap.Notes {
		add(n.CreatedAt, note)
		add(n.UpdatedAt, note)
	}
	for _, s := range snap.Snippets {
		add(s.CreatedAt, snippet)
		add(s.UpdatedAt, snippet)
	}

	out := make([]TimelineEntry, days)
	for i := range out {
		key := start.AddDate(0, 0, i).Format(DayKeyLayout)
		if e, ok := counts[key]; ok {
			out[i] = *e
		} else {
			out[i] = TimelineEntry{Date: key}
		}
	}
	return out
}
