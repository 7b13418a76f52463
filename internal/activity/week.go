package activity

import "time"

// Week is the half-open interval [Start, End) of a Monday-aligned week.
type Week struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the week containing now. Start is Monday 00:00 in the
// calendar zone.
func WeekOf(cal Calendar, now time.Time) Week {
	day := cal.Midnight(now)
	offset := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	start := day.AddDate(0, 0, -offset)
	return Week{Start: start, End: start.AddDate(0, 0, 7)}
}

// Contains reports whether t falls inside the week. The zero time never does.
func (w Week) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// Touches reports whether a record created or updated at the given times
// had activity during the week.
func (w Week) Touches(created, updated time.Time) bool {
	return w.Contains(created) || w.Contains(updated)
}

// Label formats the week as "Feb 24, 2026 – Mar 2, 2026".
func (w Week) Label() string {
	const layout = "Jan 2, 2006"
	return w.Start.Format(layout) + " – " + w.Start.AddDate(0, 0, 6).Format(layout)
}

// Filter keeps only the records with activity during the week.
func (w Week) Filter(snap Snapshot) Snapshot {
	var out Snapshot
	for _, p := range snap.Projects {
		if w.Touches(p.CreatedAt, p.UpdatedAt) {
			out.Projects = append(out.Projects, p)
		}
	}
	for _, n := range snap.Notes {
		if w.Touches(n.CreatedAt, n.UpdatedAt) {
			out.Notes = append(out.Notes, n)
		}
	}
	for _, s := range snap.Snippets {
		if w.Touches(s.CreatedAt, s.UpdatedAt) {
			out.Snippets = append(out.Snippets, s)
		}
	}
	return out
}
