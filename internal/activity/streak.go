package activity

import (
	"slices"
	"time"
)

// LongestStreak returns the longest run of consecutive days in sorted, an
// ascending list of day keys.
func LongestStreak(cal Calendar, sorted []string) int {
	if len(sorted) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if next := cal.AddDays(sorted[i-1], 1); next != "" && next == sorted[i] {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return longest
}

// CurrentStreak returns the length of the run of active days ending today,
// or ending yesterday when today has no activity yet.
func CurrentStreak(cal Calendar, sorted []string, now time.Time) int {
	if len(sorted) == 0 {
		return 0
	}
	has := func(key string) bool {
		_, found := slices.BinarySearch(sorted, key)
		return found
	}

	day := cal.KeyOf(now)
	if !has(day) {
		day = cal.AddDays(day, -1)
		if !has(day) {
			return 0
		}
	}

	count := 0
	for has(day) {
		count++
		day = cal.AddDays(day, -1)
	}
	return count
}
