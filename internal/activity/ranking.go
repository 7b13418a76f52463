package activity

import (
	"cmp"
	"slices"
	"strings"
)

// MaxRankedLabels caps the ranking length.
const MaxRankedLabels = 15

// LabelCount is one ranked technology or language label.
type LabelCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankLabels counts project tech-stack labels and snippet languages in one
// shared space and returns the most frequent ones. Ties keep first-seen
// order.
func RankLabels(snap Snapshot) []LabelCount {
	var ranked []LabelCount
	index := make(map[string]int)
	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		if i, ok := index[label]; ok {
			ranked[i].Count++
			return
		}
		index[label] = len(ranked)
		ranked = append(ranked, LabelCount{Name: label, Count: 1})
	}

	for _, p := range snap.Projects {
		for _, t := range p.TechStack {
			add(t)
		}
	}
	for _, s := range snap.Snippets {
		add(s.Language)
	}

	slices.SortStableFunc(ranked, func(a, b LabelCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(ranked) > MaxRankedLabels {
		ranked = ranked[:MaxRankedLabels]
	}
	if ranked == nil {
		ranked = []LabelCount{}
	}
	return ranked
}
