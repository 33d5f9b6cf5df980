// Package ranking assigns leaderboard positions.
package ranking

import (
	"sort"
)

// Entry is one competitor on a leaderboard
type Entry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// Ranked is an Entry with its computed position
type Ranked struct {
	Entry
	Rank int `json:"rank"`
}

// Rank orders entries by score descending, then name, then id, and assigns
// competition ranks: equal scores share a rank and the next distinct score
// skips ahead (1, 2, 2, 4). The input slice is not modified.
func Rank(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && e.Score == sorted[i-1].Score {
			rank = ranked[i-1].Rank
		}
		ranked[i] = Ranked{Entry: e, Rank: rank}
	}
	return ranked
}

// Top ranks entries and keeps at most limit of them. Ranks are computed over
// the full set so truncation never changes a position.
func Top(entries []Entry, limit int) []Ranked {
	ranked := Rank(entries)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RankOf returns 1 + the number of scores strictly greater than score.
func RankOf(score int64, scores []int64) int {
	rank := 1
	for _, s := range scores {
		if s > score {
			rank++
		}
	}
	return rank
}
