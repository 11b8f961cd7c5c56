// Package domain holds the core types of the tournament ranking model:
// candidates, the score table that tracks their lifetime win counts, and
// the final ranking produced from it.
package domain

import (
	"fmt"
	"sort"
)

// Candidate is one short-story prompt subject to ranking.
// The ID is generated at intake and is the identity used for scoring,
// so two candidates with identical text are still tracked separately.
type Candidate struct {
	// ID uniquely identifies this candidate within a ranking run.
	ID string `json:"id"`

	// Text contains the candidate prompt itself.
	Text string `json:"text"`
}

// NewCandidates assigns sequential intake IDs to a list of raw prompt texts.
// The returned slice preserves input order; that order is also the tie-break
// order of the final ranking.
func NewCandidates(texts []string) []Candidate {
	candidates := make([]Candidate, len(texts))
	for i, text := range texts {
		candidates[i] = Candidate{
			ID:   fmt.Sprintf("c%04d", i+1),
			Text: text,
		}
	}
	return candidates
}

// RankedCandidate pairs a candidate with its final cumulative win count.
type RankedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Score     int       `json:"score"`
}

// Ranking is the final output of a tournament: every original candidate
// exactly once, ordered by score descending.
type Ranking []RankedCandidate

// sortByScore orders a ranking by descending score, keeping intake order
// among equal scores.
func sortByScore(r Ranking) {
	sort.SliceStable(r, func(i, j int) bool { return r[i].Score > r[j].Score })
}
