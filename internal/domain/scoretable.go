package domain

// ScoreTable maps every candidate that entered a tournament to its cumulative
// win count. Entries are created once, before round 1, and never removed:
// the table's domain always equals the full original candidate set, so
// candidates eliminated in round 1 still appear in the final ranking with
// score 0.
//
// ScoreTable is not safe for concurrent use. The Ranker owns it exclusively
// for the duration of one Rank call and applies all increments from a single
// goroutine.
type ScoreTable struct {
	scores     map[string]int
	candidates []Candidate
}

// NewScoreTable initializes a table with every candidate at score 0.
// Candidates with duplicate IDs are rejected by construction upstream
// (intake IDs are sequential); a later duplicate silently keeps one entry.
func NewScoreTable(candidates []Candidate) *ScoreTable {
	st := &ScoreTable{
		scores:     make(map[string]int, len(candidates)),
		candidates: make([]Candidate, 0, len(candidates)),
	}
	for _, c := range candidates {
		if _, ok := st.scores[c.ID]; ok {
			continue
		}
		st.scores[c.ID] = 0
		st.candidates = append(st.candidates, c)
	}
	return st
}

// Len returns the number of candidates tracked by the table.
func (st *ScoreTable) Len() int { return len(st.candidates) }

// Increment adds one win to the candidate with the given ID.
// It returns false if the ID is not in the table's domain, which is
// structurally impossible with correct construction and is kept only as a
// defensive guard; callers log and continue rather than abort.
func (st *ScoreTable) Increment(id string) bool {
	if _, ok := st.scores[id]; !ok {
		return false
	}
	st.scores[id]++
	return true
}

// Score returns the current win count for a candidate ID.
func (st *ScoreTable) Score(id string) (int, bool) {
	score, ok := st.scores[id]
	return score, ok
}

// Snapshot returns a copy of the full ID → score mapping, suitable for
// appending to the score snapshot log after each round.
func (st *ScoreTable) Snapshot() map[string]int {
	snapshot := make(map[string]int, len(st.scores))
	for id, score := range st.scores {
		snapshot[id] = score
	}
	return snapshot
}

// Ranking builds the final ranking: every tracked candidate exactly once,
// sorted by score descending, ties kept in intake order.
func (st *ScoreTable) Ranking() Ranking {
	ranking := make(Ranking, 0, len(st.candidates))
	for _, c := range st.candidates {
		ranking = append(ranking, RankedCandidate{Candidate: c, Score: st.scores[c.ID]})
	}
	sortByScore(ranking)
	return ranking
}
