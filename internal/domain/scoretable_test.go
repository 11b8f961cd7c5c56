package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidates_AssignsSequentialIDs(t *testing.T) {
	candidates := NewCandidates([]string{"a story", "another story"})

	require.Len(t, candidates, 2)
	assert.Equal(t, "c0001", candidates[0].ID)
	assert.Equal(t, "a story", candidates[0].Text)
	assert.Equal(t, "c0002", candidates[1].ID)
}

// Duplicate texts get distinct IDs, so their scores never merge.
func TestNewCandidates_DuplicateTextsStayDistinct(t *testing.T) {
	candidates := NewCandidates([]string{"same", "same"})

	require.Len(t, candidates, 2)
	assert.NotEqual(t, candidates[0].ID, candidates[1].ID)
}

func TestScoreTable_InitializesEveryCandidateAtZero(t *testing.T) {
	candidates := NewCandidates([]string{"a", "b", "c"})
	table := NewScoreTable(candidates)

	assert.Equal(t, 3, table.Len())
	for _, c := range candidates {
		score, ok := table.Score(c.ID)
		require.True(t, ok)
		assert.Zero(t, score)
	}
}

func TestScoreTable_Increment(t *testing.T) {
	table := NewScoreTable(NewCandidates([]string{"a", "b"}))

	assert.True(t, table.Increment("c0001"))
	assert.True(t, table.Increment("c0001"))

	score, ok := table.Score("c0001")
	require.True(t, ok)
	assert.Equal(t, 2, score)
}

// Incrementing an unknown ID is the defensive guard of the scoring path:
// it must report failure without mutating or panicking.
func TestScoreTable_IncrementUnknownID(t *testing.T) {
	table := NewScoreTable(NewCandidates([]string{"a"}))

	assert.False(t, table.Increment("c9999"))
	assert.Equal(t, 1, table.Len())
}

func TestScoreTable_SnapshotIsACopy(t *testing.T) {
	table := NewScoreTable(NewCandidates([]string{"a", "b"}))
	table.Increment("c0001")

	snapshot := table.Snapshot()
	assert.Equal(t, map[string]int{"c0001": 1, "c0002": 0}, snapshot)

	snapshot["c0001"] = 99
	score, _ := table.Score("c0001")
	assert.Equal(t, 1, score, "mutating the snapshot must not affect the table")
}

func TestScoreTable_RankingSortsByScoreDescending(t *testing.T) {
	table := NewScoreTable(NewCandidates([]string{"low", "high", "mid"}))
	table.Increment("c0002")
	table.Increment("c0002")
	table.Increment("c0003")

	ranking := table.Ranking()

	require.Len(t, ranking, 3)
	assert.Equal(t, "high", ranking[0].Candidate.Text)
	assert.Equal(t, 2, ranking[0].Score)
	assert.Equal(t, "mid", ranking[1].Candidate.Text)
	assert.Equal(t, "low", ranking[2].Candidate.Text)
	assert.Zero(t, ranking[2].Score)
}

// Equal scores keep intake order, so rankings are stable across runs with
// identical score tables.
func TestScoreTable_RankingTiesKeepIntakeOrder(t *testing.T) {
	table := NewScoreTable(NewCandidates([]string{"first", "second", "third"}))

	ranking := table.Ranking()

	require.Len(t, ranking, 3)
	assert.Equal(t, "first", ranking[0].Candidate.Text)
	assert.Equal(t, "second", ranking[1].Candidate.Text)
	assert.Equal(t, "third", ranking[2].Candidate.Text)
}
