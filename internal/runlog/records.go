// Package runlog implements the append-only JSONL logs a ranking run
// produces: judge decisions, per-round score snapshots, generated idea
// batches, and the final ranking. Each record is one self-contained JSON
// object per line, stamped with the run it belongs to, suitable for audit
// and replay.
package runlog

import (
	"time"

	"storyrank/internal/domain"
)

// Standard file names inside a run's output directory.
const (
	// IdeasFile receives one IdeaBatchRecord per generation batch.
	IdeasFile = "ideas.log"
	// DecisionsFile receives one DecisionRecord per judge invocation.
	DecisionsFile = "decisions.log"
	// ScoresFile receives one ScoreSnapshotRecord per completed round.
	ScoresFile = "scores.log"
	// FinalFile receives one FinalRankingRecord per completed run.
	FinalFile = "final.log"
)

// DecisionRecord captures a single judge invocation: the exact prompt, the
// raw response, and the group it decided over.
type DecisionRecord struct {
	RunID        string    `json:"run_id"`
	Time         time.Time `json:"time"`
	Model        string    `json:"model"`
	CandidateIDs []string  `json:"candidate_ids"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
}

// ScoreSnapshotRecord captures the full score table after one round.
// The domain of Scores always equals the original candidate set.
type ScoreSnapshotRecord struct {
	RunID  string         `json:"run_id"`
	Time   time.Time      `json:"time"`
	Round  int            `json:"round"`
	Active int            `json:"active"`
	Scores map[string]int `json:"scores"`
}

// IdeaBatchRecord captures one generation batch: the prompt used, the raw
// model response, and the parsed candidate strings.
type IdeaBatchRecord struct {
	RunID  string    `json:"run_id,omitempty"`
	Time   time.Time `json:"time,omitzero"`
	Prompt string    `json:"prompt"`
	Raw    string    `json:"raw"`
	Ideas  []string  `json:"ideas"`
}

// FinalRankingRecord captures the complete result of a run, ordered by
// descending score.
type FinalRankingRecord struct {
	RunID   string         `json:"run_id"`
	Time    time.Time      `json:"time"`
	Ranking domain.Ranking `json:"ranking"`
}
