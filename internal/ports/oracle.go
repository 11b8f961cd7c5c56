// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"storyrank/internal/domain"
)

// Oracle abstracts the judge that picks a winner among a small group of
// candidates. Implementations wrap an LLM; tests substitute deterministic
// fakes.
type Oracle interface {
	// Pick asks the judge to choose the most promising candidate from an
	// ordered group of 1 to max-group-size candidates and returns its
	// 0-based index within the group.
	//
	// Three outcomes are possible:
	//   - a valid index and nil error: the group has a winner;
	//   - an error matching domain.ErrNoDecision: the judge's response could
	//     not be turned into a valid choice. This is recoverable and the
	//     caller decides whether to retry;
	//   - any other error: a transport-level failure that should abort the run.
	//
	// Pick must not mutate the group. Implementations contain no retry logic;
	// retries are the caller's responsibility.
	Pick(ctx context.Context, group []domain.Candidate) (int, error)
}
