package domain

import "errors"

// Common domain errors that can occur during a ranking run.
var (
	// ErrNoDecision indicates that the judge's response contained no valid
	// choice for a group. It is a recoverable outcome, not a failure: the
	// Ranker retries the group a bounded number of times and then eliminates
	// it without a winner. Match with errors.Is.
	ErrNoDecision = errors.New("no decision")

	// ErrEmptyGroup indicates that an empty group was submitted for judging.
	ErrEmptyGroup = errors.New("group must contain at least one candidate")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
