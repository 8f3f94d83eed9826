/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"sync"
)

// LimitError is returned when the model tries to repeat a capped resource
// action. The message tells the model to stop rather than retry.
type LimitError struct {
	Action string
}

// Error implements error.
func (e *LimitError) Error() string {
	return "The model attempted to " + e.Action + " more than once but only one is allowed. Model must stop."
}

// RunLimits caps resource-creating actions for the lifetime of one run.
// Each action may happen at most once; the counters are checked before the
// API call and advanced only after it succeeds, so a failed call does not
// consume the budget.
type RunLimits struct {
	mu            sync.Mutex
	issueComments int
	pullRequests  int
	reviews       int
}

// NewRunLimits returns fresh per-run counters.
func NewRunLimits() *RunLimits {
	return &RunLimits{}
}

func (l *RunLimits) checkIssueComment() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.issueComments >= 1 {
		return &LimitError{Action: "create a comment"}
	}
	return nil
}

func (l *RunLimits) noteIssueComment() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issueComments++
}

func (l *RunLimits) checkPullRequest() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pullRequests >= 1 {
		return &LimitError{Action: "create a pull request"}
	}
	return nil
}

func (l *RunLimits) notePullRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pullRequests++
}

func (l *RunLimits) checkReview() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reviews >= 1 {
		return &LimitError{Action: "create a pull request review"}
	}
	return nil
}

func (l *RunLimits) noteReview() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reviews++
}
