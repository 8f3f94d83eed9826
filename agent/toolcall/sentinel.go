/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"
	"fmt"
)

const (
	// ReportCompletion is the reserved tool the model calls to signal success.
	ReportCompletion = "report_completion"
	// ReportFailure is the reserved tool the model calls to signal failure.
	ReportFailure = "report_failure"
)

// ErrSentinelInvoked is returned when a sentinel tool handler is executed
// directly. The runner intercepts sentinel calls before dispatch; reaching
// the handler means the interception was bypassed.
var ErrSentinelInvoked = errors.New("sentinel tool must be intercepted, not invoked")

// IsSentinel reports whether name is one of the reserved terminal tools.
func IsSentinel(name string) bool {
	return name == ReportCompletion || name == ReportFailure
}

func sentinelTools() []Tool {
	handler := func(name string) Handler {
		return func(context.Context, map[string]any) (any, error) {
			return nil, fmt.Errorf("%s: %w", name, ErrSentinelInvoked)
		}
	}

	return []Tool{{
		Def: Definition{
			Name: ReportCompletion,
			Description: "Report that the assigned task has been fully completed. " +
				"Call this only when no further actions are needed; it ends the task.",
			Parameters: []Parameter{
				{Name: "task_details", Type: "string", Description: "A summary of the original task assigned by the user.", Required: true},
				{Name: "completion_details", Type: "string", Description: "How the task was completed and the final outcome.", Required: true},
			},
		},
		Handler: handler(ReportCompletion),
	}, {
		Def: Definition{
			Name: ReportFailure,
			Description: "Report that the assigned task cannot be completed. " +
				"Call this when errors, limitations, or unresolvable ambiguities prevent fulfilling the request.",
			Parameters: []Parameter{
				{Name: "task_details", Type: "string", Description: "A summary of the original task assigned by the user.", Required: true},
				{Name: "failure_details", Type: "string", Description: "Why the task failed.", Required: true},
			},
		},
		Handler: handler(ReportFailure),
	}}
}
