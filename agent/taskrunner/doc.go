/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package taskrunner drives the agent's tool-calling loop. A Runner sends
// the conversation to a ModelCaller, dispatches the function calls the model
// requests, and feeds results back until the model reports an outcome via
// report_completion or report_failure, the iteration budget runs out, or
// the context is canceled.
//
// Tool failures are surfaced to the model as error payloads rather than
// terminating the run; only infrastructure problems (model API failures
// after retries, exhausted budgets, unparseable outcome reports) return an
// error from Run.
package taskrunner
