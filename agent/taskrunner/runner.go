/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package taskrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/issueops/ghagent/agent/conversation"
	"github.com/issueops/ghagent/agent/metrics"
	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/agent/toolcall/params"
)

const (
	// DefaultMaxIterations bounds the number of model turns that contain
	// function calls. Text-only turns are re-prompted without consuming
	// an iteration.
	DefaultMaxIterations = 15

	// DefaultMaxResponseBytes bounds the serialized size of a tool
	// response sent back to the model.
	DefaultMaxResponseBytes = 1 << 20
)

// oversizedResponseMessage replaces tool responses that exceed the size
// limit.
const oversizedResponseMessage = "Response is too large to be processed. Perform your tool call in a way that returns less data."

// repromptMessage nudges the model back to function calls when it replies
// with prose only.
const repromptMessage = "Please continue the task using the available tools. When the task is finished, call report_completion; if it cannot be completed, call report_failure."

var (
	// ErrMaxIterations indicates the run exhausted its iteration budget
	// without the model reporting an outcome.
	ErrMaxIterations = errors.New("maximum iterations reached without a reported outcome")

	// ErrUnknownStatus indicates the model invoked a reporting tool with
	// arguments that do not describe a valid outcome.
	ErrUnknownStatus = errors.New("task finished with unknown status")
)

// Status is the reported outcome of a completed run.
type Status int

const (
	// StatusSuccess means the model called report_completion.
	StatusSuccess Status = iota
	// StatusFailure means the model called report_failure. This is a
	// business outcome, not an infrastructure error.
	StatusFailure
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of a finished run.
type Outcome struct {
	Status Status

	// TaskDetails is the model's restatement of the task it worked on.
	TaskDetails string

	// Details carries completion details on success and failure details
	// on failure.
	Details string

	// Iterations is the number of function-call turns consumed.
	Iterations int

	// History records every dispatched tool call in order, including
	// seeded calls.
	History []toolcall.Result

	// Conversation is the full turn history of the run.
	Conversation *conversation.Conversation
}

// ModelReply is one model response, already decomposed into provider
// independent parts.
type ModelReply struct {
	Texts []string
	Calls []toolcall.Request

	// Malformed is set when the provider reports a malformed function
	// call; FinishMessage carries the provider's explanation.
	Malformed     bool
	FinishMessage string

	PromptTokens     int64
	CompletionTokens int64
}

// ModelCaller issues one model request over the accumulated conversation.
type ModelCaller interface {
	// Model returns the model identifier, used for metric labels.
	Model() string

	// Call sends the conversation and tool declarations to the model and
	// returns its reply. Implementations handle transport-level retries.
	Call(ctx context.Context, systemPrompt string, conv *conversation.Conversation, tools []toolcall.Definition) (*ModelReply, error)
}

// Task describes one unit of work for the runner.
type Task struct {
	// Command names the command being executed, for logs and metrics.
	Command string

	// SystemPrompt is the system instruction for the whole run.
	SystemPrompt string

	// Prompt is the initial user message.
	Prompt string

	// Tools is the resolved tool set for this run. It must include the
	// reporting tools; Registry.Resolve guarantees that.
	Tools []toolcall.Tool

	// SeedCalls are dispatched before the first model turn and their
	// results prepended to the conversation.
	SeedCalls []toolcall.Request

	// Prelude turns are inserted between the seeded results and the
	// prompt, and Epilogue turns after the prompt. They let callers
	// stage scripted dialogue, such as the command catalog during
	// selection or a command's example flow.
	Prelude  []conversation.Turn
	Epilogue []conversation.Turn
}

// Runner drives the tool-calling loop until the model reports an outcome,
// the iteration budget is exhausted, or the context is canceled.
type Runner struct {
	caller           ModelCaller
	maxIterations    int
	maxResponseBytes int
	metrics          *metrics.Agent
}

// Option configures a Runner.
type Option func(*Runner) error

// WithMaxIterations overrides the iteration budget.
func WithMaxIterations(n int) Option {
	return func(r *Runner) error {
		if n <= 0 {
			return errors.New("max iterations must be positive")
		}
		r.maxIterations = n
		return nil
	}
}

// WithMaxResponseBytes overrides the tool response size limit.
func WithMaxResponseBytes(n int) Option {
	return func(r *Runner) error {
		if n <= 0 {
			return errors.New("max response bytes must be positive")
		}
		r.maxResponseBytes = n
		return nil
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Agent) Option {
	return func(r *Runner) error {
		r.metrics = m
		return nil
	}
}

// New creates a Runner for the given model caller.
func New(caller ModelCaller, opts ...Option) (*Runner, error) {
	if caller == nil {
		return nil, errors.New("model caller is required")
	}
	r := &Runner{
		caller:           caller,
		maxIterations:    DefaultMaxIterations,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return r, nil
}

// Run executes the task. A Failure outcome is returned as an Outcome, not
// an error; errors are reserved for infrastructure problems, exhausted
// budgets, and unknown statuses.
func (r *Runner) Run(ctx context.Context, task Task) (*Outcome, error) {
	log := clog.FromContext(ctx).With("command", task.Command)

	tools := make(map[string]toolcall.Tool, len(task.Tools))
	defs := make([]toolcall.Definition, 0, len(task.Tools))
	for _, tool := range task.Tools {
		tools[tool.Def.Name] = tool
		defs = append(defs, tool.Def)
	}

	conv := conversation.New()

	var history []toolcall.Result

	// Seed calls run before the model's first turn so their results are
	// already in the conversation when the prompt arrives.
	for _, call := range task.SeedCalls {
		log.With("tool", call.Name).Info("Dispatching seeded tool call")
		if toolcall.IsSentinel(call.Name) {
			return nil, fmt.Errorf("seeded call %q is a reporting tool", call.Name)
		}
		result := r.dispatch(ctx, tools, call)
		history = append(history, result)
		conv.AddModelCall(call)
		conv.AddToolResult(result)
	}

	for _, turn := range task.Prelude {
		conv.Append(turn)
	}
	conv.AddUserText(task.Prompt)
	for _, turn := range task.Epilogue {
		conv.Append(turn)
	}

	iterations := 0
	reprompts := 0

	for iterations < r.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := r.caller.Call(ctx, task.SystemPrompt, conv, defs)
		if err != nil {
			return nil, fmt.Errorf("calling model: %w", err)
		}
		if r.metrics != nil {
			r.metrics.RecordTokens(ctx, r.caller.Model(), reply.PromptTokens, reply.CompletionTokens)
		}

		if reply.Malformed {
			log.With("finish_message", reply.FinishMessage).
				Warn("Model attempted a malformed function call, asking it to retry")
			reprompts++
			if reprompts >= r.maxIterations {
				return nil, fmt.Errorf("%w (after %d re-prompts)", ErrMaxIterations, reprompts)
			}
			conv.AddUserText(fmt.Sprintf("The function call was malformed. Please try again using the available functions: %v", toolNames(defs)))
			continue
		}

		for _, text := range reply.Texts {
			conv.AddModelText(text)
		}

		if len(reply.Calls) == 0 {
			// Text-only replies do not consume an iteration, but a
			// model that never calls a function must still terminate.
			reprompts++
			if reprompts >= r.maxIterations {
				return nil, fmt.Errorf("%w (after %d re-prompts)", ErrMaxIterations, reprompts)
			}
			log.With("reprompts", reprompts).Info("Model replied without function calls, re-prompting")
			conv.AddUserText(repromptMessage)
			continue
		}

		iterations++
		if r.metrics != nil {
			r.metrics.RecordIteration(ctx, r.caller.Model(), task.Command)
		}
		log.With("iteration", iterations).
			With("calls", len(reply.Calls)).
			Info("Dispatching model tool calls")

		for _, call := range reply.Calls {
			conv.AddModelCall(call)

			if toolcall.IsSentinel(call.Name) {
				outcome, err := r.intercept(call, iterations, history, conv)
				if err != nil {
					return nil, err
				}
				log.With("status", outcome.Status.String()).
					With("iterations", iterations).
					Info("Model reported an outcome")
				return outcome, nil
			}

			if r.metrics != nil {
				r.metrics.RecordToolCall(ctx, r.caller.Model(), call.Name)
			}
			result := r.dispatch(ctx, tools, call)
			history = append(history, result)
			conv.AddToolResult(result)
		}
	}

	return nil, fmt.Errorf("%w (budget %d)", ErrMaxIterations, r.maxIterations)
}

// outcomeField extracts a reporting-tool field. An empty value is as
// useless as a missing one, so both are rejected.
func outcomeField(args map[string]any, name string) (string, error) {
	value, err := params.Get[string](args, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s parameter is empty", name)
	}
	return value, nil
}

// intercept turns a reporting tool call into an Outcome without dispatching
// it. Missing or empty outcome fields are a terminal error, not a Failure.
func (r *Runner) intercept(call toolcall.Request, iterations int, history []toolcall.Result, conv *conversation.Conversation) (*Outcome, error) {
	taskDetails, err := outcomeField(call.Args, "task_details")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownStatus, call.Name, err)
	}

	outcome := &Outcome{
		TaskDetails:  taskDetails,
		Iterations:   iterations,
		History:      history,
		Conversation: conv,
	}

	switch call.Name {
	case toolcall.ReportCompletion:
		details, err := outcomeField(call.Args, "completion_details")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownStatus, call.Name, err)
		}
		outcome.Status = StatusSuccess
		outcome.Details = details
	case toolcall.ReportFailure:
		details, err := outcomeField(call.Args, "failure_details")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownStatus, call.Name, err)
		}
		outcome.Status = StatusFailure
		outcome.Details = details
	default:
		return nil, fmt.Errorf("%w: unexpected reporting tool %q", ErrUnknownStatus, call.Name)
	}

	return outcome, nil
}

// dispatch executes one tool call. Failures become error payloads sent back
// to the model; only the payload shape distinguishes them from successes.
func (r *Runner) dispatch(ctx context.Context, tools map[string]toolcall.Tool, call toolcall.Request) toolcall.Result {
	log := clog.FromContext(ctx).With("tool", call.Name)

	result := toolcall.Result{ID: call.ID, Name: call.Name, Args: call.Args}

	tool, ok := tools[call.Name]
	if !ok {
		log.Error("Unknown function call requested by model")
		result.Err = fmt.Sprintf("Unknown function: %s", call.Name)
		result.Output = params.Error("Unknown function: %s", call.Name)
		return result
	}

	if err := toolcall.ValidateArgs(tool.Def, call.Args); err != nil {
		log.With("error", err).Warn("Tool call arguments failed validation")
		result.Err = err.Error()
		result.Output = params.Error("%s", err.Error())
		return result
	}

	output, err := tool.Handler(ctx, call.Args)
	if err != nil {
		log.With("error", err).Warn("Tool call failed")
		result.Err = err.Error()
		result.Output = params.Error("%s", err.Error())
		return result
	}

	payload := toPayload(output)
	if data, err := json.Marshal(payload); err != nil {
		log.With("error", err).Error("Tool response is not serializable")
		result.Err = err.Error()
		result.Output = params.Error("tool response is not serializable: %s", err.Error())
		return result
	} else if len(data) > r.maxResponseBytes {
		log.With("size", len(data)).Warn("Tool response exceeds size limit, replacing")
		result.Err = oversizedResponseMessage
		result.Output = params.Error("%s", oversizedResponseMessage)
		return result
	}

	result.Output = payload
	return result
}

// toPayload shapes a handler's return value into the response map sent to
// the model.
func toPayload(output any) map[string]any {
	if m, ok := output.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": output}
}

func toolNames(defs []toolcall.Definition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}
