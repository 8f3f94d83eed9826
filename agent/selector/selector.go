/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package selector classifies a user's request into one of the configured
// commands by running a restricted agent task. The model is given only the
// issue-reading tool and the reporting tools; a successful run names the
// chosen command in its task details.
package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/issueops/ghagent/agent/conversation"
	"github.com/issueops/ghagent/agent/taskrunner"
	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/config"
)

var (
	// ErrCommandNotSelected means the model could not match the request
	// to any configured command.
	ErrCommandNotSelected = errors.New("no command selected")

	// ErrCommandNotFound means the model named a command that is not in
	// the configuration.
	ErrCommandNotFound = errors.New("selected command not found")
)

// issueTool is the only non-reporting tool available during selection.
const issueTool = "get_issue_with_comments"

const systemPrompt = `You are a GitHub based AI Agent. You receive plain text questions from the developer and you need to determine which command, if any, most closely matches the developer's request.

You are not trying to solve the developer's problem. Just categorize their request.

When you identify the command name that most closely matches the developer's request:
1. Report successful completion
  a. Place the command name in the "task_details" field
  b. Place a detailed description of why this command is appropriate in the "completion_details" field

If you cannot identify a command name that most closely matches the developer's request:
1. Call the "get_issue_with_comments" tool to get the issue details and comments to help you identify the command name
2. If you still cannot identify a command name, report failure
  a. Place a detailed explanation of why none of the commands are appropriate in the "failure_details" field`

// Select runs the classification task and returns the chosen command.
func Select(ctx context.Context, runner *taskrunner.Runner, registry *toolcall.Registry, cfg *config.Config, userQuestion string) (config.Command, error) {
	log := clog.FromContext(ctx)

	tools, err := registry.Resolve(issueTool)
	if err != nil {
		return config.Command{}, fmt.Errorf("resolving selection tools: %w", err)
	}

	var catalog strings.Builder
	for _, cmd := range cfg.Commands {
		fmt.Fprintf(&catalog, "- %s: Appropriate when the developer asks you to %s\n", cmd.Name, cmd.Description)
	}

	prelude := []conversation.Turn{
		{Kind: conversation.KindModelText, Text: "Ok, I understand. I am not solving the problem, just picking the best command to use."},
		{Kind: conversation.KindUserText, Text: "Available commands:\n" + catalog.String()},
		{Kind: conversation.KindModelText, Text: "Okay, I have read the available commands and I understand that I may need to get info from the GitHub issue via the get_issue_with_comments tool if the developer's question is too vague."},
	}

	log.With("question", userQuestion).Info("Selecting command")

	outcome, err := runner.Run(ctx, taskrunner.Task{
		Command:      "select_command",
		SystemPrompt: systemPrompt,
		Prompt:       fmt.Sprintf("Request to identify the best command to use for: **%s**", userQuestion),
		Tools:        tools,
		Prelude:      prelude,
	})
	if err != nil {
		return config.Command{}, fmt.Errorf("running command selection: %w", err)
	}

	if outcome.Status != taskrunner.StatusSuccess {
		return config.Command{}, fmt.Errorf("%w: %s", ErrCommandNotSelected, outcome.Details)
	}

	name := strings.TrimSpace(outcome.TaskDetails)
	command, ok := cfg.CommandByName(name)
	if !ok {
		return config.Command{}, fmt.Errorf("%w: %q", ErrCommandNotFound, name)
	}

	log.With("command", command.Name).Info("Selected command")
	return command, nil
}
