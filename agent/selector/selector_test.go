/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package selector_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/issueops/ghagent/agent/conversation"
	"github.com/issueops/ghagent/agent/selector"
	"github.com/issueops/ghagent/agent/taskrunner"
	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/config"
)

// reportCaller answers every run with a single reporting call.
type reportCaller struct {
	name string
	args map[string]any

	sawTools []string
	sawConv  []conversation.Turn
}

func (c *reportCaller) Model() string { return "test-model" }

func (c *reportCaller) Call(_ context.Context, _ string, conv *conversation.Conversation, tools []toolcall.Definition) (*taskrunner.ModelReply, error) {
	for _, def := range tools {
		c.sawTools = append(c.sawTools, def.Name)
	}
	c.sawConv = conv.Turns()
	return &taskrunner.ModelReply{Calls: []toolcall.Request{{Name: c.name, Args: c.args}}}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Resolve(&config.File{
		SystemPrompt: "system",
		Commands: []config.CommandEntry{{
			Name:        "answer_question",
			Description: "answer a question about the repository",
			Prompt:      "Answer: ${user_question}",
		}, {
			Name:        "review_pr",
			Description: "review a pull request",
			Prompt:      "Review PR ${github_pr_number}",
		}},
	}, ".", config.Restrictions{})
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testRegistry(t *testing.T) *toolcall.Registry {
	t.Helper()
	reg := toolcall.NewRegistry()
	err := reg.Register(toolcall.Tool{
		Def: toolcall.Definition{
			Name:        "get_issue_with_comments",
			Description: "Get an issue and its comments.",
		},
		Handler: func(context.Context, map[string]any) (any, error) {
			return map[string]any{"title": "stub"}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestSelect(t *testing.T) {
	t.Parallel()
	caller := &reportCaller{
		name: toolcall.ReportCompletion,
		args: map[string]any{
			"task_details":       "review_pr",
			"completion_details": "the developer asked for a review",
		},
	}
	runner, err := taskrunner.New(caller)
	if err != nil {
		t.Fatal(err)
	}

	command, err := selector.Select(context.Background(), runner, testRegistry(t), testConfig(t), "please review my PR")
	if err != nil {
		t.Fatalf("Select() = %v", err)
	}
	if command.Name != "review_pr" {
		t.Errorf("selected %q, want review_pr", command.Name)
	}

	// Selection runs with the issue tool and the reporting tools only.
	for _, name := range caller.sawTools {
		switch name {
		case "get_issue_with_comments", toolcall.ReportCompletion, toolcall.ReportFailure:
		default:
			t.Errorf("unexpected tool %q offered during selection", name)
		}
	}

	// The command catalog is staged in the conversation before the request.
	var sawCatalog bool
	for _, turn := range caller.sawConv {
		if turn.Kind == conversation.KindUserText && strings.Contains(turn.Text, "review_pr: Appropriate when") {
			sawCatalog = true
		}
	}
	if !sawCatalog {
		t.Error("command catalog not found in selection conversation")
	}
}

func TestSelectFailure(t *testing.T) {
	t.Parallel()
	caller := &reportCaller{
		name: toolcall.ReportFailure,
		args: map[string]any{
			"task_details":    "classification",
			"failure_details": "none of the commands match",
		},
	}
	runner, err := taskrunner.New(caller)
	if err != nil {
		t.Fatal(err)
	}

	_, err = selector.Select(context.Background(), runner, testRegistry(t), testConfig(t), "make me a sandwich")
	if !errors.Is(err, selector.ErrCommandNotSelected) {
		t.Fatalf("Select() = %v, want ErrCommandNotSelected", err)
	}
}

func TestSelectUnknownCommand(t *testing.T) {
	t.Parallel()
	caller := &reportCaller{
		name: toolcall.ReportCompletion,
		args: map[string]any{
			"task_details":       "deploy_to_production",
			"completion_details": "sounds right",
		},
	}
	runner, err := taskrunner.New(caller)
	if err != nil {
		t.Fatal(err)
	}

	_, err = selector.Select(context.Background(), runner, testRegistry(t), testConfig(t), "deploy it")
	if !errors.Is(err, selector.ErrCommandNotFound) {
		t.Fatalf("Select() = %v, want ErrCommandNotFound", err)
	}
}
