/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the ghagent entry point: it loads the command
// catalog, wires the GitHub, git, web, and filesystem tool surfaces into a
// registry, asks the model to pick a command for the user's question, and
// then drives the tool-calling loop until the model reports an outcome.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/issueops/ghagent/agent/conversation"
	"github.com/issueops/ghagent/agent/metrics"
	"github.com/issueops/ghagent/agent/prompt"
	"github.com/issueops/ghagent/agent/selector"
	"github.com/issueops/ghagent/agent/taskrunner"
	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/config"
	"github.com/issueops/ghagent/fsops"
	"github.com/issueops/ghagent/githubapi"
	"github.com/issueops/ghagent/gitrepo"
	"github.com/issueops/ghagent/webfetch"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"
	"google.golang.org/genai"
)

// Exit codes: success and failure are the model's verdicts; anything that
// prevents the loop from running to a verdict is an infrastructure error.
const (
	exitSuccess = 0
	exitFailure = 1
	exitError   = 2
)

// defaultThinkingBudget is the thinking token budget when THINKING is on.
const defaultThinkingBudget int32 = 2048

type envConfig struct {
	GitHubToken      string `env:"GITHUB_TOKEN,required"`
	GitHubRepository string `env:"GITHUB_REPOSITORY,required"` // owner/name
	GeminiAPIKey     string `env:"GEMINI_API_KEY,required"`
	UserQuestion     string `env:"USER_QUESTION,required"`

	IssueNumber int    `env:"GITHUB_ISSUE_NUMBER"`
	PRNumber    int    `env:"GITHUB_PR_NUMBER"`
	Model       string `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	Thinking    bool   `env:"THINKING,default=true"`
	ConfigFile  string `env:"CONFIG_FILE,default=config.yaml"`

	// Comma-separated allow lists; empty means unrestricted.
	ToolRestrictions    []string `env:"TOOL_RESTRICTIONS"`
	CommandRestrictions []string `env:"COMMAND_RESTRICTIONS"`

	// WorkspaceDir is the filesystem root for file tools. The repository
	// is cloned into its "repo" subdirectory. Defaults to the working
	// directory.
	WorkspaceDir string `env:"WORKSPACE_DIR"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	var env envConfig
	if err := envconfig.Process(ctx, &env); err != nil {
		clog.ErrorContextf(ctx, "processing environment: %v", err)
		return exitError
	}

	log := clog.FromContext(ctx).With("run_id", uuid.NewString())
	ctx = clog.WithLogger(ctx, log)

	conf, err := config.Load(env.ConfigFile, config.Restrictions{
		Tools:    env.ToolRestrictions,
		Commands: env.CommandRestrictions,
	})
	if err != nil {
		log.With("error", err).Error("Loading configuration")
		return exitError
	}

	if len(conf.ActivationKeywords) > 0 && !conf.MatchesActivationKeyword(env.UserQuestion) {
		log.Info("Question does not start with an activation keyword, nothing to do")
		return exitSuccess
	}

	workspace := env.WorkspaceDir
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			log.With("error", err).Error("Resolving working directory")
			return exitError
		}
	}

	limits := githubapi.NewRunLimits()
	gh, err := githubapi.New(ctx, env.GitHubToken, env.GitHubRepository, limits)
	if err != nil {
		log.With("error", err).Error("Creating GitHub client")
		return exitError
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: env.GitHubToken})
	repo, err := gitrepo.New(filepath.Join(workspace, "repo"), env.GitHubRepository, tokenSource)
	if err != nil {
		log.With("error", err).Error("Creating git client")
		return exitError
	}

	root, err := fsops.New(workspace)
	if err != nil {
		log.With("error", err).Error("Creating filesystem root")
		return exitError
	}

	registry := toolcall.NewRegistry()
	for _, tools := range [][]toolcall.Tool{
		gh.Tools(),
		repo.Tools(),
		root.Tools(),
		webfetch.New().Tools(),
	} {
		if err := registry.RegisterAll(tools...); err != nil {
			log.With("error", err).Error("Registering tools")
			return exitError
		}
	}

	if err := validateCommands(registry, conf); err != nil {
		log.With("error", err).Error("Validating configured commands")
		return exitError
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  env.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.With("error", err).Error("Creating Gemini client")
		return exitError
	}

	callerOpts := []taskrunner.GenAIOption{taskrunner.WithModel(env.Model)}
	if env.Thinking {
		callerOpts = append(callerOpts, taskrunner.WithThinking(defaultThinkingBudget))
	}
	caller, err := taskrunner.NewGenAICaller(client, callerOpts...)
	if err != nil {
		log.With("error", err).Error("Creating model caller")
		return exitError
	}

	runner, err := taskrunner.New(caller, taskrunner.WithMetrics(metrics.NewAgent("ghagent")))
	if err != nil {
		log.With("error", err).Error("Creating task runner")
		return exitError
	}

	command, err := selector.Select(ctx, runner, registry, conf, env.UserQuestion)
	if err != nil {
		log.With("error", err).Error("Selecting command")
		if errors.Is(err, selector.ErrCommandNotSelected) || errors.Is(err, selector.ErrCommandNotFound) {
			return exitFailure
		}
		return exitError
	}

	if err := prepareRepository(ctx, repo, gh, env.PRNumber); err != nil {
		log.With("error", err).Error("Preparing repository")
		return exitError
	}

	task, err := buildTask(registry, conf, command, templateVars(&env))
	if err != nil {
		log.With("error", err).Error("Building task")
		return exitError
	}

	log.With("command", command.Name, "question", env.UserQuestion).Info("Executing command")
	outcome, err := runner.Run(ctx, task)
	if err != nil {
		log.With("error", err).Error("Running command")
		return exitError
	}

	log = log.With("task_details", outcome.TaskDetails, "iterations", outcome.Iterations)
	if outcome.Status != taskrunner.StatusSuccess {
		log.With("failure_details", outcome.Details).Info("Model reports the task failed")
		return exitFailure
	}
	log.With("completion_details", outcome.Details).Info("Model reports the task completed")
	return exitSuccess
}

// validateCommands resolves every command's tool list against the registry
// up front, so a misspelled tool name in any command fails the run before
// the first model call instead of after selection.
func validateCommands(registry *toolcall.Registry, conf *config.Config) error {
	for _, cmd := range conf.Commands {
		if _, err := registry.Resolve(cmd.AllowedTools...); err != nil {
			return fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		for _, name := range cmd.PrerunTools {
			if _, ok := registry.Lookup(name); !ok {
				return fmt.Errorf("command %q: prerun %w: %q", cmd.Name, toolcall.ErrToolNotFound, name)
			}
		}
	}
	return nil
}

// prepareRepository clones the repository the command will work on: the PR
// head branch when a PR number is supplied, the default branch otherwise.
func prepareRepository(ctx context.Context, repo *gitrepo.Client, gh *githubapi.Client, prNumber int) error {
	log := clog.FromContext(ctx)

	var branch string
	var err error
	if prNumber > 0 {
		if branch, err = gh.BranchFromPR(ctx, prNumber); err != nil {
			return fmt.Errorf("resolving branch for pull request %d: %w", prNumber, err)
		}
		log.With("branch", branch, "pr", prNumber).Info("Cloning pull request branch")
	} else {
		if branch, err = gh.DefaultBranch(ctx); err != nil {
			return fmt.Errorf("resolving default branch: %w", err)
		}
		log.With("branch", branch).Info("Cloning default branch")
	}

	return repo.Clone(ctx, branch)
}

// templateVars builds the substitution context for command prompts.
// Issue and PR numbers are bound only when supplied, so a prompt that
// references one fails fast when it is absent.
func templateVars(env *envConfig) map[string]string {
	vars := map[string]string{"user_question": env.UserQuestion}
	if env.IssueNumber > 0 {
		vars["github_issue_number"] = strconv.Itoa(env.IssueNumber)
	}
	if env.PRNumber > 0 {
		vars["github_pr_number"] = strconv.Itoa(env.PRNumber)
	}
	return vars
}

// buildTask assembles the runner task for a selected command: resolved
// tools, prerun seed calls, the rendered prompt, and the example-flow
// dialogue when the command declares one.
func buildTask(registry *toolcall.Registry, conf *config.Config, command config.Command, vars map[string]string) (taskrunner.Task, error) {
	tools, err := registry.Resolve(command.AllowedTools...)
	if err != nil {
		return taskrunner.Task{}, fmt.Errorf("resolving tools for command %q: %w", command.Name, err)
	}

	tmpl, err := prompt.New(command.Prompt)
	if err != nil {
		return taskrunner.Task{}, fmt.Errorf("parsing prompt for command %q: %w", command.Name, err)
	}
	rendered, err := tmpl.Render(vars)
	if err != nil {
		return taskrunner.Task{}, fmt.Errorf("rendering prompt for command %q: %w", command.Name, err)
	}

	seeds := make([]toolcall.Request, 0, len(command.PrerunTools))
	for _, name := range command.PrerunTools {
		seeds = append(seeds, toolcall.Request{Name: name, Args: map[string]any{}})
	}

	return taskrunner.Task{
		Command:      command.Name,
		SystemPrompt: conf.SystemPrompt,
		Prompt:       rendered,
		Tools:        tools,
		SeedCalls:    seeds,
		Epilogue:     exampleFlowTurns(command.ExampleFlow),
	}, nil
}

// exampleFlowTurns stages the example-flow exchange that follows the prompt.
func exampleFlowTurns(flow string) []conversation.Turn {
	if flow == "" {
		return nil
	}
	return []conversation.Turn{
		{Kind: conversation.KindModelText, Text: "What flow should I follow for answering this request?"},
		{Kind: conversation.KindUserText, Text: "Example flow for resolving this request: " + flow},
		{Kind: conversation.KindModelText, Text: "I've got the example flow. Let's get started on the developer's request."},
	}
}
