/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/issueops/ghagent/config"
)

const testYAML = `
system_prompt: You are a helpful GitHub automation agent.
activation_keywords:
  - "/ai"
  - "hey agent"
globally_allowed_tools:
  - get_issue_with_comments
  - create_issue_comment
commands:
  - name: answer_question
    description: answer a question about the repository
    prompt: "Answer the question about ${repository}: ${user_question}"
    allowed_tools:
      - folder_contents
      - file_read
  - name: review_pr
    description: review a pull request
    prompt_file: review.txt
    allowed_tools:
      - get_pull_request_diff
      - create_pr_review
    prerun_tools:
      - read_readmes
    example_flow: "Fetch the diff, then post a review."
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "review.txt"), []byte("Review PR ${github_pr_number} carefully."), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t), config.Restrictions{})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if len(cfg.Commands) != 2 {
		t.Fatalf("got %d commands, want 2", len(cfg.Commands))
	}

	answer, ok := cfg.CommandByName("answer_question")
	if !ok {
		t.Fatal("answer_question not found")
	}
	wantTools := []string{"create_issue_comment", "file_read", "folder_contents", "get_issue_with_comments"}
	if diff := cmp.Diff(wantTools, answer.AllowedTools); diff != "" {
		t.Errorf("AllowedTools mismatch (-want +got):\n%s", diff)
	}

	review, ok := cfg.CommandByName("review_pr")
	if !ok {
		t.Fatal("review_pr not found")
	}
	if !strings.Contains(review.Prompt, "Review PR ${github_pr_number}") {
		t.Errorf("prompt_file not resolved: %q", review.Prompt)
	}
	if len(review.PrerunTools) != 1 || review.PrerunTools[0] != "read_readmes" {
		t.Errorf("PrerunTools = %v", review.PrerunTools)
	}
}

func TestLoadToolRestrictions(t *testing.T) {
	cfg, err := config.Load(writeConfig(t), config.Restrictions{
		Tools: []string{"folder_contents", "get_issue_with_comments"},
	})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	answer, _ := cfg.CommandByName("answer_question")
	want := []string{"folder_contents", "get_issue_with_comments"}
	if diff := cmp.Diff(want, answer.AllowedTools); diff != "" {
		t.Errorf("AllowedTools mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCommandRestrictions(t *testing.T) {
	cfg, err := config.Load(writeConfig(t), config.Restrictions{
		Commands: []string{"review_pr"},
	})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(cfg.Commands) != 1 || cfg.Commands[0].Name != "review_pr" {
		t.Errorf("Commands = %+v, want only review_pr", cfg.Commands)
	}

	if _, err := config.Load(writeConfig(t), config.Restrictions{
		Commands: []string{"no_such_command"},
	}); err == nil {
		t.Error("Load() succeeded with no commands remaining")
	}
}

func TestMatchesActivationKeyword(t *testing.T) {
	cfg, err := config.Load(writeConfig(t), config.Restrictions{})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	for text, want := range map[string]bool{
		"/ai why does CI fail?":     true,
		"HEY AGENT review this":     true,
		"  /ai with leading spaces": true,
		"please review this PR":     false,
		"agent hey, wrong order":    false,
		"":                          false,
	} {
		if got := cfg.MatchesActivationKeyword(text); got != want {
			t.Errorf("MatchesActivationKeyword(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestResolveValidation(t *testing.T) {
	base := func() *config.File {
		return &config.File{
			SystemPrompt: "prompt",
			Commands: []config.CommandEntry{{
				Name:        "cmd",
				Description: "does something",
				Prompt:      "do it",
			}},
		}
	}

	t.Run("missing system prompt", func(t *testing.T) {
		f := base()
		f.SystemPrompt = "  "
		if _, err := config.Resolve(f, ".", config.Restrictions{}); err == nil {
			t.Error("Resolve() accepted empty system_prompt")
		}
	})

	t.Run("both prompt sources", func(t *testing.T) {
		f := base()
		f.Commands[0].PromptFile = "also.txt"
		if _, err := config.Resolve(f, ".", config.Restrictions{}); err == nil {
			t.Error("Resolve() accepted prompt and prompt_file together")
		}
	})

	t.Run("neither prompt source", func(t *testing.T) {
		f := base()
		f.Commands[0].Prompt = ""
		if _, err := config.Resolve(f, ".", config.Restrictions{}); err == nil {
			t.Error("Resolve() accepted a command without a prompt")
		}
	})

	t.Run("duplicate command", func(t *testing.T) {
		f := base()
		f.Commands = append(f.Commands, f.Commands[0])
		if _, err := config.Resolve(f, ".", config.Restrictions{}); err == nil {
			t.Error("Resolve() accepted duplicate command names")
		}
	})

	t.Run("malformed placeholder", func(t *testing.T) {
		f := base()
		f.Commands[0].Prompt = "broken ${placeholder"
		if _, err := config.Resolve(f, ".", config.Restrictions{}); err == nil {
			t.Error("Resolve() accepted a malformed prompt template")
		}
	})
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	bad := "system_prompt: hi\nsurprise_field: true\ncommands:\n  - name: c\n    description: d\n    prompt: p\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path, config.Restrictions{}); err == nil {
		t.Error("Load() accepted unknown YAML fields")
	}
}
