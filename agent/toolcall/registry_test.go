/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/issueops/ghagent/agent/toolcall"
)

func testTool(name string) toolcall.Tool {
	return toolcall.Tool{
		Def: toolcall.Definition{
			Name:        name,
			Description: "A test tool named " + name,
			Parameters: []toolcall.Parameter{
				{Name: "input", Type: "string", Description: "The input", Required: true},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["input"], nil
		},
	}
}

func TestRegisterRequiresDescription(t *testing.T) {
	r := toolcall.NewRegistry()
	err := r.Register(toolcall.Tool{
		Def:     toolcall.Definition{Name: "mystery"},
		Handler: func(context.Context, map[string]any) (any, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("expected error for tool without description")
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := toolcall.NewRegistry()

	first := testTool("echo")
	first.Def.Description = "first registration"
	second := testTool("echo")
	second.Def.Description = "second registration"

	if err := r.RegisterAll(first, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Lookup("echo")
	if !ok {
		t.Fatal("tool not found after registration")
	}
	if got.Def.Description != "second registration" {
		t.Errorf("got %q, want the later registration", got.Def.Description)
	}
}

func TestResolveAddsSentinelsAndSorts(t *testing.T) {
	r := toolcall.NewRegistry()
	if err := r.RegisterAll(testTool("zeta"), testTool("alpha")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicates and ordering in the request must not matter.
	tools, err := r.Resolve("zeta", "alpha", "zeta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, tool := range tools {
		names = append(names, tool.Def.Name)
	}
	want := []string{"alpha", "report_completion", "report_failure", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("resolved names mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownTool(t *testing.T) {
	r := toolcall.NewRegistry()
	_, err := r.Resolve("no_such_tool")
	if !errors.Is(err, toolcall.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if got := err.Error(); got != `tool not found: "no_such_tool"` {
		t.Errorf("error should name the missing tool, got %q", got)
	}
}

func TestSentinelHandlersRefuseDirectInvocation(t *testing.T) {
	r := toolcall.NewRegistry()
	for _, name := range []string{toolcall.ReportCompletion, toolcall.ReportFailure} {
		tool, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("sentinel %q not implicitly registered", name)
		}
		if _, err := tool.Handler(context.Background(), nil); !errors.Is(err, toolcall.ErrSentinelInvoked) {
			t.Errorf("%s: expected ErrSentinelInvoked, got %v", name, err)
		}
	}
}

func TestValidateArgs(t *testing.T) {
	def := testTool("echo").Def

	if err := toolcall.ValidateArgs(def, map[string]any{"input": "hi"}); err != nil {
		t.Errorf("valid args rejected: %v", err)
	}
	if err := toolcall.ValidateArgs(def, map[string]any{}); err == nil {
		t.Error("missing required parameter accepted")
	}
	if err := toolcall.ValidateArgs(def, map[string]any{"input": "hi", "extra": 1}); err == nil {
		t.Error("unknown parameter accepted")
	}
}
