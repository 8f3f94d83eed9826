/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"
)

// Handler executes a tool call. Implementations honor ctx for blocking work
// (network, git, filesystem); the runner has no other suspension points.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes a tool's invocation contract: name, description, and
// parameter schema. The description is mandatory context for the model.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number", "array"
	Description string
	Required    bool
}

// Tool pairs a definition with its handler.
type Tool struct {
	Def     Definition
	Handler Handler
}

// Request is a tool call emitted by the model, or seeded by configuration.
type Request struct {
	// ID is the provider-assigned call identifier when the model issued
	// the call. Seeded calls leave it empty.
	ID   string
	Name string
	Args map[string]any
}

// Result is the outcome of dispatching one Request. Output always holds the
// payload sent back to the model; when the dispatch failed, Output carries
// the error payload and Err records the message.
type Result struct {
	ID     string
	Name   string
	Args   map[string]any
	Output any
	Err    string
}

// ValidateArgs checks a call's arguments against the definition: every
// required parameter must be present and no unknown fields are accepted.
// Type fidelity is left to the handler's params extraction.
func ValidateArgs(def Definition, args map[string]any) error {
	known := make(map[string]bool, len(def.Parameters))
	for _, p := range def.Parameters {
		known[p.Name] = true
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				return fmt.Errorf("%s: missing required parameter %q", def.Name, p.Name)
			}
		}
	}
	for name := range args {
		if !known[name] {
			return fmt.Errorf("%s: unknown parameter %q", def.Name, name)
		}
	}
	return nil
}
