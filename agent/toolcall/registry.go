/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrToolNotFound is wrapped by Resolve when a requested tool is unregistered.
var ErrToolNotFound = errors.New("tool not found")

// Registry is the single source of truth mapping tool names to their
// invocation contracts. The sentinel tools are always present.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns a registry pre-populated with the sentinel tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range sentinelTools() {
		r.tools[t.Def.Name] = t
	}
	return r
}

// Register adds a tool under its definition name. The description is
// mandatory context for the model, so an empty one is rejected. Registering
// the same name again overwrites the previous entry.
func (r *Registry) Register(t Tool) error {
	switch {
	case t.Def.Name == "":
		return errors.New("tool name is required")
	case t.Def.Description == "":
		return fmt.Errorf("tool %q has no description", t.Def.Name)
	case t.Handler == nil:
		return fmt.Errorf("tool %q has no handler", t.Def.Name)
	}
	r.tools[t.Def.Name] = t
	return nil
}

// RegisterAll registers every tool in ts, stopping at the first error.
func (r *Registry) RegisterAll(ts ...Tool) error {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Resolve returns the tools for the requested names, deduplicated and sorted
// for determinism, with the sentinel tools always included. Any unregistered
// name fails with ErrToolNotFound naming the missing tool. This is the single
// validation point between a command's declared tool list and what is
// actually available.
func (r *Registry) Resolve(names ...string) ([]Tool, error) {
	merged := append(slices.Clone(names), ReportCompletion, ReportFailure)
	sort.Strings(merged)
	merged = slices.Compact(merged)

	resolved := make([]Tool, 0, len(merged))
	for _, name := range merged {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
		}
		resolved = append(resolved, t)
	}
	return resolved, nil
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
