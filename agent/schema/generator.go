/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/issueops/ghagent/agent/toolcall"
)

// Generator wraps jsonschema.Reflector with the defaults we need for tool
// parameter schemas.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator wired for tool schemas.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// ParametersFor derives a flat tool parameter list from the exported fields
// of the struct type Args. Field descriptions come from jsonschema struct
// tags; fields without a description are rejected, since descriptions are
// mandatory context for the model.
func ParametersFor[Args any](g *Generator) ([]toolcall.Parameter, error) {
	var zero Args
	s := g.Reflect(&zero)
	if s.Properties == nil {
		return nil, nil
	}

	var out []toolcall.Parameter
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		if prop.Description == "" {
			return nil, fmt.Errorf("parameter %q has no description", pair.Key)
		}
		out = append(out, toolcall.Parameter{
			Name:        pair.Key,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    slices.Contains(s.Required, pair.Key),
		})
	}
	return out, nil
}

// RegisterFunc infers a tool from the Args struct and registers it. It is
// the reflection counterpart to Registry.Register with an explicit
// Definition.
func RegisterFunc[Args any](r *toolcall.Registry, name, description string, fn func(ctx context.Context, args Args) (any, error)) error {
	tool, err := InferTool(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(tool)
}

// MustInfer is InferTool for static tool tables, where an inference failure
// is a programming error.
func MustInfer[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error)) toolcall.Tool {
	tool, err := InferTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return tool
}

// InferTool builds a registry tool whose parameter schema is inferred from
// the Args struct and whose handler receives decoded, typed arguments. This
// is the convenience layer on top of explicit Definitions.
func InferTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error)) (toolcall.Tool, error) {
	if description == "" {
		return toolcall.Tool{}, errors.New("tool description is required for schema inference")
	}

	parameters, err := ParametersFor[Args](NewGenerator())
	if err != nil {
		return toolcall.Tool{}, fmt.Errorf("inferring schema for %s: %w", name, err)
	}

	return toolcall.Tool{
		Def: toolcall.Definition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
		Handler: func(ctx context.Context, raw map[string]any) (any, error) {
			var args Args
			data, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("encoding arguments: %w", err)
			}
			if err := json.Unmarshal(data, &args); err != nil {
				return nil, fmt.Errorf("decoding arguments for %s: %w", name, err)
			}
			return fn(ctx, args)
		},
	}, nil
}
