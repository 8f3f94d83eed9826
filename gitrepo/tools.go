/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"

	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/agent/toolcall/params"
)

// Tools returns the git tool surface exposed to the model.
func (c *Client) Tools() []toolcall.Tool {
	return []toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        "new_branch",
			Description: "Create a new git branch at the current HEAD and switch to it.",
			Parameters: []toolcall.Parameter{{
				Name: "name", Type: "string", Description: "The name of the branch to create.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			name, err := params.Get[string](args, "name")
			if err != nil {
				return nil, err
			}
			if err := c.NewBranch(ctx, name); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "push",
			Description: "Push the current branch to the origin remote.",
		},
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			if err := c.Push(ctx); err != nil {
				return nil, err
			}
			return true, nil
		},
	}}
}
