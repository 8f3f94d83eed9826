/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"context"

	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/agent/toolcall/params"
)

// Tools returns the GitHub tool surface exposed to the model. Limit errors
// surface as ordinary tool errors, so the model sees the stop instruction
// instead of the run aborting.
func (c *Client) Tools() []toolcall.Tool {
	return []toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        "get_pull_request",
			Description: "Get metadata about a pull request: title, body, state, author, and branches.",
			Parameters: []toolcall.Parameter{{
				Name: "pull_number", Type: "integer", Description: "The pull request number.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "pull_number")
			if err != nil {
				return nil, err
			}
			return c.PullRequest(ctx, number)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "get_pull_request_diff",
			Description: "Get the unified diff of all files changed in a pull request.",
			Parameters: []toolcall.Parameter{{
				Name: "pull_number", Type: "integer", Description: "The pull request number.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "pull_number")
			if err != nil {
				return nil, err
			}
			return c.PullRequestDiff(ctx, number)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "get_issue_with_comments",
			Description: "Get an issue's title, body, labels, and full comment thread.",
			Parameters: []toolcall.Parameter{{
				Name: "issue_number", Type: "integer", Description: "The issue number.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "issue_number")
			if err != nil {
				return nil, err
			}
			return c.IssueWithComments(ctx, number)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "search_issues",
			Description: "Search issues and pull requests in the current repository using GitHub search syntax.",
			Parameters: []toolcall.Parameter{{
				Name: "query", Type: "string", Description: "The search query, without the repo: qualifier.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, err := params.Get[string](args, "query")
			if err != nil {
				return nil, err
			}
			results, err := c.SearchIssues(ctx, query)
			if err != nil {
				return nil, err
			}
			return map[string]any{"issues": results}, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "create_issue_comment",
			Description: "Post a comment on an issue. Only one comment may be created per run.",
			Parameters: []toolcall.Parameter{{
				Name: "issue_number", Type: "integer", Description: "The issue number.", Required: true,
			}, {
				Name: "body", Type: "string", Description: "The comment body in Markdown.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "issue_number")
			if err != nil {
				return nil, err
			}
			body, err := params.Get[string](args, "body")
			if err != nil {
				return nil, err
			}
			if err := c.CreateIssueComment(ctx, number, body); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "create_pull_request_comment",
			Description: "Post a comment on a pull request's conversation thread.",
			Parameters: []toolcall.Parameter{{
				Name: "pull_number", Type: "integer", Description: "The pull request number.", Required: true,
			}, {
				Name: "body", Type: "string", Description: "The comment body in Markdown.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "pull_number")
			if err != nil {
				return nil, err
			}
			body, err := params.Get[string](args, "body")
			if err != nil {
				return nil, err
			}
			if err := c.CreatePullRequestComment(ctx, number, body); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "create_pull_request",
			Description: "Open a pull request from a head branch into a base branch. Only one may be created per run.",
			Parameters: []toolcall.Parameter{{
				Name: "head_branch", Type: "string", Description: "The branch containing the changes.", Required: true,
			}, {
				Name: "base_branch", Type: "string", Description: "The branch to merge the changes into.", Required: true,
			}, {
				Name: "title", Type: "string", Description: "The pull request title.", Required: true,
			}, {
				Name: "body", Type: "string", Description: "The pull request description in Markdown.", Required: true,
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			head, err := params.Get[string](args, "head_branch")
			if err != nil {
				return nil, err
			}
			base, err := params.Get[string](args, "base_branch")
			if err != nil {
				return nil, err
			}
			title, err := params.Get[string](args, "title")
			if err != nil {
				return nil, err
			}
			body, err := params.Get[string](args, "body")
			if err != nil {
				return nil, err
			}
			return c.CreatePullRequest(ctx, head, base, title, body)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "create_pr_review",
			Description: "Submit a review on a pull request. Only one review may be created per run.",
			Parameters: []toolcall.Parameter{{
				Name: "pull_number", Type: "integer", Description: "The pull request number.", Required: true,
			}, {
				Name: "body", Type: "string", Description: "The review body in Markdown.", Required: true,
			}, {
				Name: "event", Type: "string", Description: "The review event: COMMENT, APPROVE, or REQUEST_CHANGES. Defaults to COMMENT.",
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			number, err := params.Get[int](args, "pull_number")
			if err != nil {
				return nil, err
			}
			body, err := params.Get[string](args, "body")
			if err != nil {
				return nil, err
			}
			event, err := params.GetOptional(args, "event", "COMMENT")
			if err != nil {
				return nil, err
			}
			if err := c.CreatePRReview(ctx, number, body, event); err != nil {
				return nil, err
			}
			return true, nil
		},
	}}
}
