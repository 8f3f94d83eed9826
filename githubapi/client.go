/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package githubapi wraps the GitHub REST API for the agent: read access to
// issues and pull requests, and capped write access for comments, pull
// requests, and reviews.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// commentSuffix marks agent-authored issue comments.
const commentSuffix = "\n\nThis is an automated response generated by a GitHub Action."

// reviewEvents are the accepted values for pull request review events.
var reviewEvents = map[string]bool{
	"COMMENT":         true,
	"APPROVE":         true,
	"REQUEST_CHANGES": true,
}

// Client is a repository-scoped GitHub API client with per-run action
// limits.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	limits *RunLimits
}

// Option configures a Client.
type Option func(*Client)

// WithGitHubClient substitutes the underlying API client, primarily for
// tests against a fake server.
func WithGitHubClient(gh *github.Client) Option {
	return func(c *Client) { c.gh = gh }
}

// New creates a client for the "owner/name" repository, authenticated with
// the given token.
func New(ctx context.Context, token, repository string, limits *RunLimits, opts ...Option) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must be in owner/name form, got %q", repository)
	}
	if limits == nil {
		return nil, errors.New("run limits are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c := &Client{
		gh:     github.NewClient(oauth2.NewClient(ctx, ts)),
		owner:  owner,
		repo:   repo,
		limits: limits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Owner returns the repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name.
func (c *Client) Repo() string { return c.repo }

// DefaultBranch returns the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", fmt.Errorf("getting repository %s/%s: %w", c.owner, c.repo, err)
	}
	return repo.GetDefaultBranch(), nil
}

// BranchFromPR returns the head branch name of a pull request.
func (c *Client) BranchFromPR(ctx context.Context, number int) (string, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return "", fmt.Errorf("getting pull request %d: %w", number, err)
	}
	return pr.GetHead().GetRef(), nil
}

// PullRequest returns metadata about a pull request.
func (c *Client) PullRequest(ctx context.Context, number int) (map[string]any, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("getting pull request %d: %w", number, err)
	}
	return map[string]any{
		"number":      pr.GetNumber(),
		"title":       pr.GetTitle(),
		"body":        pr.GetBody(),
		"state":       pr.GetState(),
		"author":      pr.GetUser().GetLogin(),
		"head_branch": pr.GetHead().GetRef(),
		"base_branch": pr.GetBase().GetRef(),
		"draft":       pr.GetDraft(),
		"url":         pr.GetHTMLURL(),
	}, nil
}

// PullRequestDiff returns the concatenated patches of all files changed in
// a pull request.
func (c *Client) PullRequestDiff(ctx context.Context, number int) (string, error) {
	var patches []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return "", fmt.Errorf("listing files for pull request %d: %w", number, err)
		}
		for _, file := range files {
			if patch := file.GetPatch(); patch != "" {
				patches = append(patches, patch)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return strings.Join(patches, "\n"), nil
}

// IssueWithComments returns an issue's title, body, labels, and full
// comment thread.
func (c *Client) IssueWithComments(ctx context.Context, number int) (map[string]any, error) {
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("getting issue %d: %w", number, err)
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	var comments []map[string]any
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for issue %d: %w", number, err)
		}
		for _, comment := range page {
			comments = append(comments, map[string]any{
				"body":       comment.GetBody(),
				"author":     comment.GetUser().GetLogin(),
				"created_at": comment.GetCreatedAt().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return map[string]any{
		"title":    issue.GetTitle(),
		"body":     issue.GetBody(),
		"tags":     labels,
		"comments": comments,
	}, nil
}

// SearchIssues runs a search query scoped to the client's repository.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]map[string]any, error) {
	scoped := fmt.Sprintf("%s repo:%s/%s", query, c.owner, c.repo)
	clog.FromContext(ctx).With("query", scoped).Info("Searching issues")

	result, _, err := c.gh.Search.Issues(ctx, scoped, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}

	out := make([]map[string]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		out = append(out, map[string]any{
			"number": issue.GetNumber(),
			"title":  issue.GetTitle(),
			"state":  issue.GetState(),
			"url":    issue.GetHTMLURL(),
		})
	}
	return out, nil
}

// CreateIssueComment posts a comment on an issue, appending the automated
// response suffix. At most one comment is allowed per run.
func (c *Client) CreateIssueComment(ctx context.Context, number int, body string) error {
	if err := c.limits.checkIssueComment(); err != nil {
		return err
	}

	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.Ptr(body + commentSuffix),
	})
	if err != nil {
		return fmt.Errorf("creating comment on issue %d: %w", number, err)
	}

	c.limits.noteIssueComment()
	return nil
}

// CreatePullRequestComment posts a comment on a pull request's conversation
// thread. Unlike issue comments this is not capped, and no suffix is added.
func (c *Client) CreatePullRequestComment(ctx context.Context, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating comment on pull request %d: %w", number, err)
	}
	return nil
}

// CreatePullRequest opens a pull request. At most one is allowed per run.
func (c *Client) CreatePullRequest(ctx context.Context, headBranch, baseBranch, title, body string) (map[string]any, error) {
	if err := c.limits.checkPullRequest(); err != nil {
		return nil, err
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
		Head:  github.Ptr(headBranch),
		Base:  github.Ptr(baseBranch),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request %q: %w", title, err)
	}

	c.limits.notePullRequest()
	return map[string]any{
		"number": pr.GetNumber(),
		"url":    pr.GetHTMLURL(),
	}, nil
}

// CreatePRReview submits a review on a pull request. At most one review is
// allowed per run.
func (c *Client) CreatePRReview(ctx context.Context, number int, body, event string) error {
	if event == "" {
		event = "COMMENT"
	}
	if !reviewEvents[event] {
		return fmt.Errorf("invalid review event %q, must be one of COMMENT, APPROVE, REQUEST_CHANGES", event)
	}
	if err := c.limits.checkReview(); err != nil {
		return err
	}

	_, _, err := c.gh.PullRequests.CreateReview(ctx, c.owner, c.repo, number, &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr(event),
	})
	if err != nil {
		return fmt.Errorf("creating review on pull request %d: %w", number, err)
	}

	c.limits.noteReview()
	return nil
}
