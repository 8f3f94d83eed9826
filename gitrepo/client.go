/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package gitrepo manages the local clone of the target repository and
// exposes the branch and push tools the model uses to publish changes.
package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// ErrBranchExists is returned when new_branch targets a branch that already
// exists locally.
var ErrBranchExists = errors.New("branch already exists")

// Client owns a single clone of the target repository.
type Client struct {
	path        string
	remoteURL   string
	tokenSource oauth2.TokenSource

	repo *git.Repository
}

// Option configures a Client.
type Option func(*Client)

// WithRemoteURL overrides the remote URL derived from the repository name,
// for GitHub Enterprise hosts and tests.
func WithRemoteURL(url string) Option {
	return func(c *Client) { c.remoteURL = url }
}

// New creates a client that will clone the "owner/name" repository into
// path. The token source must allow cloning and pushing.
func New(path, repository string, tokenSource oauth2.TokenSource, opts ...Option) (*Client, error) {
	if path == "" {
		return nil, errors.New("clone path cannot be empty")
	}
	if tokenSource == nil {
		return nil, errors.New("token source cannot be nil")
	}
	c := &Client{
		path:        path,
		remoteURL:   fmt.Sprintf("https://github.com/%s", repository),
		tokenSource: tokenSource,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Open attaches the client to an existing repository at its path. Used when
// the checkout already exists, and by tests.
func (c *Client) Open() error {
	repo, err := git.PlainOpen(c.path)
	if err != nil {
		return fmt.Errorf("opening repository at %s: %w", c.path, err)
	}
	c.repo = repo
	return nil
}

// Clone performs a single-branch clone of the given branch.
func (c *Client) Clone(ctx context.Context, branch string) error {
	clog.FromContext(ctx).With("branch", branch).With("path", c.path).Info("Cloning repository")

	auth, err := c.auth()
	if err != nil {
		return err
	}

	repo, err := git.PlainCloneContext(ctx, c.path, false, &git.CloneOptions{
		URL:           c.remoteURL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil {
		return fmt.Errorf("cloning repository: %w", err)
	}
	c.repo = repo
	return nil
}

// NewBranch creates the named branch at HEAD and checks it out, keeping any
// working tree changes.
func (c *Client) NewBranch(ctx context.Context, name string) error {
	if c.repo == nil {
		return errors.New("repository is not cloned")
	}
	clog.FromContext(ctx).With("branch", name).Info("Creating new branch")

	refName := plumbing.NewBranchReferenceName(name)
	if _, err := c.repo.Reference(refName, false); err == nil {
		return fmt.Errorf("%w: %s", ErrBranchExists, name)
	}

	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: refName,
		Create: true,
		Keep:   true,
	}); err != nil {
		return fmt.Errorf("checking out branch %s: %w", name, err)
	}
	return nil
}

// Push pushes the current branch to origin.
func (c *Client) Push(ctx context.Context) error {
	if c.repo == nil {
		return errors.New("repository is not cloned")
	}

	head, err := c.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	auth, err := c.auth()
	if err != nil {
		return err
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))
	clog.FromContext(ctx).With("refspec", string(refSpec)).Info("Pushing branch to origin")

	if err := c.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		Auth:       auth,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			clog.FromContext(ctx).Info("Branch already up to date")
			return nil
		}
		return fmt.Errorf("pushing branch: %w", err)
	}
	return nil
}

func (c *Client) auth() (*githttp.BasicAuth, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}
