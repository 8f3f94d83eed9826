/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/issueops/ghagent/gitrepo"
	"golang.org/x/oauth2"
)

func testTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
}

// initSourceRepo creates a repository with a single commit on master.
func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCloneAndNewBranch(t *testing.T) {
	src := initSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	client, err := gitrepo.New(dest, "octo/widgets", testTokenSource(), gitrepo.WithRemoteURL(src))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := client.Clone(context.Background(), "master"); err != nil {
		t.Fatalf("Clone() = %v", err)
	}

	if err := client.NewBranch(context.Background(), "feature-x"); err != nil {
		t.Fatalf("NewBranch() = %v", err)
	}

	repo, err := git.PlainOpen(dest)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head.Name() != plumbing.NewBranchReferenceName("feature-x") {
		t.Errorf("HEAD = %s, want feature-x", head.Name())
	}

	if err := client.NewBranch(context.Background(), "feature-x"); !errors.Is(err, gitrepo.ErrBranchExists) {
		t.Errorf("NewBranch(existing) = %v, want ErrBranchExists", err)
	}
}

func TestPush(t *testing.T) {
	src := initSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	client, err := gitrepo.New(dest, "octo/widgets", testTokenSource(), gitrepo.WithRemoteURL(src))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := client.Clone(context.Background(), "master"); err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if err := client.NewBranch(context.Background(), "agent-fix"); err != nil {
		t.Fatalf("NewBranch() = %v", err)
	}

	// Commit a change on the new branch.
	repo, err := git.PlainOpen(dest)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "fix.txt"), []byte("fixed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("fix.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Commit("apply fix", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}

	if err := client.Push(context.Background()); err != nil {
		t.Fatalf("Push() = %v", err)
	}

	srcRepo, err := git.PlainOpen(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srcRepo.Reference(plumbing.NewBranchReferenceName("agent-fix"), false); err != nil {
		t.Errorf("pushed branch missing from origin: %v", err)
	}
}

func TestOperationsRequireClone(t *testing.T) {
	client, err := gitrepo.New(filepath.Join(t.TempDir(), "clone"), "octo/widgets", testTokenSource())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := client.NewBranch(context.Background(), "b"); err == nil {
		t.Error("NewBranch() succeeded without a clone")
	}
	if err := client.Push(context.Background()); err == nil {
		t.Error("Push() succeeded without a clone")
	}
}

func TestToolsHaveDescriptions(t *testing.T) {
	client, err := gitrepo.New(filepath.Join(t.TempDir(), "clone"), "octo/widgets", testTokenSource())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	tools := client.Tools()
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}
	for _, tool := range tools {
		if tool.Def.Description == "" {
			t.Errorf("tool %q has no description", tool.Def.Name)
		}
	}
}
