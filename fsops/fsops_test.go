/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package fsops_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/issueops/ghagent/fsops"
)

func newRoot(t *testing.T, files map[string]string) *fsops.Root {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	root, err := fsops.New(dir)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return root
}

func TestFileLifecycle(t *testing.T) {
	t.Parallel()
	root := newRoot(t, nil)

	if err := root.CreateFile("pkg/notes.txt", "first\n"); err != nil {
		t.Fatalf("CreateFile() = %v", err)
	}
	if err := root.CreateFile("pkg/notes.txt", "again"); err == nil {
		t.Error("CreateFile() overwrote an existing file")
	}
	if err := root.AppendFile("pkg/notes.txt", "second\n"); err != nil {
		t.Fatalf("AppendFile() = %v", err)
	}

	got, err := root.ReadFile("pkg/notes.txt")
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if got != "first\nsecond\n" {
		t.Errorf("ReadFile() = %q", got)
	}

	if err := root.MoveFile("pkg/notes.txt", "docs/notes.txt"); err != nil {
		t.Fatalf("MoveFile() = %v", err)
	}
	if _, err := root.ReadFile("pkg/notes.txt"); err == nil {
		t.Error("source file still readable after move")
	}

	if err := root.EraseFile("docs/notes.txt"); err != nil {
		t.Fatalf("EraseFile() = %v", err)
	}
	got, err = root.ReadFile("docs/notes.txt")
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if got != "" {
		t.Errorf("erased file content = %q", got)
	}

	if err := root.DeleteFile("docs/notes.txt"); err != nil {
		t.Fatalf("DeleteFile() = %v", err)
	}
	if _, err := root.ReadFile("docs/notes.txt"); err == nil {
		t.Error("deleted file still readable")
	}
}

func TestPathEscapesRejected(t *testing.T) {
	t.Parallel()
	root := newRoot(t, map[string]string{"ok.txt": "fine"})

	for _, path := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		if _, err := root.ReadFile(path); err == nil {
			t.Errorf("ReadFile(%q) succeeded, want error", path)
		}
		if err := root.CreateFile(path, "x"); err == nil {
			t.Errorf("CreateFile(%q) succeeded, want error", path)
		}
	}
}

func TestFolderContents(t *testing.T) {
	t.Parallel()
	root := newRoot(t, map[string]string{
		"main.go":             "package main",
		"util/helper.go":      "package util",
		"util/helper_test.go": "package util",
		"docs/guide.md":       "# guide",
		".git/config":         "[core]",
		".hidden":             "secret",
		"debug.log":           "noise",
	})

	got, err := root.FolderContents(context.Background(), "", []string{"**/*.go", "*.go"}, []string{"*_test.go"}, true, false)
	if err != nil {
		t.Fatalf("FolderContents() = %v", err)
	}
	sort.Strings(got)
	want := []string{"main.go", "util/helper.go"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FolderContents() mismatch (-want +got):\n%s", diff)
	}
}

func TestFolderContentsDefaultExclusions(t *testing.T) {
	t.Parallel()
	root := newRoot(t, map[string]string{
		"visible.txt": "ok",
		".git/config": "[core]",
		".hidden":     "secret",
	})

	got, err := root.FolderContents(context.Background(), "", nil, nil, true, false)
	if err != nil {
		t.Fatalf("FolderContents() = %v", err)
	}
	if diff := cmp.Diff([]string{"visible.txt"}, got); diff != "" {
		t.Errorf("default exclusions not applied (-want +got):\n%s", diff)
	}

	bypassed, err := root.FolderContents(context.Background(), "", nil, nil, true, true)
	if err != nil {
		t.Fatalf("FolderContents(bypass) = %v", err)
	}
	if len(bypassed) != 3 {
		t.Errorf("bypassed listing = %v, want 3 entries", bypassed)
	}
}

func TestReadReadmes(t *testing.T) {
	t.Parallel()
	root := newRoot(t, map[string]string{
		"README.md":      "# top",
		"docs/design.md": "# design",
		"main.go":        "package main",
	})

	got, err := root.ReadReadmes(context.Background())
	if err != nil {
		t.Fatalf("ReadReadmes() = %v", err)
	}
	want := map[string]string{
		"README.md": "# top",
		"design.md": "# design",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadReadmes() mismatch (-want +got):\n%s", diff)
	}
}

func TestToolsHaveDescriptions(t *testing.T) {
	t.Parallel()
	root := newRoot(t, nil)
	for _, tool := range root.Tools() {
		if tool.Def.Description == "" {
			t.Errorf("tool %q has no description", tool.Def.Name)
		}
	}
}
