/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package fsops provides the model's filesystem tool surface, rooted at the
// repository checkout. Every path is resolved relative to the root and may
// not escape it.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
)

// DefaultListExclusions hides version control internals, caches, and hidden
// files from listings unless explicitly bypassed.
var DefaultListExclusions = []string{
	".?*",
	"**/.?*/**",
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/__pycache__/**",
}

// DefaultReadExclusions skips binary artifacts in bulk reads.
var DefaultReadExclusions = []string{
	"*.so", "*.o", "*.a", "*.dll", "*.exe", "*.class", "*.jar",
	"*.zip", "*.tar", "*.gz", "*.7z", "*.rar", "*.iso", "*.dmg",
}

// Root performs file operations confined to a directory.
type Root struct {
	dir string
}

// New creates a Root for the given directory.
func New(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", dir, err)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the root directory.
func (r *Root) Dir() string { return r.dir }

// resolve maps a relative path inside the root to an absolute path,
// rejecting absolute paths and traversal outside the root.
func (r *Root) resolve(rel string) (string, error) {
	if rel == "" {
		return r.dir, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to the repository root", rel)
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the repository root", rel)
	}
	return filepath.Join(r.dir, cleaned), nil
}

// ReadFile returns the full content of a file.
func (r *Root) ReadFile(path string) (string, error) {
	abs, err := r.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// CreateFile writes content to a new file, creating parent directories as
// needed. Overwriting an existing file is an error; use AppendFile or
// EraseFile first.
func (r *Root) CreateFile(path, content string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating parent directories for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// AppendFile appends content to an existing file.
func (r *Root) AppendFile(path, content string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(abs, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// EraseFile truncates a file to zero length.
func (r *Root) EraseFile(path string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Truncate(abs, 0); err != nil {
		return fmt.Errorf("erasing %s: %w", path, err)
	}
	return nil
}

// MoveFile renames a file within the root.
func (r *Root) MoveFile(source, destination string) error {
	src, err := r.resolve(source)
	if err != nil {
		return err
	}
	dst, err := r.resolve(destination)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent directories for %s: %w", destination, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", source, destination, err)
	}
	return nil
}

// DeleteFile removes a file.
func (r *Root) DeleteFile(path string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// FolderContents lists a folder. When recurse is set, it walks the tree and
// returns matching file paths relative to the folder, applying
// DefaultListExclusions unless bypassed, then the include and exclude
// patterns. A non-recursive listing returns the folder's immediate entries.
func (r *Root) FolderContents(ctx context.Context, folder string, include, exclude []string, recurse, bypassDefaults bool) ([]string, error) {
	abs, err := r.resolve(folder)
	if err != nil {
		return nil, err
	}

	if !recurse {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", folder, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		return names, nil
	}

	var out []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !bypassDefaults && matchesAny(DefaultListExclusions, rel) {
			return nil
		}
		if included(rel, include, exclude) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", folder, err)
	}

	clog.FromContext(ctx).With("folder", folder).With("count", len(out)).Info("Listed folder contents")
	return out, nil
}

// ReadReadmes returns the content of every Markdown file in the tree,
// keyed by base name. Later files win on name collisions.
func (r *Root) ReadReadmes(ctx context.Context) (map[string]string, error) {
	files, err := r.FolderContents(ctx, "", []string{"**/*.md", "*.md"}, nil, true, false)
	if err != nil {
		return nil, err
	}

	readmes := make(map[string]string, len(files))
	for _, file := range files {
		content, err := r.ReadFile(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		readmes[filepath.Base(file)] = content
	}
	return readmes, nil
}
