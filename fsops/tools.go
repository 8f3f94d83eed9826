/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package fsops

import (
	"context"

	"github.com/issueops/ghagent/agent/toolcall"
	"github.com/issueops/ghagent/agent/toolcall/params"
)

// Tools returns the filesystem tool surface exposed to the model.
func (r *Root) Tools() []toolcall.Tool {
	return []toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        "file_read",
			Description: "Read the entire content of a file.",
			Parameters: []toolcall.Parameter{{
				Name: "file_path", Type: "string", Description: "The path of the file, relative to the repository root.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			path, err := params.Get[string](args, "file_path")
			if err != nil {
				return nil, err
			}
			return r.ReadFile(path)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "file_create",
			Description: "Create a new file with the given content. Fails if the file already exists.",
			Parameters: []toolcall.Parameter{{
				Name: "file_path", Type: "string", Description: "The path of the file, relative to the repository root.", Required: true,
			}, {
				Name: "content", Type: "string", Description: "The content to write.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			path, err := params.Get[string](args, "file_path")
			if err != nil {
				return nil, err
			}
			content, err := params.Get[string](args, "content")
			if err != nil {
				return nil, err
			}
			if err := r.CreateFile(path, content); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "file_append",
			Description: "Append content to an existing file.",
			Parameters: []toolcall.Parameter{{
				Name: "file_path", Type: "string", Description: "The path of the file, relative to the repository root.", Required: true,
			}, {
				Name: "content", Type: "string", Description: "The content to append.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			path, err := params.Get[string](args, "file_path")
			if err != nil {
				return nil, err
			}
			content, err := params.Get[string](args, "content")
			if err != nil {
				return nil, err
			}
			if err := r.AppendFile(path, content); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "file_erase",
			Description: "Truncate a file to zero length.",
			Parameters: []toolcall.Parameter{{
				Name: "file_path", Type: "string", Description: "The path of the file, relative to the repository root.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			path, err := params.Get[string](args, "file_path")
			if err != nil {
				return nil, err
			}
			if err := r.EraseFile(path); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "file_move",
			Description: "Move or rename a file within the repository.",
			Parameters: []toolcall.Parameter{{
				Name: "source_path", Type: "string", Description: "The current path of the file.", Required: true,
			}, {
				Name: "destination_path", Type: "string", Description: "The new path for the file.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			source, err := params.Get[string](args, "source_path")
			if err != nil {
				return nil, err
			}
			destination, err := params.Get[string](args, "destination_path")
			if err != nil {
				return nil, err
			}
			if err := r.MoveFile(source, destination); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "file_delete",
			Description: "Delete a file from the repository.",
			Parameters: []toolcall.Parameter{{
				Name: "file_path", Type: "string", Description: "The path of the file, relative to the repository root.", Required: true,
			}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			path, err := params.Get[string](args, "file_path")
			if err != nil {
				return nil, err
			}
			if err := r.DeleteFile(path); err != nil {
				return nil, err
			}
			return true, nil
		},
	}, {
		Def: toolcall.Definition{
			Name:        "folder_contents",
			Description: "List the contents of a folder, optionally recursing and filtering with glob patterns. Hidden files and version control internals are excluded by default.",
			Parameters: []toolcall.Parameter{{
				Name: "folder_path", Type: "string", Description: "The folder to list, relative to the repository root. Empty means the root itself.",
			}, {
				Name: "include", Type: "array", Description: "Glob patterns to include, such as **/*.go. Empty includes everything.",
			}, {
				Name: "exclude", Type: "array", Description: "Glob patterns to exclude, such as *.log.",
			}, {
				Name: "recurse", Type: "boolean", Description: "Whether to list subdirectories recursively.",
			}, {
				Name: "bypass_default_exclusions", Type: "boolean", Description: "Include hidden files and version control internals. Not recommended.",
			}},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			folder, err := params.GetOptional(args, "folder_path", "")
			if err != nil {
				return nil, err
			}
			include, err := params.GetOptional(args, "include", []string{})
			if err != nil {
				return nil, err
			}
			exclude, err := params.GetOptional(args, "exclude", []string{})
			if err != nil {
				return nil, err
			}
			recurse, err := params.GetOptional(args, "recurse", false)
			if err != nil {
				return nil, err
			}
			bypass, err := params.GetOptional(args, "bypass_default_exclusions", false)
			if err != nil {
				return nil, err
			}
			return r.FolderContents(ctx, folder, include, exclude, recurse, bypass)
		},
	}, {
		Def: toolcall.Definition{
			Name:        "read_readmes",
			Description: "Read every Markdown file in the repository, keyed by file name. Useful background before working on a task.",
		},
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			readmes, err := r.ReadReadmes(ctx)
			if err != nil {
				return nil, err
			}
			out := make(map[string]any, len(readmes))
			for name, content := range readmes {
				out[name] = content
			}
			return out, nil
		},
	}}
}
