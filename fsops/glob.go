/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package fsops

import (
	"path"
	"strings"
)

// matchGlob matches a slash-separated relative path against a glob pattern.
// "**" matches any number of path segments. A pattern without a slash is
// matched against the path's base name, so "*.log" excludes log files at
// any depth.
func matchGlob(pattern, name string) bool {
	if !strings.Contains(pattern, "/") {
		ok, err := path.Match(pattern, path.Base(name))
		return err == nil && ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], segments) {
			return true
		}
		if len(segments) > 0 {
			return matchSegments(pattern, segments[1:])
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segments[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}

// matchesAny reports whether name matches any of the patterns.
func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, name) {
			return true
		}
	}
	return false
}

// included applies include and exclude pattern lists. An empty include list
// includes everything.
func included(name string, include, exclude []string) bool {
	if len(include) > 0 && !matchesAny(include, name) {
		return false
	}
	return !matchesAny(exclude, name)
}
