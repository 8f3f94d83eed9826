/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt implements the ${name} placeholder templates used by
// command prompts and system instructions. Placeholders resolve from a
// variable map at render time; an unresolved placeholder is a
// configuration error, never silently passed through to the model.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Template is a parsed prompt template.
type Template struct {
	text  string
	names map[string]struct{}
}

// New parses a template and collects its placeholder names. Placeholders
// use the form ${name}, where name starts with a letter and contains only
// letters, digits, and underscores.
func New(text string) (*Template, error) {
	names := make(map[string]struct{})
	_, err := walk(text, func(name string) (string, error) {
		names[name] = struct{}{}
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return &Template{text: text, names: names}, nil
}

// Names returns the set of placeholder names found in the template.
func (t *Template) Names() map[string]struct{} {
	out := make(map[string]struct{}, len(t.names))
	for name := range t.names {
		out[name] = struct{}{}
	}
	return out
}

// Render substitutes every placeholder from vars. A placeholder with no
// corresponding variable is an error.
func (t *Template) Render(vars map[string]string) (string, error) {
	return walk(t.text, func(name string) (string, error) {
		val, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("unbound placeholder: %s", name)
		}
		return val, nil
	})
}

// resolveFunc provides a replacement for a placeholder name.
type resolveFunc func(name string) (string, error)

// walk tokenizes the template and calls resolve for each placeholder.
func walk(template string, resolve resolveFunc) (string, error) {
	var result strings.Builder

	for len(template) > 0 {
		start := strings.Index(template, "${")
		if start == -1 {
			result.WriteString(template)
			break
		}

		result.WriteString(template[:start])

		end := strings.Index(template[start:], "}")
		if end == -1 {
			return "", errors.New("unclosed placeholder: missing '}'")
		}
		end += start + 1

		name := strings.TrimSpace(template[start+2 : end-1])
		if !isValidIdentifier(name) {
			return "", fmt.Errorf("invalid placeholder identifier %q", name)
		}

		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)

		template = template[end:]
	}

	return result.String(), nil
}

// isValidIdentifier reports whether s can name a placeholder. It must start
// with a letter and contain only letters, digits, and underscores.
func isValidIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	runes := []rune(s)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
