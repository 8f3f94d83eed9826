/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads and validates the agent's YAML configuration: the
// system prompt, activation keywords, the globally allowed tool baseline,
// and the command catalog. Validation happens at load time so prompt and
// tool mistakes surface before any model call.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/issueops/ghagent/agent/prompt"
	"gopkg.in/yaml.v3"
)

// CommandEntry is a raw command definition as it appears in the YAML file.
type CommandEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Prompt and PromptFile are mutually exclusive; exactly one must be
	// set. PromptFile is resolved relative to the config file.
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"prompt_file"`

	AllowedTools []string `yaml:"allowed_tools"`
	PrerunTools  []string `yaml:"prerun_tools"`
	ExampleFlow  string   `yaml:"example_flow"`
}

// File is the raw YAML configuration.
type File struct {
	ActivationKeywords   []string       `yaml:"activation_keywords"`
	GloballyAllowedTools []string       `yaml:"globally_allowed_tools"`
	Commands             []CommandEntry `yaml:"commands"`
	SystemPrompt         string         `yaml:"system_prompt"`
}

// Command is a resolved command: prompt loaded, tool lists merged and
// restricted.
type Command struct {
	Name        string
	Description string
	Prompt      string
	// AllowedTools is the final tool list after merging the global
	// baseline and applying runtime restrictions, sorted and deduplicated.
	AllowedTools []string
	// PrerunTools are dispatched before the first model turn with empty
	// arguments; their results seed the conversation.
	PrerunTools []string
	ExampleFlow string
}

// Config is the fully resolved application configuration.
type Config struct {
	ActivationKeywords []string
	Commands           []Command
	SystemPrompt       string
}

// Restrictions narrow the configuration at runtime. Empty slices impose no
// restriction.
type Restrictions struct {
	// Tools, when non-empty, restricts every command's tool list to this
	// set.
	Tools []string
	// Commands, when non-empty, restricts the available commands by name.
	Commands []string
	// ActivationKeywords, when non-empty, restricts which keywords
	// activate the agent.
	ActivationKeywords []string
}

// Load reads, parses, and resolves the configuration file. Unknown YAML
// fields are rejected.
func Load(path string, restrictions Restrictions) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return Resolve(&file, filepath.Dir(path), restrictions)
}

// Resolve validates the raw file and produces the runtime configuration.
// baseDir anchors relative prompt_file paths.
func Resolve(file *File, baseDir string, restrictions Restrictions) (*Config, error) {
	if strings.TrimSpace(file.SystemPrompt) == "" {
		return nil, errors.New("system_prompt is required")
	}
	if len(file.Commands) == 0 {
		return nil, errors.New("at least one command is required")
	}

	seen := make(map[string]bool, len(file.Commands))
	commands := make([]Command, 0, len(file.Commands))
	for _, entry := range file.Commands {
		if entry.Name == "" {
			return nil, errors.New("command name is required")
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("duplicate command %q", entry.Name)
		}
		seen[entry.Name] = true

		if entry.Description == "" {
			return nil, fmt.Errorf("command %q: description is required", entry.Name)
		}

		if len(restrictions.Commands) > 0 && !slices.Contains(restrictions.Commands, entry.Name) {
			continue
		}

		text, err := resolvePrompt(entry, baseDir)
		if err != nil {
			return nil, err
		}
		// Parse now so placeholder mistakes fail at load time.
		if _, err := prompt.New(text); err != nil {
			return nil, fmt.Errorf("command %q: invalid prompt: %w", entry.Name, err)
		}

		commands = append(commands, Command{
			Name:         entry.Name,
			Description:  entry.Description,
			Prompt:       text,
			AllowedTools: mergeTools(entry.AllowedTools, file.GloballyAllowedTools, restrictions.Tools),
			PrerunTools:  slices.Clone(entry.PrerunTools),
			ExampleFlow:  entry.ExampleFlow,
		})
	}

	if len(commands) == 0 {
		return nil, errors.New("no commands available after applying restrictions")
	}

	keywords := slices.Clone(file.ActivationKeywords)
	if len(restrictions.ActivationKeywords) > 0 {
		keywords = slices.DeleteFunc(keywords, func(k string) bool {
			return !slices.Contains(restrictions.ActivationKeywords, k)
		})
	}

	return &Config{
		ActivationKeywords: keywords,
		Commands:           commands,
		SystemPrompt:       file.SystemPrompt,
	}, nil
}

// resolvePrompt enforces the prompt/prompt_file exclusivity rule and loads
// file-backed prompts.
func resolvePrompt(entry CommandEntry, baseDir string) (string, error) {
	switch {
	case entry.Prompt != "" && entry.PromptFile != "":
		return "", fmt.Errorf("command %q: only one of prompt or prompt_file can be provided", entry.Name)
	case entry.Prompt != "":
		return entry.Prompt, nil
	case entry.PromptFile != "":
		path := entry.PromptFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("command %q: reading prompt file: %w", entry.Name, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("command %q: one of prompt or prompt_file must be provided", entry.Name)
	}
}

// mergeTools combines a command's tools with the global baseline, applies
// the restriction set, and returns a sorted, deduplicated list.
func mergeTools(commandTools, globalTools, restriction []string) []string {
	merged := make([]string, 0, len(commandTools)+len(globalTools))
	merged = append(merged, commandTools...)
	merged = append(merged, globalTools...)

	if len(restriction) > 0 {
		merged = slices.DeleteFunc(merged, func(name string) bool {
			return !slices.Contains(restriction, name)
		})
	}

	slices.Sort(merged)
	return slices.Compact(merged)
}

// CommandByName returns the named command.
func (c *Config) CommandByName(name string) (Command, bool) {
	for _, cmd := range c.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// MatchesActivationKeyword reports whether text starts with any activation
// keyword, case-insensitively. An empty keyword list matches nothing.
func (c *Config) MatchesActivationKeyword(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range c.ActivationKeywords {
		if strings.HasPrefix(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// CommandDescriptions returns a name-to-description map for command
// selection prompts.
func (c *Config) CommandDescriptions() map[string]string {
	out := make(map[string]string, len(c.Commands))
	for _, cmd := range c.Commands {
		out[cmd.Name] = cmd.Description
	}
	return out
}
