/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/issueops/ghagent/agent/conversation"
	"github.com/issueops/ghagent/agent/retry"
	"github.com/issueops/ghagent/agent/toolcall"
	"google.golang.org/genai"
)

// GenAICaller is a ModelCaller backed by the Gemini API.
type GenAICaller struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
	thinkingBudget  *int32 // nil = disabled
	retryConfig     retry.Config
}

// GenAIOption configures a GenAICaller.
type GenAIOption func(*GenAICaller)

// WithModel overrides the model identifier.
func WithModel(model string) GenAIOption {
	return func(c *GenAICaller) { c.model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) GenAIOption {
	return func(c *GenAICaller) { c.temperature = t }
}

// WithMaxOutputTokens overrides the output token limit.
func WithMaxOutputTokens(n int32) GenAIOption {
	return func(c *GenAICaller) { c.maxOutputTokens = n }
}

// WithThinking enables thinking mode with the given token budget. Thought
// parts are consumed for reasoning but never fed back into the conversation.
func WithThinking(budgetTokens int32) GenAIOption {
	return func(c *GenAICaller) { c.thinkingBudget = &budgetTokens }
}

// WithRetryConfig overrides the retry configuration for transient errors.
func WithRetryConfig(cfg retry.Config) GenAIOption {
	return func(c *GenAICaller) { c.retryConfig = cfg }
}

// NewGenAICaller creates a Gemini-backed caller.
func NewGenAICaller(client *genai.Client, opts ...GenAIOption) (*GenAICaller, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	c := &GenAICaller{
		client:          client,
		model:           "gemini-2.5-flash",
		temperature:     0.1,
		maxOutputTokens: 8192,
		retryConfig:     retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model implements ModelCaller.
func (c *GenAICaller) Model() string {
	return c.model
}

// Call implements ModelCaller.
func (c *GenAICaller) Call(ctx context.Context, systemPrompt string, conv *conversation.Conversation, tools []toolcall.Definition) (*ModelReply, error) {
	log := clog.FromContext(ctx)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxOutputTokens,
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, def := range tools {
			decls = append(decls, toDeclaration(def))
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if c.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  c.thinkingBudget,
		}
	}

	contents := toContents(conv)

	response, err := retry.Do(ctx, c.retryConfig, "generate_content", IsRetryableModelError, func() (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, c.model, contents, config)
	})
	if err != nil {
		return nil, fmt.Errorf("generating content with model %q: %w", c.model, err)
	}

	if len(response.Candidates) == 0 {
		return nil, errors.New("no content generated - no candidates")
	}
	candidate := response.Candidates[0]

	reply := &ModelReply{}
	if response.UsageMetadata != nil {
		reply.PromptTokens = int64(response.UsageMetadata.PromptTokenCount)
		reply.CompletionTokens = int64(response.UsageMetadata.CandidatesTokenCount)
	}

	if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
		reply.Malformed = true
		reply.FinishMessage = candidate.FinishMessage
		return reply, nil
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("no content generated - empty candidate")
	}

	for i, part := range candidate.Content.Parts {
		switch {
		case part.Thought:
			// Thinking parts are not fed back into the conversation.
		case part.Text != "":
			reply.Texts = append(reply.Texts, part.Text)
		case part.FunctionCall != nil:
			reply.Calls = append(reply.Calls, toolcall.Request{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		default:
			log.With("part_index", i).Warn("Found part with unexpected content")
		}
	}

	return reply, nil
}

// toDeclaration converts a provider-independent definition to the Gemini
// function declaration format.
func toDeclaration(def toolcall.Definition) *genai.FunctionDeclaration {
	decl := &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
	}
	if len(def.Parameters) == 0 {
		return decl
	}

	properties := make(map[string]*genai.Schema, len(def.Parameters))
	var required []string
	for _, p := range def.Parameters {
		properties[p.Name] = toSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	decl.Parameters = &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
	return decl
}

func toSchema(p toolcall.Parameter) *genai.Schema {
	s := &genai.Schema{Description: p.Description}
	switch p.Type {
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
		s.Items = &genai.Schema{Type: genai.TypeString}
	case "object":
		s.Type = genai.TypeObject
	default:
		s.Type = genai.TypeString
	}
	return s
}

// toContents converts the conversation history to Gemini content entries.
func toContents(conv *conversation.Conversation) []*genai.Content {
	turns := conv.Turns()
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		content := &genai.Content{Role: string(turn.Role())}
		switch turn.Kind {
		case conversation.KindUserText, conversation.KindModelText:
			content.Parts = []*genai.Part{{Text: turn.Text}}
		case conversation.KindModelCall:
			content.Parts = []*genai.Part{{FunctionCall: &genai.FunctionCall{
				ID:   turn.Call.ID,
				Name: turn.Call.Name,
				Args: turn.Call.Args,
			}}}
		case conversation.KindToolResult:
			content.Parts = []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
				ID:       turn.Result.ID,
				Name:     turn.Result.Name,
				Response: responsePayload(turn.Result),
			}}}
		}
		contents = append(contents, content)
	}
	return contents
}

func responsePayload(result *toolcall.Result) map[string]any {
	if m, ok := result.Output.(map[string]any); ok {
		return m
	}
	if result.Err != "" {
		return map[string]any{"error": result.Err}
	}
	return map[string]any{"result": result.Output}
}

// IsRetryableModelError reports whether a model API error is worth
// retrying: rate limits, quota exhaustion, and transient server errors.
// Structured API errors are classified by HTTP status; anything else falls
// back to message matching.
func IsRetryableModelError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	errStr := err.Error()
	return strings.Contains(errStr, "Resource exhausted") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "Overloaded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "Internal error") ||
		strings.Contains(errStr, "server error")
}
