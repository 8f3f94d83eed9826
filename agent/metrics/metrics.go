/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry counters for agent task runs:
// token usage, tool calls, and iterations. Counter creation degrades to
// no-ops so a misconfigured meter provider never blocks a run.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Agent records metrics for model interactions and tool dispatch.
type Agent struct {
	meter            metric.Meter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	iterations       metric.Int64Counter
}

// NewAgent creates a metrics instance on the named meter. If a counter
// fails to initialize it logs a warning and substitutes a no-op counter
// rather than failing the caller.
func NewAgent(meterName string) *Agent {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("agent.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("agent.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	toolCalls, err := meter.Int64Counter("agent.tool.calls",
		metric.WithDescription("The number of tool calls dispatched during a run"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create tool call counter, metrics will be disabled", "error", err, "meter", meterName)
		toolCalls = noop.Int64Counter{}
	}

	iterations, err := meter.Int64Counter("agent.iterations",
		metric.WithDescription("The number of model iterations consumed by a run"),
		metric.WithUnit("{iterations}"))
	if err != nil {
		slog.Warn("Failed to create iteration counter, metrics will be disabled", "error", err, "meter", meterName)
		iterations = noop.Int64Counter{}
	}

	return &Agent{
		meter:            meter,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		toolCalls:        toolCalls,
		iterations:       iterations,
	}
}

// RecordTokens records prompt and completion token usage for one model call.
func (m *Agent) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.promptTokens.Add(ctx, promptTokens, attrs)
	m.completionTokens.Add(ctx, completionTokens, attrs)
}

// RecordToolCall records a dispatched tool invocation.
func (m *Agent) RecordToolCall(ctx context.Context, model, toolName string) {
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("tool", toolName),
	))
}

// RecordIteration records one consumed iteration of the tool-calling loop.
func (m *Agent) RecordIteration(ctx context.Context, model, command string) {
	m.iterations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("command", command),
	))
}
