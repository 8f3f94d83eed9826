/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package conversation models the multi-turn message history exchanged with
// the model. Turns are provider independent; the runner converts them to SDK
// types when it issues a request.
package conversation

import (
	"github.com/issueops/ghagent/agent/toolcall"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry in the conversation history. Exactly one of the payload
// fields is set, according to Kind.
type Turn struct {
	Kind Kind

	// Text is set for KindUserText and KindModelText.
	Text string

	// Call is set for KindModelCall.
	Call *toolcall.Request

	// Result is set for KindToolResult.
	Result *toolcall.Result
}

// Kind discriminates the payload of a Turn.
type Kind int

const (
	// KindUserText is free-form text supplied on behalf of the user.
	KindUserText Kind = iota
	// KindModelText is free-form text produced by the model.
	KindModelText
	// KindModelCall is a function call requested by the model.
	KindModelCall
	// KindToolResult is the outcome of a dispatched function call, sent
	// back to the model in the user role.
	KindToolResult
)

// Role returns the conversational role that authored the turn.
func (t Turn) Role() Role {
	switch t.Kind {
	case KindModelText, KindModelCall:
		return RoleModel
	default:
		return RoleUser
	}
}

// Conversation is an append-only sequence of turns.
type Conversation struct {
	turns []Turn
}

// New returns a conversation seeded with the given turns.
func New(turns ...Turn) *Conversation {
	c := &Conversation{}
	c.turns = append(c.turns, turns...)
	return c
}

// Append adds an already-constructed turn.
func (c *Conversation) Append(turns ...Turn) {
	c.turns = append(c.turns, turns...)
}

// AddUserText appends free-form user text.
func (c *Conversation) AddUserText(text string) {
	c.turns = append(c.turns, Turn{Kind: KindUserText, Text: text})
}

// AddModelText appends free-form model text.
func (c *Conversation) AddModelText(text string) {
	c.turns = append(c.turns, Turn{Kind: KindModelText, Text: text})
}

// AddModelCall appends a function call issued by the model.
func (c *Conversation) AddModelCall(call toolcall.Request) {
	c.turns = append(c.turns, Turn{Kind: KindModelCall, Call: &call})
}

// AddToolResult appends the outcome of a dispatched function call.
func (c *Conversation) AddToolResult(result toolcall.Result) {
	c.turns = append(c.turns, Turn{Kind: KindToolResult, Result: &result})
}

// Turns returns the history in order. The returned slice must not be
// mutated.
func (c *Conversation) Turns() []Turn {
	return c.turns
}

// Len returns the number of turns recorded so far.
func (c *Conversation) Len() int {
	return len(c.turns)
}
