/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider-independent tool contracts and the
// registry that maps tool names to them. Conversion to SDK-specific
// declarations happens downstream in the task runner's model caller.
package toolcall
