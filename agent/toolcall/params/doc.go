/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package params provides type-safe extraction of tool call arguments from
// the loosely-typed maps the model produces.
package params
