/*
Copyright 2026 The IssueOps Authors
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"fmt"
	"maps"
)

// Get extracts a required parameter from args with type safety.
// JSON numbers arrive as float64; integer targets are coerced.
func Get[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("%s parameter is required", name)
	}

	if v, ok := value.(T); ok {
		return v, nil
	}

	if v, ok := coerce[T](value); ok {
		return v, nil
	}

	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// GetOptional extracts an optional parameter, returning defaultValue when the
// parameter is absent. A present parameter of the wrong type is an error.
func GetOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, ok := args[name]
	if !ok {
		return defaultValue, nil
	}

	if v, ok := value.(T); ok {
		return v, nil
	}

	if v, ok := coerce[T](value); ok {
		return v, nil
	}

	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// coerce handles the conversions JSON decoding loses: float64 into the integer
// types, and []any into []string.
func coerce[T any](value any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f, ok := value.(float64); ok {
			return any(int(f)).(T), true
		}
	case int32:
		if f, ok := value.(float64); ok {
			return any(int32(f)).(T), true
		}
	case int64:
		if f, ok := value.(float64); ok {
			return any(int64(f)).(T), true
		}
	case []string:
		raw, ok := value.([]any)
		if !ok {
			return zero, false
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return zero, false
			}
			out = append(out, s)
		}
		return any(out).(T), true
	}
	return zero, false
}

// Error creates an error response map.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorWithContext creates an error response with additional context fields.
func ErrorWithContext(err error, context map[string]any) map[string]any {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return response
}
