/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall extracts typed parameters from model tool-use blocks and
// formats the result maps fed back to the model.
package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// Params holds the decoded input of one tool-use block.
type Params struct {
	inputMap map[string]any
}

// NewParams decodes the tool-use input JSON once. On decode failure it
// returns an error response map suitable for feeding straight back to the
// model.
func NewParams(toolUse anthropic.ToolUseBlock) (*Params, map[string]any) {
	var inputMap map[string]any
	if err := json.Unmarshal(toolUse.Input, &inputMap); err != nil {
		return nil, Error("failed to parse tool input: %v", err)
	}
	return &Params{inputMap: inputMap}, nil
}

// Param extracts a required parameter with type safety.
func Param[T any](p *Params, name string) (T, map[string]any) {
	var zero T

	value, exists := p.inputMap[name]
	if !exists {
		return zero, Error("%s parameter is required", name)
	}

	if v, ok := value.(T); ok {
		return v, nil
	}
	if v, ok := convert[T](value); ok {
		return v, nil
	}

	return zero, Error("%s parameter must be of type %T, got %T", name, zero, value)
}

// convert handles the JSON decodings that don't assert directly: numbers
// arrive as float64 and arrays as []any.
func convert[T any](value any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f, ok := value.(float64); ok {
			return any(int(f)).(T), true
		}
	case int64:
		if f, ok := value.(float64); ok {
			return any(int64(f)).(T), true
		}
	case []string:
		items, ok := value.([]any)
		if !ok {
			return zero, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
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

// Error creates an error response map for a tool result.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}
