/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"chainguard.dev/deskrelay/retry"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textMessage(texts ...string) anthropic.Message {
	var msg anthropic.Message
	for _, text := range texts {
		msg.Content = append(msg.Content, anthropic.ContentBlockUnion{Type: "text", Text: text})
	}
	return msg
}

func toolUseMessage(calls ...anthropic.ToolUseBlock) anthropic.Message {
	var msg anthropic.Message
	for _, call := range calls {
		msg.Content = append(msg.Content, anthropic.ContentBlockUnion{
			Type:  "tool_use",
			ID:    call.ID,
			Name:  call.Name,
			Input: call.Input,
		})
	}
	return msg
}

// scripted replaces the loop's model call with a canned response sequence,
// recording the params of every call.
func scripted(t *testing.T, l *Loop, responses ...anthropic.Message) *[]anthropic.MessageNewParams {
	t.Helper()
	var calls []anthropic.MessageNewParams
	l.complete = func(_ context.Context, params anthropic.MessageNewParams) (anthropic.Message, error) {
		calls = append(calls, params)
		if len(calls) > len(responses) {
			t.Fatalf("unexpected model call %d", len(calls))
		}
		return responses[len(calls)-1], nil
	}
	return &calls
}

func newTestLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l, err := New(anthropic.Client{}, opts...)
	require.NoError(t, err)
	return l
}

func TestRunTerminatesWithoutTools(t *testing.T) {
	l := newTestLoop(t)
	calls := scripted(t, l, textMessage("the answer"))

	got, err := l.Run(context.Background(), "snapshot + question", nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)

	require.Len(t, *calls, 1)
	msgs := (*calls)[0].Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
}

func TestRunReturnsFirstTextSegment(t *testing.T) {
	l := newTestLoop(t)
	scripted(t, l, textMessage("first", "second"))

	got, err := l.Run(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestRunExecutesToolsInOrder(t *testing.T) {
	var invoked []string
	tools := map[string]Tool{
		"append_texts": {
			Handler: func(_ context.Context, toolUse anthropic.ToolUseBlock) map[string]any {
				invoked = append(invoked, "append_texts")
				return map[string]any{"success": true}
			},
		},
		"delete_block": {
			Handler: func(_ context.Context, toolUse anthropic.ToolUseBlock) map[string]any {
				invoked = append(invoked, "delete_block")
				return map[string]any{"success": true}
			},
		},
	}

	l := newTestLoop(t)
	calls := scripted(t, l,
		toolUseMessage(
			anthropic.ToolUseBlock{ID: "tu1", Name: "append_texts", Input: json.RawMessage(`{"texts": ["A", "B"]}`)},
			anthropic.ToolUseBlock{ID: "tu2", Name: "delete_block", Input: json.RawMessage(`{"block_id": "b1"}`)},
		),
		textMessage("done"),
	)

	got, err := l.Run(context.Background(), "edit the doc", tools)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, []string{"append_texts", "delete_block"}, invoked)

	// Second model call sees the grown conversation: user prompt, the
	// model's tool-use turn, and one turn with both results in order.
	require.Len(t, *calls, 2)
	msgs := (*calls)[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)

	require.Len(t, msgs[2].Content, 2)
	first := msgs[2].Content[0].OfToolResult
	require.NotNil(t, first)
	assert.Equal(t, "tu1", first.ToolUseID)
	second := msgs[2].Content[1].OfToolResult
	require.NotNil(t, second)
	assert.Equal(t, "tu2", second.ToolUseID)
}

func TestRunUnknownToolBecomesErrorResult(t *testing.T) {
	l := newTestLoop(t)
	calls := scripted(t, l,
		toolUseMessage(anthropic.ToolUseBlock{ID: "tu1", Name: "no_such_tool", Input: json.RawMessage(`{}`)}),
		textMessage("reported"),
	)

	got, err := l.Run(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "reported", got)

	msgs := (*calls)[1].Messages
	result := msgs[2].Content[0].OfToolResult
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].OfText.Text, "unknown tool")
}

func TestRunToolFailureDoesNotAbort(t *testing.T) {
	tools := map[string]Tool{
		"delete_block": {
			Handler: func(_ context.Context, _ anthropic.ToolUseBlock) map[string]any {
				return map[string]any{"error": "block not found"}
			},
		},
	}

	l := newTestLoop(t)
	calls := scripted(t, l,
		toolUseMessage(anthropic.ToolUseBlock{ID: "tu1", Name: "delete_block", Input: json.RawMessage(`{"block_id": "x"}`)}),
		textMessage("could not delete"),
	)

	got, err := l.Run(context.Background(), "q", tools)
	require.NoError(t, err)
	assert.Equal(t, "could not delete", got)

	result := (*calls)[1].Messages[2].Content[0].OfToolResult
	require.NotNil(t, result)
	assert.Contains(t, result.Content[0].OfText.Text, "block not found")
}

func TestRunMaxRounds(t *testing.T) {
	tools := map[string]Tool{
		"append_texts": {
			Handler: func(_ context.Context, _ anthropic.ToolUseBlock) map[string]any {
				return map[string]any{"success": true}
			},
		},
	}

	l := newTestLoop(t, WithMaxRounds(3))
	var callCount int
	l.complete = func(_ context.Context, _ anthropic.MessageNewParams) (anthropic.Message, error) {
		callCount++
		return toolUseMessage(anthropic.ToolUseBlock{ID: "tu", Name: "append_texts", Input: json.RawMessage(`{}`)}), nil
	}

	_, err := l.Run(context.Background(), "q", tools)
	require.ErrorIs(t, err, ErrMaxRounds)
	assert.Equal(t, 3, callCount)
}

func TestRunModelFailureAborts(t *testing.T) {
	l := newTestLoop(t, WithRetryConfig(retry.Config{MaxRetries: 0}))
	modelErr := errors.New("bad gateway")
	l.complete = func(_ context.Context, _ anthropic.MessageNewParams) (anthropic.Message, error) {
		return anthropic.Message{}, modelErr
	}

	_, err := l.Run(context.Background(), "q", nil)
	require.ErrorIs(t, err, modelErr)
}

func TestRunEmptyResponse(t *testing.T) {
	l := newTestLoop(t)
	scripted(t, l, anthropic.Message{})

	_, err := l.Run(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestOptionValidation(t *testing.T) {
	if _, err := New(anthropic.Client{}, WithModel("gpt-4")); err == nil {
		t.Error("expected error for non-Claude model name")
	}
	if _, err := New(anthropic.Client{}, WithMaxRounds(0)); err == nil {
		t.Error("expected error for zero max rounds")
	}
	if _, err := New(anthropic.Client{}, WithTemperature(1.5)); err == nil {
		t.Error("expected error for out-of-range temperature")
	}
}
