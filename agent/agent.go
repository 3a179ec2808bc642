/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainguard.dev/deskrelay/metrics"
	"chainguard.dev/deskrelay/retry"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// ErrMaxRounds is returned when the model keeps requesting tools past the
// configured round bound.
var ErrMaxRounds = errors.New("exceeded maximum tool-use rounds")

// Tool pairs a model-facing tool definition with its handler. Handlers
// return a result map for the model; failures go into the map, never up the
// stack.
type Tool struct {
	Definition anthropic.ToolParam
	Handler    func(ctx context.Context, toolUse anthropic.ToolUseBlock) map[string]any
}

// Loop runs model conversations with tool execution.
type Loop struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	system      string
	maxRounds   int
	retryConfig retry.Config
	genai       *metrics.GenAI

	// complete performs one model call. Overridable in tests.
	complete func(ctx context.Context, params anthropic.MessageNewParams) (anthropic.Message, error)
}

// New creates a Loop with defaults suitable for short conversational turns.
func New(client anthropic.Client, opts ...Option) (*Loop, error) {
	l := &Loop{
		client:      client,
		model:       "claude-sonnet-4-20250514",
		maxTokens:   8192,
		temperature: 0.1,
		maxRounds:   10,
		retryConfig: retry.DefaultConfig(),
		genai:       metrics.NewGenAI("chainguard.ai.deskrelay"),
	}
	l.complete = l.stream

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return l, nil
}

// Run drives the conversation for one user prompt until the model produces
// a final text answer.
func (l *Loop) Run(ctx context.Context, prompt string, tools map[string]Tool) (string, error) {
	log := clog.FromContext(ctx)

	toolDefs := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		def := t.Definition
		toolDefs = append(toolDefs, anthropic.ToolUnionParam{OfTool: &def})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: l.maxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
		Tools: toolDefs,
	}
	params.Temperature = anthropic.Float(l.temperature)
	if l.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: l.system}}
	}

	log.With("prompt_length", len(prompt)).
		With("tools", len(tools)).
		Info("Starting agent conversation")

	for round := 0; round < l.maxRounds; round++ {
		message, err := retry.Do(ctx, l.retryConfig, "model_call", isRetryableModelError, func() (anthropic.Message, error) {
			return l.complete(ctx, params)
		})
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
			l.genai.RecordTokens(ctx, l.model, message.Usage.InputTokens, message.Usage.OutputTokens)
		}

		var toolUses []anthropic.ToolUseBlock
		var text string
		for _, content := range message.Content {
			switch content.Type {
			case "text":
				if text == "" {
					text = content.Text
				}
			case "tool_use":
				toolUses = append(toolUses, anthropic.ToolUseBlock{
					ID:    content.ID,
					Name:  content.Name,
					Input: content.Input,
				})
			}
		}

		if len(toolUses) > 0 {
			// Append the model's turn, then every tool result in request
			// order as one tool-result turn, then go around again.
			params.Messages = append(params.Messages, assistantTurn(message))

			results := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))
			for _, toolUse := range toolUses {
				l.genai.RecordToolCall(ctx, l.model, toolUse.Name)
				block, err := l.executeTool(ctx, toolUse, tools)
				if err != nil {
					return "", err
				}
				results = append(results, block)
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: results,
			})
			continue
		}

		if text != "" {
			log.With("rounds", round+1).Info("Agent conversation complete")
			return text, nil
		}
		return "", errors.New("no content in model response")
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxRounds, l.maxRounds)
}

// executeTool runs one requested tool call and wraps its result in a
// tool-result block tagged to the request.
func (l *Loop) executeTool(ctx context.Context, toolUse anthropic.ToolUseBlock, tools map[string]Tool) (anthropic.ContentBlockParamUnion, error) {
	log := clog.FromContext(ctx)
	log.With("tool", toolUse.Name).With("id", toolUse.ID).Info("Executing tool call")

	var result map[string]any
	if t, ok := tools[toolUse.Name]; ok {
		result = t.Handler(ctx, toolUse)
	} else {
		log.With("tool", toolUse.Name).Error("Unknown tool requested")
		result = map[string]any{
			"error": fmt.Sprintf("unknown tool: %q", toolUse.Name),
		}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("marshaling tool result: %w", err)
	}

	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: toolUse.ID,
			Content: []anthropic.ToolResultBlockParamContentUnion{{
				OfText: &anthropic.TextBlockParam{Text: string(raw)},
			}},
		},
	}, nil
}

// assistantTurn rebuilds the model's response as a conversation turn,
// carrying its text and tool-use blocks forward.
func assistantTurn(message anthropic.Message) anthropic.MessageParam {
	content := make([]anthropic.ContentBlockParamUnion, 0, len(message.Content))
	for _, c := range message.Content {
		switch c.Type {
		case "text":
			content = append(content, anthropic.NewTextBlock(c.Text))
		case "tool_use":
			content = append(content, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    c.ID,
					Name:  c.Name,
					Input: c.Input,
				},
			})
		}
	}
	return anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleAssistant,
		Content: content,
	}
}

// stream performs one model call, accumulating the streamed response into a
// complete message.
func (l *Loop) stream(ctx context.Context, params anthropic.MessageNewParams) (anthropic.Message, error) {
	stream := l.client.Messages.NewStreaming(ctx, params)
	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return msg, fmt.Errorf("accumulating event: %w", err)
		}
	}
	return msg, stream.Err()
}
