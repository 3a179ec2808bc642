/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package relay

import (
	"context"
	"fmt"

	"chainguard.dev/deskrelay/result"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// Classification is the structured verdict for one user message.
type Classification struct {
	// IsIssue reports whether the message describes a fix or feature
	// request for a known target.
	IsIssue bool `json:"is_issue"`
	// TargetName is the human label of the subject the issue concerns.
	TargetName string `json:"target_name"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	// Instruction is free text for a downstream consumer, relayed back to
	// the user on filing.
	Instruction string `json:"instruction"`
	// ConfirmMessage is the confirmation prompt shown to the user.
	ConfirmMessage string `json:"confirm_message"`
}

const classifierSystem = `ユーザーのメッセージが、特定の対象(プロダクトやサービス)についての不具合報告または機能要望かどうかを判定してください。

該当する場合は次のJSONのみを出力してください。他のテキストは一切出力しないでください:
{"is_issue": true, "target_name": "対象の名前", "title": "Issueのタイトル", "body": "Issueの本文", "instruction": "開発者への補足指示", "confirm_message": "ユーザーへの確認メッセージ(作成してよいか尋ねる)"}

該当しない場合は次のJSONのみを出力してください:
{"is_issue": false}`

// Classifier decides whether a message is an actionable issue request with
// a single constrained model call.
type Classifier struct {
	model string

	// complete performs one model call. Overridable in tests.
	complete func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// NewClassifier creates a classifier using the given client and model.
func NewClassifier(client anthropic.Client, model string) *Classifier {
	return &Classifier{
		model: model,
		complete: func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
			return client.Messages.New(ctx, params)
		},
	}
}

// Classify runs the single-shot classification. A transport failure
// propagates; a malformed model response is absorbed and degrades to
// not-an-issue.
func (c *Classifier) Classify(ctx context.Context, message string) (Classification, error) {
	resp, err := c.complete(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: classifierSystem}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(message),
			},
		}},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("classifying message: %w", err)
	}

	var text string
	for _, content := range resp.Content {
		if content.Type == "text" {
			text = content.Text
			break
		}
	}

	cls, err := result.Extract[Classification](text)
	if err != nil {
		// Unparseable output means the message is not an issue request.
		clog.FromContext(ctx).With("error", err).Debug("Classifier output not parseable, treating as not an issue")
		return Classification{}, nil
	}
	return cls, nil
}
