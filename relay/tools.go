/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package relay

import (
	"context"
	"fmt"

	"chainguard.dev/deskrelay/agent"
	"chainguard.dev/deskrelay/notiondoc"
	"chainguard.dev/deskrelay/schema"
	"chainguard.dev/deskrelay/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// DocumentStore is the document access the router and its tools need.
type DocumentStore interface {
	Snapshot(ctx context.Context) (notiondoc.Snapshot, error)
	Append(ctx context.Context, texts []string) error
	Replace(ctx context.Context, blockID, text string) error
	Delete(ctx context.Context, blockID string) error
	PageURL() string
}

// Tool input shapes. The schemas the model sees are reflected from these.
type appendInput struct {
	Texts []string `json:"texts" jsonschema:"required,description=Paragraph texts to append to the end of the document in order"`
}

type replaceInput struct {
	BlockID string `json:"block_id" jsonschema:"required,description=ID of the block to replace"`
	Text    string `json:"text" jsonschema:"required,description=New text content for the block"`
}

type deleteInput struct {
	BlockID string `json:"block_id" jsonschema:"required,description=ID of the block to delete"`
}

// DocumentTools builds the three document-editing tools bound to one store.
// Handler failures are rendered into the result map, never raised: a failed
// mutation must not crash the turn.
func DocumentTools(doc DocumentStore) (map[string]agent.Tool, error) {
	appendDef, err := toolDefinition[appendInput]("append_texts",
		"Append one new paragraph per text to the end of the shared document.")
	if err != nil {
		return nil, err
	}
	replaceDef, err := toolDefinition[replaceInput]("replace_text",
		"Replace the text content of an existing block, identified by its ID.")
	if err != nil {
		return nil, err
	}
	deleteDef, err := toolDefinition[deleteInput]("delete_block",
		"Delete a block from the shared document, identified by its ID.")
	if err != nil {
		return nil, err
	}

	success := func() map[string]any {
		return map[string]any{"success": true, "url": doc.PageURL()}
	}

	return map[string]agent.Tool{
		"append_texts": {
			Definition: appendDef,
			Handler: func(ctx context.Context, toolUse anthropic.ToolUseBlock) map[string]any {
				params, errResp := toolcall.NewParams(toolUse)
				if errResp != nil {
					return errResp
				}
				texts, errResp := toolcall.Param[[]string](params, "texts")
				if errResp != nil {
					return errResp
				}
				if err := doc.Append(ctx, texts); err != nil {
					return toolcall.Error("failed to append texts: %v", err)
				}
				return success()
			},
		},
		"replace_text": {
			Definition: replaceDef,
			Handler: func(ctx context.Context, toolUse anthropic.ToolUseBlock) map[string]any {
				params, errResp := toolcall.NewParams(toolUse)
				if errResp != nil {
					return errResp
				}
				blockID, errResp := toolcall.Param[string](params, "block_id")
				if errResp != nil {
					return errResp
				}
				text, errResp := toolcall.Param[string](params, "text")
				if errResp != nil {
					return errResp
				}
				if err := doc.Replace(ctx, blockID, text); err != nil {
					return toolcall.Error("failed to replace block text: %v", err)
				}
				return success()
			},
		},
		"delete_block": {
			Definition: deleteDef,
			Handler: func(ctx context.Context, toolUse anthropic.ToolUseBlock) map[string]any {
				params, errResp := toolcall.NewParams(toolUse)
				if errResp != nil {
					return errResp
				}
				blockID, errResp := toolcall.Param[string](params, "block_id")
				if errResp != nil {
					return errResp
				}
				if err := doc.Delete(ctx, blockID); err != nil {
					return toolcall.Error("failed to delete block: %v", err)
				}
				return success()
			},
		},
	}, nil
}

// toolDefinition reflects T into a model tool definition.
func toolDefinition[T any](name, description string) (anthropic.ToolParam, error) {
	props, required, err := schema.Input[T]()
	if err != nil {
		return anthropic.ToolParam{}, fmt.Errorf("building %s schema: %w", name, err)
	}
	return anthropic.ToolParam{
		Name:        name,
		Description: anthropic.String(description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: props,
			Required:   required,
		},
	}, nil
}
