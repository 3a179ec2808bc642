/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package notiondoc

import (
	"fmt"
	"strings"
)

// Kind identifies the closed set of block kinds the relay understands.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading1  Kind = "heading_1"
	KindHeading2  Kind = "heading_2"
	KindHeading3  Kind = "heading_3"
	KindBulleted  Kind = "bulleted_list_item"
	KindNumbered  Kind = "numbered_list_item"
	KindToDo      Kind = "to_do"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindDivider   Kind = "divider"
	KindOther     Kind = "other"
)

// Completion markers prepended to to_do block text.
const (
	markerDone = "[x] "
	markerOpen = "[ ] "
)

// Unit is one addressable block of the document, flattened to plain text.
// The text is derived at snapshot time; the store remains authoritative.
type Unit struct {
	ID   string
	Kind Kind
	Text string
}

// Snapshot is the full ordered document content at one point in time.
type Snapshot []Unit

// richText is one plain-text run inside a block.
type richText struct {
	PlainText string `json:"plain_text"`
}

// textContent is the rich-text payload shared by all text-bearing kinds.
// Checked is only populated for to_do blocks.
type textContent struct {
	RichText []richText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// block is the wire form of one document block. Each kind nests its content
// under a field named after the kind, so every supported kind gets its own
// pointer here.
type block struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Para     *textContent `json:"paragraph"`
	Head1    *textContent `json:"heading_1"`
	Head2    *textContent `json:"heading_2"`
	Head3    *textContent `json:"heading_3"`
	Bulleted *textContent `json:"bulleted_list_item"`
	Numbered *textContent `json:"numbered_list_item"`
	ToDo     *textContent `json:"to_do"`
	Quote    *textContent `json:"quote"`
	Code     *textContent `json:"code"`
}

// content returns the rich-text payload for the block's own kind, or nil if
// the kind does not carry editable rich text.
func (b block) content() *textContent {
	switch Kind(b.Type) {
	case KindParagraph:
		return b.Para
	case KindHeading1:
		return b.Head1
	case KindHeading2:
		return b.Head2
	case KindHeading3:
		return b.Head3
	case KindBulleted:
		return b.Bulleted
	case KindNumbered:
		return b.Numbered
	case KindToDo:
		return b.ToDo
	case KindQuote:
		return b.Quote
	case KindCode:
		return b.Code
	}
	return nil
}

// unit converts a wire block to a Unit, dispatching on the block kind with
// an explicit fallback for anything outside the supported set.
func (b block) unit() Unit {
	switch Kind(b.Type) {
	case KindParagraph, KindHeading1, KindHeading2, KindHeading3,
		KindBulleted, KindNumbered, KindQuote, KindCode:
		return Unit{ID: b.ID, Kind: Kind(b.Type), Text: flatten(b.content())}
	case KindToDo:
		marker := markerOpen
		if b.ToDo != nil && b.ToDo.Checked {
			marker = markerDone
		}
		return Unit{ID: b.ID, Kind: KindToDo, Text: marker + flatten(b.ToDo)}
	case KindDivider:
		return Unit{ID: b.ID, Kind: KindDivider, Text: "---"}
	}
	return Unit{ID: b.ID, Kind: KindOther, Text: fmt.Sprintf("(unsupported block type: %s)", b.Type)}
}

// flatten concatenates the plain-text runs of a block payload.
func flatten(tc *textContent) string {
	if tc == nil {
		return ""
	}
	var sb strings.Builder
	for _, rt := range tc.RichText {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}
