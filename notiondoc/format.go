/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package notiondoc

import (
	"fmt"
	"strings"
)

// EmptyDocument is what Format renders when the document has no blocks.
const EmptyDocument = "(The document is empty.)"

// Format renders a snapshot as one line per unit, in snapshot order. This is
// the only view of the document the agent loop ever sees, rebuilt fresh on
// every turn.
func Format(s Snapshot) string {
	if len(s) == 0 {
		return EmptyDocument
	}
	lines := make([]string, 0, len(s))
	for _, u := range s {
		lines = append(lines, fmt.Sprintf("[%s] (%s) %s", u.ID, u.Kind, u.Text))
	}
	return strings.Join(lines, "\n")
}
