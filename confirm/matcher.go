/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package confirm

import "strings"

// Verdict is the outcome of classifying a follow-up message.
type Verdict int

const (
	// Neither means the message is not a confirmation reply at all.
	Neither Verdict = iota
	// Affirmative commits the pending proposal.
	Affirmative
	// Negative cancels the pending proposal.
	Negative
)

// Matcher classifies raw text into affirmative, negative, or neither by
// case-sensitive substring match against phrase lists. The lists are data,
// loadable from config alongside the target registry.
type Matcher struct {
	affirmative []string
	negative    []string
}

// Default phrase lists for the primary locale plus English.
var (
	defaultAffirmative = []string{"はい", "yes", "Yes", "YES", "お願い", "よろしく", "OK", "ok"}
	defaultNegative    = []string{"いいえ", "no", "No", "NO", "キャンセル", "やめ"}
)

// NewMatcher builds a matcher from phrase lists. Negative phrases win over
// affirmative ones so that a message like "no thanks" cannot commit.
func NewMatcher(affirmative, negative []string) *Matcher {
	return &Matcher{affirmative: affirmative, negative: negative}
}

// DefaultMatcher returns a matcher with the built-in phrase lists.
func DefaultMatcher() *Matcher {
	return NewMatcher(defaultAffirmative, defaultNegative)
}

// Classify returns the verdict for one message.
func (m *Matcher) Classify(text string) Verdict {
	for _, phrase := range m.negative {
		if strings.Contains(text, phrase) {
			return Negative
		}
	}
	for _, phrase := range m.affirmative {
		if strings.Contains(text, phrase) {
			return Affirmative
		}
	}
	return Neither
}
