/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package linechat is the chat-channel edge: webhook parsing, signature
// verification, and the reply API.
package linechat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Event is one inbound webhook event.
type Event struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"message"`
}

// IsTextMessage reports whether the event carries a user text message.
func (e Event) IsTextMessage() bool {
	return e.Type == "message" && e.Message.Type == "text"
}

// webhookBody is the wire form of one webhook POST: a batch of events.
type webhookBody struct {
	Events []Event `json:"events"`
}

// ValidSignature verifies the channel signature over the raw request body:
// base64 of the HMAC-SHA256 of the body under the channel secret.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
