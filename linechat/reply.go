/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package linechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultReplyURL = "https://api.line.me/v2/bot/message/reply"

// ReplyClient pushes text replies through the chat channel's reply API.
type ReplyClient struct {
	hc       *http.Client
	replyURL string
	token    string
}

// ReplyOption configures a ReplyClient.
type ReplyOption func(*ReplyClient)

// WithReplyURL overrides the reply endpoint.
func WithReplyURL(u string) ReplyOption {
	return func(c *ReplyClient) { c.replyURL = u }
}

// WithReplyHTTPClient overrides the underlying HTTP client.
func WithReplyHTTPClient(hc *http.Client) ReplyOption {
	return func(c *ReplyClient) { c.hc = hc }
}

// NewReplyClient creates a reply client authenticated with the channel
// access token.
func NewReplyClient(token string, opts ...ReplyOption) *ReplyClient {
	c := &ReplyClient{
		hc:       http.DefaultClient,
		replyURL: defaultReplyURL,
		token:    token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply sends one text message against a reply token. Each token is valid
// for exactly one reply within the channel's validity window.
func (c *ReplyClient) Reply(ctx context.Context, replyToken, text string) error {
	payload, err := json.Marshal(map[string]any{
		"replyToken": replyToken,
		"messages": []map[string]string{{
			"type": "text",
			"text": text,
		}},
	})
	if err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.replyURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("pushing reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reply push: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
