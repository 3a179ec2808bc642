/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package notiondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chainguard-dev/clog"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	pageSize       = 100
)

// Client talks to the block store's REST API for one fixed document.
type Client struct {
	hc      *http.Client
	baseURL string
	token   string
	pageID  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// New creates a client for the document identified by pageID.
func New(token, pageID string, opts ...Option) *Client {
	c := &Client{
		hc:      http.DefaultClient,
		baseURL: defaultBaseURL,
		token:   token,
		pageID:  pageID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the browser URL of the document.
func (c *Client) PageURL() string {
	return "https://www.notion.so/" + strings.ReplaceAll(c.pageID, "-", "")
}

// listResponse is one page of the block children listing.
type listResponse struct {
	Results    []block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

// Snapshot fetches the full document content, following continuation
// cursors until the store reports no more pages. There is no retry and no
// partial result: any failure propagates and the partial read is discarded.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	cursor := ""
	for {
		q := url.Values{"page_size": []string{fmt.Sprint(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/blocks/%s/children?%s", c.pageID, q.Encode()), nil)
		if err != nil {
			return nil, fmt.Errorf("listing blocks: %w", err)
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding block list: %w", err)
		}
		for _, b := range page.Results {
			snap = append(snap, b.unit())
		}
		if !page.HasMore {
			return snap, nil
		}
		cursor = page.NextCursor
	}
}

// Append creates one new paragraph block per text, appended to the end of
// the document in the given order.
func (c *Client) Append(ctx context.Context, texts []string) error {
	children := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		children = append(children, map[string]any{
			"object":    "block",
			"type":      string(KindParagraph),
			"paragraph": richTextPayload(text),
		})
	}
	payload := map[string]any{"children": children}

	if _, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/blocks/%s/children", c.pageID), payload); err != nil {
		return fmt.Errorf("appending %d blocks: %w", len(texts), err)
	}
	return nil
}

// Replace swaps a block's rich-text content for a single run of text. The
// update payload must be keyed by the block's current kind, so the block is
// read first to discover it.
func (c *Client) Replace(ctx context.Context, blockID, text string) error {
	body, err := c.do(ctx, http.MethodGet, "/v1/blocks/"+blockID, nil)
	if err != nil {
		return fmt.Errorf("reading block %s: %w", blockID, err)
	}
	var b block
	if err := json.Unmarshal(body, &b); err != nil {
		return fmt.Errorf("decoding block %s: %w", blockID, err)
	}
	if b.content() == nil {
		return fmt.Errorf("block %s has type %q, which is not text-editable", blockID, b.Type)
	}

	payload := map[string]any{b.Type: richTextPayload(text)}
	if _, err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID, payload); err != nil {
		return fmt.Errorf("updating block %s: %w", blockID, err)
	}
	return nil
}

// Delete removes a block from the document.
func (c *Client) Delete(ctx context.Context, blockID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/v1/blocks/"+blockID, nil); err != nil {
		return fmt.Errorf("deleting block %s: %w", blockID, err)
	}
	return nil
}

// richTextPayload builds the wire form of a single-run rich-text content.
func richTextPayload(text string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{{
			"type": "text",
			"text": map[string]any{"content": text},
		}},
	}
}

// do issues one authenticated request and returns the response body.
// Non-2xx responses become errors carrying the body as detail.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	clog.FromContext(ctx).With("method", method).With("path", path).Debug("Document store request")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
