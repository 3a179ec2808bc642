/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package linechat

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "channel-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// replyRecorder fakes the reply API endpoint and records pushed replies.
type replyRecorder struct {
	mu      sync.Mutex
	replies map[string]string // reply token -> text
}

func newReplyTestClient(t *testing.T) (*ReplyClient, *replyRecorder) {
	t.Helper()
	rec := &replyRecorder{replies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ReplyToken string `json:"replyToken"`
			Messages   []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Messages, 1)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))

		rec.mu.Lock()
		rec.replies[payload.ReplyToken] = payload.Messages[0].Text
		rec.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return NewReplyClient("access-token", WithReplyURL(srv.URL), WithReplyHTTPClient(srv.Client())), rec
}

func postWebhook(t *testing.T, s *Server, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", signature)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestLiveness(t *testing.T) {
	s := NewServer(testSecret, nil, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s := NewServer(testSecret, nil, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	var handled bool
	s := NewServer(testSecret, nil, func(context.Context, string, string) (string, error) {
		handled = true
		return "", nil
	})

	w := postWebhook(t, s, `{"events": []}`, "not-a-valid-signature")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, handled)
}

func TestWebhookDispatchesTextEvents(t *testing.T) {
	replies, rec := newReplyTestClient(t)

	var mu sync.Mutex
	got := map[string]string{}
	s := NewServer(testSecret, replies, func(_ context.Context, userID, text string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		got[userID] = text
		return "reply to " + userID, nil
	})

	body := `{"events": [
		{"type": "message", "replyToken": "rt1", "source": {"userId": "u1"}, "message": {"type": "text", "id": "m1", "text": "hello"}},
		{"type": "message", "replyToken": "rt2", "source": {"userId": "u2"}, "message": {"type": "text", "id": "m2", "text": "world"}},
		{"type": "follow", "replyToken": "rt3", "source": {"userId": "u3"}}
	]}`

	w := postWebhook(t, s, body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)

	// Both text events handled, the follow event skipped.
	assert.Equal(t, map[string]string{"u1": "hello", "u2": "world"}, got)
	assert.Equal(t, map[string]string{"rt1": "reply to u1", "rt2": "reply to u2"}, rec.replies)
}

func TestWebhookHandlerErrorSendsNoReply(t *testing.T) {
	replies, rec := newReplyTestClient(t)
	s := NewServer(testSecret, replies, func(context.Context, string, string) (string, error) {
		return "", errors.New("turn aborted")
	})

	body := `{"events": [{"type": "message", "replyToken": "rt1", "source": {"userId": "u1"}, "message": {"type": "text", "text": "hi"}}]}`
	w := postWebhook(t, s, body, sign(body))

	// The channel still gets its 200; the failed turn just goes unreplied.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.replies)
}

func TestValidSignature(t *testing.T) {
	body := []byte(`{"events": []}`)
	sig := sign(string(body))

	assert.True(t, ValidSignature(testSecret, body, sig))
	assert.False(t, ValidSignature(testSecret, body, "tampered"))
	assert.False(t, ValidSignature("other-secret", body, sig))
}

func TestReplyClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Invalid reply token"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := NewReplyClient("tok", WithReplyURL(srv.URL), WithReplyHTTPClient(srv.Client()))
	err := c.Reply(context.Background(), "expired", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
