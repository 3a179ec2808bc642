/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package linechat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskrelay_webhook_events_total",
		Help: "Webhook events received, by disposition.",
	}, []string{"disposition"})

	repliesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskrelay_replies_total",
		Help: "Replies pushed through the chat channel, by result.",
	}, []string{"result"})
)

// Handler produces the reply text for one inbound user text message. An
// error means the turn aborted and no reply is sent for that event.
type Handler func(ctx context.Context, userID, text string) (string, error)

// Server is the HTTP surface of the relay: the webhook POST endpoint and a
// GET liveness check.
type Server struct {
	secret  string
	replies *ReplyClient
	handle  Handler
}

// NewServer creates the webhook server. The secret verifies inbound
// signatures; replies go out through the reply client.
func NewServer(secret string, replies *ReplyClient, handle Handler) *Server {
	return &Server{secret: secret, replies: replies, handle: handle}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	case http.MethodPost:
		s.handleWebhook(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWebhook verifies the signature and dispatches every event of the
// batch concurrently. The channel only needs a 200; replies travel over the
// separate reply API.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}
	if !ValidSignature(s.secret, body, r.Header.Get("X-Line-Signature")) {
		log.Warn("Webhook signature mismatch")
		http.Error(w, "bad signature", http.StatusUnauthorized)
		return
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "decoding payload", http.StatusBadRequest)
		return
	}

	var eg errgroup.Group
	for _, event := range payload.Events {
		eg.Go(func() error {
			s.dispatch(ctx, event)
			return nil
		})
	}
	_ = eg.Wait()

	w.WriteHeader(http.StatusOK)
}

// dispatch handles one event end to end. Failures are logged, never
// replied: a handler error means no reply at all for that event.
func (s *Server) dispatch(ctx context.Context, event Event) {
	log := clog.FromContext(ctx)

	if !event.IsTextMessage() {
		log.With("type", event.Type).Debug("Skipping non-text event")
		eventsReceived.WithLabelValues("skipped").Inc()
		return
	}
	eventsReceived.WithLabelValues("handled").Inc()

	reply, err := s.handle(ctx, event.Source.UserID, event.Message.Text)
	if err != nil {
		log.With("user", event.Source.UserID).With("error", err).Error("Turn aborted, no reply sent")
		return
	}

	if err := s.replies.Reply(ctx, event.ReplyToken, reply); err != nil {
		log.With("error", err).Error("Reply push failed")
		repliesSent.WithLabelValues("failure").Inc()
		return
	}
	repliesSent.WithLabelValues("success").Inc()
}
