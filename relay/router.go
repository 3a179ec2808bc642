/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package relay

import (
	"context"
	"fmt"

	"chainguard.dev/deskrelay/agent"
	"chainguard.dev/deskrelay/confirm"
	"chainguard.dev/deskrelay/notiondoc"
	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskrelay_turns_total",
		Help: "Inbound text messages handled, by outcome.",
	}, []string{"outcome"})

	issuesFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskrelay_issues_filed_total",
		Help: "Issue filing attempts, by result.",
	}, []string{"result"})
)

// Reply texts in the primary locale.
const (
	replyCancelled    = "承知しました。Issue の作成はキャンセルしました。"
	replyFiledFmt     = "Issue を作成しました:\n%s"
	replyFileErrorFmt = "Issue の作成に失敗しました: %v"
)

// IntentClassifier judges whether a message is an actionable issue request.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

// AgentLoop answers a message by driving the model against document tools.
type AgentLoop interface {
	Run(ctx context.Context, prompt string, tools map[string]agent.Tool) (string, error)
}

// IssueFiler creates a tracked work item and returns its URL.
type IssueFiler interface {
	FileIssue(ctx context.Context, repo, title, body string) (string, error)
}

// Router makes the top-level per-message decision and produces exactly one
// reply text per inbound message.
type Router struct {
	doc        DocumentStore
	loop       AgentLoop
	classifier IntentClassifier
	filer      IssueFiler
	proposals  confirm.Store
	matcher    *confirm.Matcher
	registry   confirm.Registry
	tools      map[string]agent.Tool
}

// NewRouter wires the router and builds its document tools once.
func NewRouter(
	doc DocumentStore,
	loop AgentLoop,
	classifier IntentClassifier,
	filer IssueFiler,
	proposals confirm.Store,
	matcher *confirm.Matcher,
	registry confirm.Registry,
) (*Router, error) {
	tools, err := DocumentTools(doc)
	if err != nil {
		return nil, fmt.Errorf("building document tools: %w", err)
	}
	return &Router{
		doc:        doc,
		loop:       loop,
		classifier: classifier,
		filer:      filer,
		proposals:  proposals,
		matcher:    matcher,
		registry:   registry,
		tools:      tools,
	}, nil
}

// HandleMessage handles one inbound text message and returns the reply. An
// error means the turn aborted and no reply should be sent.
func (r *Router) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	log := clog.FromContext(ctx).With("user", userID)

	// A live pending proposal intercepts yes/no replies. Expired proposals
	// read as absent. Messages matching neither verdict leave the proposal
	// in place and fall through to ordinary handling.
	if proposal, ok := r.proposals.Get(userID); ok {
		switch r.matcher.Classify(text) {
		case confirm.Affirmative:
			return r.commit(ctx, userID, proposal)
		case confirm.Negative:
			r.proposals.Delete(userID)
			log.Info("Pending proposal cancelled")
			turnsProcessed.WithLabelValues("cancelled").Inc()
			return replyCancelled, nil
		}
	}

	cls, err := r.classifier.Classify(ctx, text)
	if err != nil {
		turnsProcessed.WithLabelValues("error").Inc()
		return "", err
	}
	if cls.IsIssue {
		if repo, ok := r.registry.Resolve(cls.TargetName); ok {
			r.proposals.Put(userID, confirm.Proposal{
				TargetName:  cls.TargetName,
				Repository:  repo,
				Title:       cls.Title,
				Body:        cls.Body,
				Instruction: cls.Instruction,
			})
			log.With("target", cls.TargetName).With("repo", repo).Info("Proposal pending confirmation")
			turnsProcessed.WithLabelValues("proposed").Inc()
			return cls.ConfirmMessage, nil
		}
		// Unrecognized target: no proposal, ordinary handling.
		log.With("target", cls.TargetName).Info("Classifier target not in registry, falling through")
	}

	return r.answer(ctx, text)
}

// commit files the pending issue. The proposal is deleted before filing so
// that a failure cannot be retried by repeating "yes".
func (r *Router) commit(ctx context.Context, userID string, proposal confirm.Proposal) (string, error) {
	r.proposals.Delete(userID)

	url, err := r.filer.FileIssue(ctx, proposal.Repository, proposal.Title, proposal.Body)
	if err != nil {
		clog.FromContext(ctx).With("repo", proposal.Repository).With("error", err).Error("Issue filing failed")
		issuesFiled.WithLabelValues("failure").Inc()
		turnsProcessed.WithLabelValues("confirmed").Inc()
		return fmt.Sprintf(replyFileErrorFmt, err), nil
	}

	issuesFiled.WithLabelValues("success").Inc()
	turnsProcessed.WithLabelValues("confirmed").Inc()

	reply := fmt.Sprintf(replyFiledFmt, url)
	if proposal.Instruction != "" {
		reply += "\n\n" + proposal.Instruction
	}
	return reply, nil
}

// answer runs the agent loop with a fresh document snapshot rendered into
// the prompt. A snapshot or model failure aborts the turn.
func (r *Router) answer(ctx context.Context, text string) (string, error) {
	snapshot, err := r.doc.Snapshot(ctx)
	if err != nil {
		turnsProcessed.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetching document snapshot: %w", err)
	}

	prompt := fmt.Sprintf("共有ドキュメントの現在の内容:\n%s\n\nユーザーからのメッセージ:\n%s",
		notiondoc.Format(snapshot), text)

	reply, err := r.loop.Run(ctx, prompt, r.tools)
	if err != nil {
		turnsProcessed.WithLabelValues("error").Inc()
		return "", err
	}
	turnsProcessed.WithLabelValues("answered").Inc()
	return reply, nil
}
