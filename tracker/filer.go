/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package tracker files work items in the external issue tracker.
package tracker

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Filer creates issues under one fixed organization.
type Filer struct {
	gh  *github.Client
	org string
}

// New creates a Filer authenticated with a bearer token.
func New(ctx context.Context, token, org string) *Filer {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Filer{
		gh:  github.NewClient(oauth2.NewClient(ctx, ts)),
		org: org,
	}
}

// NewWithClient creates a Filer around an existing GitHub client.
func NewWithClient(gh *github.Client, org string) *Filer {
	return &Filer{gh: gh, org: org}
}

// FileIssue creates one issue in the given repository and returns its
// browser URL. A non-2xx tracker response surfaces as an error carrying the
// response detail.
func (f *Filer) FileIssue(ctx context.Context, repo, title, body string) (string, error) {
	issue, _, err := f.gh.Issues.Create(ctx, f.org, repo, &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("creating issue in %s/%s: %w", f.org, repo, err)
	}

	clog.FromContext(ctx).With("repo", repo).
		With("issue", issue.GetNumber()).
		Info("Filed issue")
	return issue.GetHTMLURL(), nil
}
