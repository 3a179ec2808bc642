/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package relay routes each inbound chat message to exactly one of three
paths and produces exactly one reply.

A message from a user with a live pending proposal is first checked against
the yes/no matcher: an affirmative commits the proposal by filing the issue,
a negative cancels it, and anything else leaves the proposal untouched and
falls through. A fallthrough (or a message with no pending proposal) is run
through the intent classifier; an actionable result whose target resolves in
the registry becomes a new pending proposal and the reply is its
confirmation prompt. Everything else goes to the agent loop with a fresh
document snapshot rendered into the prompt.
*/
package relay
