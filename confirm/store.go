/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package confirm holds the per-user pending-proposal state machine that
// gates issue filing on an explicit yes/no follow-up.
package confirm

import (
	"sync"
	"time"
)

// DefaultTTL is how long a proposal stays confirmable.
const DefaultTTL = 5 * time.Minute

// Proposal is one outstanding issue-creation request awaiting confirmation.
type Proposal struct {
	TargetName  string
	Repository  string
	Title       string
	Body        string
	Instruction string
	ExpiresAt   time.Time
}

// Store holds at most one Proposal per user. Expiry is checked on read: an
// expired proposal is treated as absent and removed. Nothing is persisted
// beyond process memory.
type Store interface {
	// Get returns the live proposal for the user, if any.
	Get(userID string) (Proposal, bool)
	// Put stores a proposal for the user, stamping its expiry and silently
	// replacing any prior one.
	Put(userID string, p Proposal)
	// Delete removes the user's proposal, if any.
	Delete(userID string)
}

// MemoryStore is the in-process Store. Webhook events are dispatched on
// concurrent goroutines, so access is serialized with a mutex.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]Proposal
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore creates a store whose proposals expire ttl after Put.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		m:   make(map[string]Proposal),
		ttl: ttl,
		now: time.Now,
	}
}

// Get implements Store, deleting and reporting absent any expired proposal.
func (s *MemoryStore) Get(userID string) (Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[userID]
	if !ok {
		return Proposal{}, false
	}
	if s.now().After(p.ExpiresAt) {
		delete(s.m, userID)
		return Proposal{}, false
	}
	return p, true
}

// Put implements Store.
func (s *MemoryStore) Put(userID string, p Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ExpiresAt = s.now().Add(s.ttl)
	s.m[userID] = p
}

// Delete implements Store.
func (s *MemoryStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
