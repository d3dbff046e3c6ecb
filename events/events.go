// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events carries the notifications emitted by the marketplace
// builtins. Sinks receive every event synchronously within the emitting
// operation; a sink must never fail and must not call back into the core.
package events

import (
	"math/big"
	"sync"

	"github.com/workmesh/workmesh/workmesh"
)

// LedgerOp names a stake ledger mutation.
type LedgerOp string

const (
	OpCredit   LedgerOp = "credit"
	OpDeposit  LedgerOp = "deposit"
	OpWithdraw LedgerOp = "withdraw"
	OpLock     LedgerOp = "lock"
	OpRelease  LedgerOp = "release"
	OpSlash    LedgerOp = "slash"
)

// LedgerEvent notifies a stake ledger mutation with the affected
// account and the moved amount.
type LedgerEvent struct {
	Op      LedgerOp
	Account workmesh.Address
	Amount  *big.Int
}

// JobEvent notifies a job lifecycle transition.
type JobEvent struct {
	JobID uint64
	From  string
	To    string
}

// VoteEvent notifies a ballot commit or reveal.
type VoteEvent struct {
	JobID     uint64
	Validator workmesh.Address
	Revealed  bool
}

// Event is any of the notification types above.
type Event any

// Sink consumes events.
type Sink interface {
	Post(Event)
}

// NoopSink drops everything.
type NoopSink struct{}

func (NoopSink) Post(Event) {}

// MemSink buffers events in memory, newest last.
type MemSink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemSink() *MemSink {
	return &MemSink{}
}

func (s *MemSink) Post(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// All returns a copy of buffered events.
func (s *MemSink) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Reset drops buffered events.
func (s *MemSink) Reset() {
	s.mu.Lock()
	s.events = s.events[:0]
	s.mu.Unlock()
}
