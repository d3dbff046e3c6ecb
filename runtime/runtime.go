// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime serializes marketplace operations over the shared
// world state. Every mutation runs to completion under one mutex inside
// a state checkpoint: on success the journal is committed to the
// backing store, on any failure the checkpoint is rolled back so no
// partial write is ever visible. Reads go through the same mutex and
// observe the latest completed write.
package runtime

import (
	"math/big"
	"sync"
	"time"

	"github.com/workmesh/workmesh/builtin"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/kv"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/metrics"
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "runtime")

var metricOps = metrics.LazyLoadCounterVec("runtime_operation_count", []string{"op", "status"})

// Clock supplies the external time every deadline is compared against.
// It must be monotonically non-decreasing.
type Clock func() uint64

// Runtime is the serialized dispatcher over one marketplace instance.
type Runtime struct {
	mu    sync.Mutex
	db    kv.GetPutter
	state *state.State
	mkt   *builtin.Marketplace
	clock Clock
}

// New creates a runtime over the given store. The marketplace is wired
// over a fresh state view of db; a nil clock defaults to wall-clock
// unix seconds.
func New(db kv.GetPutter, admin workmesh.Address, sink events.Sink, clock Clock) *Runtime {
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	st := state.New(db)
	return &Runtime{
		db:    db,
		state: st,
		mkt:   builtin.New(st, admin, sink),
		clock: clock,
	}
}

// Marketplace exposes the wired components for read-only use. Callers
// must not mutate through it; mutations go through Execute or the typed
// operations so the checkpoint discipline holds.
func (r *Runtime) Marketplace() *builtin.Marketplace {
	return r.mkt
}

// Now returns the dispatcher's current external time.
func (r *Runtime) Now() uint64 {
	return r.clock()
}

// Execute runs one mutating operation atomically: checkpoint, run,
// commit on success, revert on failure.
func (r *Runtime) Execute(op string, fn func(m *builtin.Marketplace, now uint64) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	checkpoint := r.state.NewCheckpoint()
	if err := fn(r.mkt, r.clock()); err != nil {
		r.state.RevertTo(checkpoint)
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "reverted"})
		logger.Debug("operation reverted", "op", op, "err", err)
		return err
	}
	if err := r.state.Commit(); err != nil {
		r.state.RevertTo(checkpoint)
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "failed"})
		logger.Error("commit failed", "op", op, "err", err)
		return err
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "ok"})
	return nil
}

// Read runs a read-only query under the dispatcher lock so it observes
// a consistent view.
func (r *Runtime) Read(fn func(m *builtin.Marketplace) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.mkt)
}

// Typed operations. Each is one serialized atomic step.

// Credit mints tokens onto an account. Reserved for genesis allocation.
func (r *Runtime) Credit(to workmesh.Address, amount *big.Int) error {
	return r.Execute("credit", func(m *builtin.Marketplace, _ uint64) error {
		return m.Ledger.Credit(to, amount)
	})
}

func (r *Runtime) Approve(caller workmesh.Address, amount *big.Int) error {
	return r.Execute("approve", func(m *builtin.Marketplace, _ uint64) error {
		return m.Ledger.Approve(caller, amount)
	})
}

func (r *Runtime) Deposit(caller workmesh.Address, amount *big.Int) error {
	return r.Execute("deposit", func(m *builtin.Marketplace, _ uint64) error {
		return m.Ledger.Deposit(caller, amount)
	})
}

func (r *Runtime) Withdraw(caller workmesh.Address, amount *big.Int) error {
	return r.Execute("withdraw", func(m *builtin.Marketplace, _ uint64) error {
		return m.Ledger.Withdraw(caller, amount)
	})
}

func (r *Runtime) CreateJob(caller workmesh.Address, stakeAmount *big.Int) (id uint64, err error) {
	err = r.Execute("createJob", func(m *builtin.Marketplace, now uint64) error {
		id, err = m.Jobs.CreateJob(caller, now, stakeAmount)
		return err
	})
	return
}

func (r *Runtime) CommitJob(caller workmesh.Address, jobID uint64, hash workmesh.Bytes32) error {
	return r.Execute("commitJob", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.CommitJob(caller, now, jobID, hash)
	})
}

func (r *Runtime) RevealJob(caller workmesh.Address, jobID uint64, secret []byte) error {
	return r.Execute("revealJob", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.RevealJob(caller, now, jobID, secret)
	})
}

func (r *Runtime) FinalizeJob(caller workmesh.Address, jobID uint64, success bool) error {
	return r.Execute("finalizeJob", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.FinalizeJob(caller, now, jobID, success)
	})
}

func (r *Runtime) RaiseDispute(caller workmesh.Address, jobID uint64) error {
	return r.Execute("raiseDispute", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.RaiseDispute(caller, now, jobID)
	})
}

func (r *Runtime) ResolveDispute(caller workmesh.Address, jobID uint64, slashWorker bool, slashAmount, reputationDelta *big.Int) error {
	return r.Execute("resolveDispute", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.ResolveDispute(caller, now, jobID, slashWorker, slashAmount, reputationDelta)
	})
}

func (r *Runtime) ExtendJobDeadlines(caller workmesh.Address, jobID uint64, commitExt, revealExt, disputeExt uint64) error {
	return r.Execute("extendJobDeadlines", func(m *builtin.Marketplace, _ uint64) error {
		return m.Jobs.ExtendJobDeadlines(caller, jobID, commitExt, revealExt, disputeExt)
	})
}

func (r *Runtime) TimeoutJob(caller workmesh.Address, jobID uint64, slashAmount *big.Int) error {
	return r.Execute("timeoutJob", func(m *builtin.Marketplace, now uint64) error {
		return m.Jobs.TimeoutJob(caller, now, jobID, slashAmount)
	})
}

func (r *Runtime) CommitVote(jobID uint64, validator workmesh.Address, hash workmesh.Bytes32) error {
	return r.Execute("commitVote", func(m *builtin.Marketplace, _ uint64) error {
		return m.Voting.Commit(jobID, validator, hash)
	})
}

func (r *Runtime) RevealVote(jobID uint64, validator workmesh.Address, approved bool, salt workmesh.Bytes32) error {
	return r.Execute("revealVote", func(m *builtin.Marketplace, _ uint64) error {
		return m.Voting.Reveal(jobID, validator, approved, salt)
	})
}
