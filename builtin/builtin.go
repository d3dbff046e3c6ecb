// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin wires the marketplace components over a shared world
// state. Each component persists under its own well-known address.
package builtin

import (
	"github.com/workmesh/workmesh/builtin/accrual"
	"github.com/workmesh/workmesh/builtin/certs"
	"github.com/workmesh/workmesh/builtin/jobs"
	"github.com/workmesh/workmesh/builtin/ledger"
	"github.com/workmesh/workmesh/builtin/roster"
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/builtin/voting"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

// Marketplace bundles the builtin components wired over one state.
type Marketplace struct {
	Ledger     *ledger.Ledger
	Voting     *voting.Voting
	Jobs       *jobs.Jobs
	Roster     *roster.Roster
	FeeSink    *accrual.FeeSink
	Reputation *accrual.Reputation
	Certs      *certs.Registry
}

// New wires the marketplace over the given state. The administrator
// account is fixed for the lifetime of the instance; the sink receives
// every notification the components emit.
func New(st *state.State, admin workmesh.Address, sink events.Sink) *Marketplace {
	feeSink := accrual.NewFeeSink(sslot.NewContext(workmesh.AccrualAddress, st), admin)
	reputation := accrual.NewReputation(sslot.NewContext(workmesh.AccrualAddress, st))
	certRegistry := certs.New(sslot.NewContext(workmesh.CertsAddress, st))
	emergencyRoster := roster.New(sslot.NewContext(workmesh.RosterAddress, st), admin)
	stakeLedger := ledger.New(sslot.NewContext(workmesh.LedgerAddress, st), feeSink, sink)
	ballotBox := voting.New(sslot.NewContext(workmesh.VotingAddress, st), sink)

	lifecycle := jobs.New(
		sslot.NewContext(workmesh.JobsAddress, st),
		admin,
		stakeLedger,
		emergencyRoster,
		reputation,
		certRegistry,
		ballotBox,
		sink,
	)
	// ballots are only accepted while the job still runs
	ballotBox.SetJobGate(lifecycle)

	return &Marketplace{
		Ledger:     stakeLedger,
		Voting:     ballotBox,
		Jobs:       lifecycle,
		Roster:     emergencyRoster,
		FeeSink:    feeSink,
		Reputation: reputation,
		Certs:      certRegistry,
	}
}
