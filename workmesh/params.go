// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package workmesh

// Constants of the marketplace protocol.
const (
	// BpsDenominator full scale of basis-point ratios (fee, slash cap, approval threshold).
	BpsDenominator uint64 = 10_000

	// FirstJobID job ids are assigned sequentially starting here.
	FirstJobID uint64 = 1
)

// Well-known addresses of the builtin marketplace components.
var (
	LedgerAddress  = BytesToAddress([]byte("wm-ledger"))
	JobsAddress    = BytesToAddress([]byte("wm-jobs"))
	VotingAddress  = BytesToAddress([]byte("wm-voting"))
	RosterAddress  = BytesToAddress([]byte("wm-roster"))
	AccrualAddress = BytesToAddress([]byte("wm-accrual"))
	CertsAddress   = BytesToAddress([]byte("wm-certs"))
)
