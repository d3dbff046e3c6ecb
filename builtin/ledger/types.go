// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
)

// Account keeps the escrow bookkeeping of a single account.
// Invariant: Locked never exceeds TotalDeposited.
type Account struct {
	TotalDeposited *big.Int
	Locked         *big.Int
}

func (a *Account) normalize() {
	if a.TotalDeposited == nil {
		a.TotalDeposited = new(big.Int)
	}
	if a.Locked == nil {
		a.Locked = new(big.Int)
	}
}

// Available returns the portion of the deposit not locked behind a job.
func (a *Account) Available() *big.Int {
	return new(big.Int).Sub(a.TotalDeposited, a.Locked)
}

// IsEmpty returns true if the account holds nothing.
func (a *Account) IsEmpty() bool {
	return a.TotalDeposited.Sign() == 0 && a.Locked.Sign() == 0
}
