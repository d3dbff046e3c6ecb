// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/workmesh/workmesh/builtin/reverts"
)

var (
	// ErrInvalidAmount is returned when an operation is asked to move a zero
	// or negative amount.
	ErrInvalidAmount = reverts.New("ledger: invalid amount")

	// ErrInsufficientAllowance is returned by Deposit when the owner has not
	// approved enough for the ledger to pull.
	ErrInsufficientAllowance = reverts.New("ledger: insufficient allowance")

	// ErrInsufficientBalance is returned by Deposit when the owner's token
	// balance cannot cover the pull, and by Withdraw when the available
	// balance cannot cover the requested amount.
	ErrInsufficientBalance = reverts.New("ledger: insufficient balance")

	// ErrExceedsAvailable is returned by Lock when the amount exceeds the
	// account's available balance.
	ErrExceedsAvailable = reverts.New("ledger: lock exceeds available balance")

	// ErrExceedsLocked is returned by Release, Slash and Settle when the
	// amount exceeds the account's locked balance.
	ErrExceedsLocked = reverts.New("ledger: amount exceeds locked balance")

	// ErrNothingToSettle is returned by Settle when both parts are zero.
	ErrNothingToSettle = reverts.New("ledger: nothing to settle")
)
