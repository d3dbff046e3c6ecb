// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the stake escrow of the marketplace. Each
// account carries a total deposit and a locked portion; jobs lock stake
// while they run and release or slash it when they finish. Slashed stake
// is routed to the configured fee sink.
package ledger

import (
	"math/big"

	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "ledger")

var (
	slotAccounts       = workmesh.BytesToBytes32([]byte("accounts"))
	slotAllowances     = workmesh.BytesToBytes32([]byte("allowances"))
	slotTotalDeposited = workmesh.BytesToBytes32([]byte("total-deposited"))
	slotTotalLocked    = workmesh.BytesToBytes32([]byte("total-locked"))
)

// FeeSink receives stake removed from the ledger by slashing.
type FeeSink interface {
	Receive(amount *big.Int) error
}

// Ledger is the stake escrow service bound to its storage context.
type Ledger struct {
	state          *state.State
	accounts       *sslot.Mapping[workmesh.Address, *Account]
	allowances     *sslot.Mapping[workmesh.Address, *big.Int]
	totalDeposited *sslot.Uint256
	totalLocked    *sslot.Uint256
	feeSink        FeeSink
	sink           events.Sink
}

// New creates a ledger over the given storage context.
func New(context *sslot.Context, feeSink FeeSink, sink events.Sink) *Ledger {
	return &Ledger{
		state:          context.State(),
		accounts:       sslot.NewMapping[workmesh.Address, *Account](context, slotAccounts),
		allowances:     sslot.NewMapping[workmesh.Address, *big.Int](context, slotAllowances),
		totalDeposited: sslot.NewUint256(context, slotTotalDeposited),
		totalLocked:    sslot.NewUint256(context, slotTotalLocked),
		feeSink:        feeSink,
		sink:           sink,
	}
}

func (l *Ledger) getAccount(addr workmesh.Address) (*Account, error) {
	acc, err := l.accounts.Get(addr)
	if err != nil {
		return nil, err
	}
	acc.normalize()
	return acc, nil
}

// GetAccount returns the escrow bookkeeping of an account. Unknown
// accounts read as zero.
func (l *Ledger) GetAccount(addr workmesh.Address) (*Account, error) {
	return l.getAccount(addr)
}

// Allowance returns how much the ledger may still pull from the owner.
func (l *Ledger) Allowance(owner workmesh.Address) (*big.Int, error) {
	allowance, err := l.allowances.Get(owner)
	if err != nil {
		return nil, err
	}
	if allowance == nil {
		return new(big.Int), nil
	}
	return allowance, nil
}

// TotalDeposited returns the sum of all deposits currently in escrow.
func (l *Ledger) TotalDeposited() (*big.Int, error) {
	return l.totalDeposited.Get()
}

// TotalLocked returns the sum of all currently locked stake.
func (l *Ledger) TotalLocked() (*big.Int, error) {
	return l.totalLocked.Get()
}

// TokenBalance returns the owner's transferable token balance, outside
// of escrow.
func (l *Ledger) TokenBalance(owner workmesh.Address) (*big.Int, error) {
	return l.state.GetBalance(owner)
}

// Credit mints amount onto the owner's token balance. Only genesis
// allocation reaches this; transfers between accounts are not a ledger
// concern.
func (l *Ledger) Credit(owner workmesh.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := l.state.AddBalance(owner, amount); err != nil {
		return err
	}
	logger.Info("credited tokens", "owner", owner, "amount", amount)
	l.sink.Post(events.LedgerEvent{Op: events.OpCredit, Account: owner, Amount: new(big.Int).Set(amount)})
	return nil
}

// Approve sets the amount the ledger may pull from the owner on deposit.
func (l *Ledger) Approve(owner workmesh.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	logger.Debug("approving allowance", "owner", owner, "amount", amount)
	return l.allowances.Set(owner, amount)
}

// Deposit pulls amount from the owner's token balance into escrow,
// consuming allowance.
func (l *Ledger) Deposit(owner workmesh.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance, err := l.Allowance(owner)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	ok, err := l.state.SubBalance(owner, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	acc, err := l.getAccount(owner)
	if err != nil {
		return err
	}
	acc.TotalDeposited.Add(acc.TotalDeposited, amount)
	if err := l.accounts.Set(owner, acc); err != nil {
		return err
	}
	if err := l.allowances.Set(owner, new(big.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	if err := l.totalDeposited.Add(amount); err != nil {
		return err
	}
	logger.Info("deposited stake", "owner", owner, "amount", amount, "total", acc.TotalDeposited)
	l.sink.Post(events.LedgerEvent{Op: events.OpDeposit, Account: owner, Amount: new(big.Int).Set(amount)})
	return nil
}

// Withdraw moves amount of available stake out of escrow back onto the
// owner's token balance.
func (l *Ledger) Withdraw(owner workmesh.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.getAccount(owner)
	if err != nil {
		return err
	}
	if acc.Available().Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.TotalDeposited.Sub(acc.TotalDeposited, amount)
	if err := l.accounts.Set(owner, acc); err != nil {
		return err
	}
	if err := l.totalDeposited.Sub(amount); err != nil {
		return err
	}
	if err := l.state.AddBalance(owner, amount); err != nil {
		return err
	}
	logger.Info("withdrew stake", "owner", owner, "amount", amount, "total", acc.TotalDeposited)
	l.sink.Post(events.LedgerEvent{Op: events.OpWithdraw, Account: owner, Amount: new(big.Int).Set(amount)})
	return nil
}

// Lock moves amount of the account's available stake into the locked
// portion.
func (l *Ledger) Lock(account workmesh.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := l.getAccount(account)
	if err != nil {
		return err
	}
	if acc.Available().Cmp(amount) < 0 {
		return ErrExceedsAvailable
	}
	acc.Locked.Add(acc.Locked, amount)
	if err := l.accounts.Set(account, acc); err != nil {
		return err
	}
	if err := l.totalLocked.Add(amount); err != nil {
		return err
	}
	logger.Info("locked stake", "account", account, "amount", amount, "locked", acc.Locked)
	l.sink.Post(events.LedgerEvent{Op: events.OpLock, Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// Release moves amount of locked stake back to available.
func (l *Ledger) Release(account workmesh.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := l.getAccount(account)
	if err != nil {
		return err
	}
	if acc.Locked.Cmp(amount) < 0 {
		return ErrExceedsLocked
	}
	acc.Locked.Sub(acc.Locked, amount)
	if err := l.accounts.Set(account, acc); err != nil {
		return err
	}
	if err := l.totalLocked.Sub(amount); err != nil {
		return err
	}
	logger.Info("released stake", "account", account, "amount", amount, "locked", acc.Locked)
	l.sink.Post(events.LedgerEvent{Op: events.OpRelease, Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// Slash removes amount of locked stake from the account and routes it
// to the fee sink.
func (l *Ledger) Slash(account workmesh.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := l.getAccount(account)
	if err != nil {
		return err
	}
	if acc.Locked.Cmp(amount) < 0 {
		return ErrExceedsLocked
	}
	acc.Locked.Sub(acc.Locked, amount)
	acc.TotalDeposited.Sub(acc.TotalDeposited, amount)
	if err := l.accounts.Set(account, acc); err != nil {
		return err
	}
	if err := l.totalLocked.Sub(amount); err != nil {
		return err
	}
	if err := l.totalDeposited.Sub(amount); err != nil {
		return err
	}
	if err := l.feeSink.Receive(amount); err != nil {
		return err
	}
	logger.Info("slashed stake", "account", account, "amount", amount, "locked", acc.Locked)
	l.sink.Post(events.LedgerEvent{Op: events.OpSlash, Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// Settle releases and slashes parts of the account's locked stake in
// one step. Both parts together must be covered by the locked balance
// and at least one of them must be positive.
func (l *Ledger) Settle(account workmesh.Address, releaseAmount, slashAmount *big.Int) error {
	if releaseAmount.Sign() < 0 || slashAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if releaseAmount.Sign() == 0 && slashAmount.Sign() == 0 {
		return ErrNothingToSettle
	}
	acc, err := l.getAccount(account)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(releaseAmount, slashAmount)
	if acc.Locked.Cmp(total) < 0 {
		return ErrExceedsLocked
	}
	if err := l.Release(account, releaseAmount); err != nil {
		return err
	}
	return l.Slash(account, slashAmount)
}
