// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual implements two small collaborators backed by state
// counters: the fee sink that accumulates slashed stake and protocol
// fees, and the additive per-account reputation counter adjusted on
// dispute resolution.
package accrual

import (
	"math/big"

	"github.com/workmesh/workmesh/builtin/reverts"
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "accrual")

var (
	slotTotalAccrued = workmesh.BytesToBytes32([]byte("total-accrued"))
	slotTotalBurned  = workmesh.BytesToBytes32([]byte("total-burned"))
	slotReputations  = workmesh.BytesToBytes32([]byte("reputations"))
)

var (
	ErrNotAdmin        = reverts.New("accrual: caller is not the administrator")
	ErrInvalidAmount   = reverts.New("accrual: invalid amount")
	ErrExceedsAccrued  = reverts.New("accrual: burn exceeds accrued balance")
	ErrInvalidReceiver = reverts.New("accrual: negative amount received")
)

// FeeSink accumulates fees and slashed stake. Accrued funds can only
// leave by burning.
type FeeSink struct {
	totalAccrued *sslot.Uint256
	totalBurned  *sslot.Uint256
	admin        workmesh.Address
}

func NewFeeSink(context *sslot.Context, admin workmesh.Address) *FeeSink {
	return &FeeSink{
		totalAccrued: sslot.NewUint256(context, slotTotalAccrued),
		totalBurned:  sslot.NewUint256(context, slotTotalBurned),
		admin:        admin,
	}
}

// Receive adds the amount to the accrued total.
func (f *FeeSink) Receive(amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidReceiver
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := f.totalAccrued.Add(amount); err != nil {
		return err
	}
	logger.Debug("fee accrued", "amount", amount)
	return nil
}

// Burn permanently removes accrued funds. Administrator only.
func (f *FeeSink) Burn(caller workmesh.Address, amount *big.Int) error {
	if caller != f.admin {
		return ErrNotAdmin
	}
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	accrued, err := f.totalAccrued.Get()
	if err != nil {
		return err
	}
	if accrued.Cmp(amount) < 0 {
		return ErrExceedsAccrued
	}
	if err := f.totalAccrued.Sub(amount); err != nil {
		return err
	}
	if err := f.totalBurned.Add(amount); err != nil {
		return err
	}
	logger.Info("fees burned", "amount", amount)
	return nil
}

// TotalAccrued returns the current accrued balance.
func (f *FeeSink) TotalAccrued() (*big.Int, error) {
	return f.totalAccrued.Get()
}

// TotalBurned returns the sum of all burns so far.
func (f *FeeSink) TotalBurned() (*big.Int, error) {
	return f.totalBurned.Get()
}

// repValue stores a signed counter as sign plus magnitude, since the
// storage codec cannot carry signed integers.
type repValue struct {
	Neg bool
	Abs *big.Int
}

func (r *repValue) toBig() *big.Int {
	if r.Abs == nil {
		return new(big.Int)
	}
	value := new(big.Int).Set(r.Abs)
	if r.Neg {
		value.Neg(value)
	}
	return value
}

// Reputation is the additive per-account counter.
type Reputation struct {
	reputations *sslot.Mapping[workmesh.Address, *repValue]
}

func NewReputation(context *sslot.Context) *Reputation {
	return &Reputation{
		reputations: sslot.NewMapping[workmesh.Address, *repValue](context, slotReputations),
	}
}

// Adjust adds delta, which may be negative, to the account's counter.
func (r *Reputation) Adjust(account workmesh.Address, delta *big.Int) error {
	current, err := r.Get(account)
	if err != nil {
		return err
	}
	current.Add(current, delta)
	logger.Debug("reputation adjusted", "account", account, "delta", delta, "now", current)
	return r.reputations.Set(account, &repValue{
		Neg: current.Sign() < 0,
		Abs: new(big.Int).Abs(current),
	})
}

// Get returns the account's current counter. Unknown accounts read zero.
func (r *Reputation) Get(account workmesh.Address) (*big.Int, error) {
	value, err := r.reputations.Get(account)
	if err != nil {
		return nil, err
	}
	return value.toBig(), nil
}
