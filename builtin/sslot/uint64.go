// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"math/big"

	"github.com/workmesh/workmesh/workmesh"
)

// Uint64 is a wrapper for storage and retrieval of an uint64 counter.
type Uint64 struct {
	inner *Uint256
}

func NewUint64(context *Context, slot workmesh.Bytes32) *Uint64 {
	return &Uint64{inner: NewUint256(context, slot)}
}

func (u *Uint64) Get() (uint64, error) {
	value, err := u.inner.Get()
	if err != nil {
		return 0, err
	}
	return value.Uint64(), nil
}

func (u *Uint64) Set(value uint64) {
	u.inner.Set(new(big.Int).SetUint64(value))
}

// Next increments the counter and returns the new value.
func (u *Uint64) Next() (uint64, error) {
	value, err := u.Get()
	if err != nil {
		return 0, err
	}
	value++
	u.Set(value)
	return value, nil
}
