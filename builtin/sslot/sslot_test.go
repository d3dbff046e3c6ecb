// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/workmesh/workmesh/lvldb"
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

func newTestContext() *Context {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	return NewContext(workmesh.BytesToAddress([]byte("test")), st)
}

type entry struct {
	Amount *big.Int
	Flag   bool
}

func TestMapping(t *testing.T) {
	sctx := newTestContext()
	m := NewMapping[workmesh.Address, entry](sctx, workmesh.BytesToBytes32([]byte("entries")))

	key := workmesh.BytesToAddress([]byte("k1"))

	// empty read yields zero value
	got, err := m.Get(key)
	assert.NoError(t, err)
	assert.False(t, got.Flag)

	want := entry{Amount: big.NewInt(42), Flag: true}
	assert.NoError(t, m.Set(key, want))

	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	// entries under different keys don't collide
	other, err := m.Get(workmesh.BytesToAddress([]byte("k2")))
	assert.NoError(t, err)
	assert.Nil(t, other.Amount)
}

func TestMappingPointerValue(t *testing.T) {
	sctx := newTestContext()
	m := NewMapping[workmesh.Bytes32, *big.Int](sctx, workmesh.BytesToBytes32([]byte("amounts")))

	key := workmesh.BytesToBytes32([]byte("k"))
	got, err := m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, new(big.Int), got)

	assert.NoError(t, m.Set(key, big.NewInt(7)))
	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(7), got)
}

func TestUint256(t *testing.T) {
	sctx := newTestContext()
	u := NewUint256(sctx, workmesh.BytesToBytes32([]byte("total")))

	v, err := u.Get()
	assert.NoError(t, err)
	assert.Equal(t, new(big.Int), v)

	u.Set(big.NewInt(100))
	assert.NoError(t, u.Add(big.NewInt(11)))
	assert.NoError(t, u.Sub(big.NewInt(1)))

	v, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(110), v)
}

func TestUint64Counter(t *testing.T) {
	sctx := newTestContext()
	c := NewUint64(sctx, workmesh.BytesToBytes32([]byte("seq")))

	next, err := c.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	next, err = c.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestAddressSlot(t *testing.T) {
	sctx := newTestContext()
	a := NewAddress(sctx, workmesh.BytesToBytes32([]byte("admin")))

	got, err := a.Get()
	assert.NoError(t, err)
	assert.True(t, got.IsZero())

	addr := workmesh.BytesToAddress([]byte("boss"))
	a.Set(&addr)
	got, err = a.Get()
	assert.NoError(t, err)
	assert.Equal(t, addr, got)
}
