// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/workmesh/workmesh/kv"
	"github.com/workmesh/workmesh/stackedmap"
	"github.com/workmesh/workmesh/workmesh"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// State manages the world state of the marketplace.
// All mutations are journaled, so any operation can be wrapped in a
// checkpoint and reverted without partial writes becoming visible.
type State struct {
	db kv.GetPutter
	sm *stackedmap.StackedMap // keeps revisions of state
}

type (
	balanceKey workmesh.Address
	storageKey struct {
		addr workmesh.Address
		key  workmesh.Bytes32
	}
)

func (b balanceKey) dbKey() []byte {
	return append([]byte("b"), b[:]...)
}

func (s storageKey) dbKey() []byte {
	return append(append([]byte("s"), s.addr[:]...), s.key[:]...)
}

// New create state object.
func New(db kv.GetPutter) *State {
	state := State{db: db}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.dbGetter(key)
	})

	// initially has 1 stack depth
	state.sm.Push()
	return &state
}

// dbGetter implements stackedmap.MapGetter.
func (s *State) dbGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case balanceKey:
		data, err := s.db.Get(k.dbKey())
		if err != nil {
			if s.db.IsNotFound(err) {
				return &big.Int{}, true, nil
			}
			return nil, false, err
		}
		return new(big.Int).SetBytes(data), true, nil
	case storageKey:
		data, err := s.db.Get(k.dbKey())
		if err != nil {
			if s.db.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	}
	return nil, false, nil
}

// GetBalance returns token balance for the given address.
func (s *State) GetBalance(addr workmesh.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return v.(*big.Int), nil
}

// SetBalance set token balance for the given address.
func (s *State) SetBalance(addr workmesh.Address, balance *big.Int) {
	s.sm.Put(balanceKey(addr), balance)
}

// AddBalance add amount of token balance to the given address.
func (s *State) AddBalance(addr workmesh.Address, amount *big.Int) error {
	balance, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	if amount.Sign() != 0 {
		balance = new(big.Int).Add(balance, amount)
	}
	s.SetBalance(addr, balance)
	return nil
}

// SubBalance sub amount of token balance from the given address.
// False is returned if the balance is insufficient.
func (s *State) SubBalance(addr workmesh.Address, amount *big.Int) (bool, error) {
	balance, err := s.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if balance.Cmp(amount) < 0 {
		return false, nil
	}
	if amount.Sign() != 0 {
		balance = new(big.Int).Sub(balance, amount)
	}
	s.SetBalance(addr, balance)
	return true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr workmesh.Address, key workmesh.Bytes32) (workmesh.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return workmesh.Bytes32{}, err
	}
	if len(raw) == 0 {
		return workmesh.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return workmesh.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return workmesh.Blake2b(raw), nil
	}
	return workmesh.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr workmesh.Address, key, value workmesh.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr workmesh.Address, key workmesh.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr workmesh.Address, key workmesh.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr workmesh.Address, key workmesh.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr workmesh.Address, key workmesh.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit flushes journaled mutations into the backing kv store.
// On success the journal is collapsed, so checkpoints taken before the
// commit become invalid; committed values are re-read from the store.
func (s *State) Commit() error {
	batch := s.db.NewBatch()

	// the journal may contain several writes per key, the last one wins
	latest := make(map[any]any)
	s.sm.Journal(func(key, value any) bool {
		latest[key] = value
		return true
	})

	for key, value := range latest {
		switch k := key.(type) {
		case balanceKey:
			balance := value.(*big.Int)
			if balance.Sign() == 0 {
				if err := batch.Delete(k.dbKey()); err != nil {
					return &Error{err}
				}
			} else if err := batch.Put(k.dbKey(), balance.Bytes()); err != nil {
				return &Error{err}
			}
		case storageKey:
			raw := value.(rlp.RawValue)
			if len(raw) == 0 {
				if err := batch.Delete(k.dbKey()); err != nil {
					return &Error{err}
				}
			} else if err := batch.Put(k.dbKey(), raw); err != nil {
				return &Error{err}
			}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	// everything journaled is now in the store; drop the journal so
	// later commits do not replay it
	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
