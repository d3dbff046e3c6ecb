// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/lvldb"
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

type memFeeSink struct {
	received *big.Int
}

func (s *memFeeSink) Receive(amount *big.Int) error {
	s.received.Add(s.received, amount)
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *memFeeSink, *events.MemSink) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	feeSink := &memFeeSink{received: new(big.Int)}
	sink := events.NewMemSink()
	l := New(sslot.NewContext(workmesh.LedgerAddress, st), feeSink, sink)
	return l, feeSink, sink
}

func bigN(n int64) *big.Int { return big.NewInt(n) }

func fund(t *testing.T, l *Ledger, addr workmesh.Address, amount int64) {
	require.NoError(t, l.Credit(addr, bigN(amount)))
	require.NoError(t, l.Approve(addr, bigN(amount)))
	require.NoError(t, l.Deposit(addr, bigN(amount)))
}

func TestDepositWithdraw(t *testing.T) {
	l, _, sink := newTestLedger(t)
	alice := workmesh.BytesToAddress([]byte("alice"))

	acc, err := l.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())

	// deposit without allowance
	assert.ErrorIs(t, l.Deposit(alice, bigN(100)), ErrInsufficientAllowance)

	// allowance alone is not enough, the tokens must be there too
	require.NoError(t, l.Approve(alice, bigN(150)))
	assert.ErrorIs(t, l.Deposit(alice, bigN(100)), ErrInsufficientBalance)

	require.NoError(t, l.Credit(alice, bigN(120)))
	require.NoError(t, l.Deposit(alice, bigN(100)))

	allowance, err := l.Allowance(alice)
	require.NoError(t, err)
	assert.Equal(t, bigN(50), allowance)

	balance, err := l.TokenBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, bigN(20), balance)

	acc, err = l.GetAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, bigN(100), acc.TotalDeposited)
	assert.Equal(t, bigN(100), acc.Available())

	total, err := l.TotalDeposited()
	require.NoError(t, err)
	assert.Equal(t, bigN(100), total)

	assert.ErrorIs(t, l.Withdraw(alice, bigN(101)), ErrInsufficientBalance)
	require.NoError(t, l.Withdraw(alice, bigN(40)))

	acc, err = l.GetAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, bigN(60), acc.TotalDeposited)

	// withdrawn stake shows up back on the token balance
	balance, err = l.TokenBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, bigN(60), balance)

	evs := sink.All()
	require.Len(t, evs, 3)
	assert.Equal(t, events.LedgerEvent{Op: events.OpCredit, Account: alice, Amount: bigN(120)}, evs[0])
	assert.Equal(t, events.LedgerEvent{Op: events.OpDeposit, Account: alice, Amount: bigN(100)}, evs[1])
	assert.Equal(t, events.LedgerEvent{Op: events.OpWithdraw, Account: alice, Amount: bigN(40)}, evs[2])
}

func TestInvalidAmounts(t *testing.T) {
	l, _, _ := newTestLedger(t)
	alice := workmesh.BytesToAddress([]byte("alice"))

	assert.ErrorIs(t, l.Deposit(alice, bigN(0)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Deposit(alice, bigN(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Withdraw(alice, bigN(0)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Lock(alice, bigN(0)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Approve(alice, bigN(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Credit(alice, bigN(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Release(alice, bigN(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, l.Slash(alice, bigN(-1)), ErrInvalidAmount)
}

func TestLockReleaseSlash(t *testing.T) {
	l, feeSink, _ := newTestLedger(t)
	worker := workmesh.BytesToAddress([]byte("worker"))
	fund(t, l, worker, 100)

	assert.ErrorIs(t, l.Lock(worker, bigN(101)), ErrExceedsAvailable)
	require.NoError(t, l.Lock(worker, bigN(80)))

	acc, err := l.GetAccount(worker)
	require.NoError(t, err)
	assert.Equal(t, bigN(80), acc.Locked)
	assert.Equal(t, bigN(20), acc.Available())

	// locked stake is not withdrawable
	assert.ErrorIs(t, l.Withdraw(worker, bigN(30)), ErrInsufficientBalance)

	assert.ErrorIs(t, l.Release(worker, bigN(81)), ErrExceedsLocked)
	require.NoError(t, l.Release(worker, bigN(30)))

	assert.ErrorIs(t, l.Slash(worker, bigN(51)), ErrExceedsLocked)
	require.NoError(t, l.Slash(worker, bigN(50)))

	acc, err = l.GetAccount(worker)
	require.NoError(t, err)
	assert.Equal(t, bigN(0), acc.Locked)
	assert.Equal(t, bigN(50), acc.TotalDeposited)
	assert.Equal(t, bigN(50), feeSink.received)

	totalLocked, err := l.TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, bigN(0), totalLocked)

	total, err := l.TotalDeposited()
	require.NoError(t, err)
	assert.Equal(t, bigN(50), total)
}

func TestSettle(t *testing.T) {
	l, feeSink, sink := newTestLedger(t)
	worker := workmesh.BytesToAddress([]byte("worker"))
	fund(t, l, worker, 100)
	require.NoError(t, l.Lock(worker, bigN(100)))
	sink.Reset()

	assert.ErrorIs(t, l.Settle(worker, bigN(0), bigN(0)), ErrNothingToSettle)
	assert.ErrorIs(t, l.Settle(worker, bigN(60), bigN(50)), ErrExceedsLocked)

	require.NoError(t, l.Settle(worker, bigN(90), bigN(10)))

	acc, err := l.GetAccount(worker)
	require.NoError(t, err)
	assert.Equal(t, bigN(0), acc.Locked)
	assert.Equal(t, bigN(90), acc.TotalDeposited)
	assert.Equal(t, bigN(90), acc.Available())
	assert.Equal(t, bigN(10), feeSink.received)

	evs := sink.All()
	require.Len(t, evs, 2)
	assert.Equal(t, events.OpRelease, evs[0].(events.LedgerEvent).Op)
	assert.Equal(t, events.OpSlash, evs[1].(events.LedgerEvent).Op)

	// release-only and slash-only settlements
	require.NoError(t, l.Lock(worker, bigN(20)))
	require.NoError(t, l.Settle(worker, bigN(20), bigN(0)))
	require.NoError(t, l.Lock(worker, bigN(20)))
	require.NoError(t, l.Settle(worker, bigN(0), bigN(20)))

	acc, err = l.GetAccount(worker)
	require.NoError(t, err)
	assert.Equal(t, bigN(70), acc.TotalDeposited)
	assert.Equal(t, bigN(0), acc.Locked)
}

func TestLedgerPersistence(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	st := state.New(db)
	l := New(sslot.NewContext(workmesh.LedgerAddress, st), &memFeeSink{received: new(big.Int)}, events.NoopSink{})
	fund(t, l, workmesh.BytesToAddress([]byte("alice")), 42)
	require.NoError(t, st.Commit())

	// a fresh state over the same db sees the committed account
	st = state.New(db)
	l = New(sslot.NewContext(workmesh.LedgerAddress, st), &memFeeSink{received: new(big.Int)}, events.NoopSink{})
	acc, err := l.GetAccount(workmesh.BytesToAddress([]byte("alice")))
	require.NoError(t, err)
	assert.Equal(t, bigN(42), acc.TotalDeposited)
}
