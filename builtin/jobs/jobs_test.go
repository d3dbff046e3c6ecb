// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/workmesh/builtin/ledger"
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

type fakeIdentity struct {
	authorized map[workmesh.Address]bool
}

func (f *fakeIdentity) IsEmergencyAuthorized(account workmesh.Address) (bool, error) {
	return f.authorized[account], nil
}

type fakeReputation struct {
	deltas map[workmesh.Address]*big.Int
}

func (f *fakeReputation) Adjust(account workmesh.Address, delta *big.Int) error {
	if f.deltas[account] == nil {
		f.deltas[account] = new(big.Int)
	}
	f.deltas[account].Add(f.deltas[account], delta)
	return nil
}

type issuedCert struct {
	jobID  uint64
	worker workmesh.Address
}

type fakeCertificate struct {
	issued []issuedCert
}

func (f *fakeCertificate) Issue(jobID uint64, worker workmesh.Address) error {
	f.issued = append(f.issued, issuedCert{jobID, worker})
	return nil
}

type fakeTallies struct {
	approvals, rejections uint64
}

func (f *fakeTallies) Approvals(uint64) (uint64, error)  { return f.approvals, nil }
func (f *fakeTallies) Rejections(uint64) (uint64, error) { return f.rejections, nil }

type fixture struct {
	jobs    *Jobs
	ledger  *ledger.Ledger
	feeSink *memFeeSink

	identity    *fakeIdentity
	reputation  *fakeReputation
	certificate *fakeCertificate
	tallies     *fakeTallies

	admin  workmesh.Address
	client workmesh.Address
	worker workmesh.Address
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	f := &fixture{
		feeSink:     &memFeeSink{received: new(big.Int)},
		identity:    &fakeIdentity{authorized: map[workmesh.Address]bool{}},
		reputation:  &fakeReputation{deltas: map[workmesh.Address]*big.Int{}},
		certificate: &fakeCertificate{},
		tallies:     &fakeTallies{},
		admin:       workmesh.BytesToAddress([]byte("admin")),
		client:      workmesh.BytesToAddress([]byte("client")),
		worker:      workmesh.BytesToAddress([]byte("worker")),
	}
	f.ledger = ledger.New(sslot.NewContext(workmesh.LedgerAddress, st), f.feeSink, events.NoopSink{})
	f.jobs = New(
		sslot.NewContext(workmesh.JobsAddress, st),
		f.admin, f.ledger, f.identity, f.reputation, f.certificate, f.tallies,
		events.NoopSink{},
	)
	return f
}

func (f *fixture) configure(t *testing.T) {
	require.NoError(t, f.jobs.SetModules(f.admin, &Modules{
		Identity:    workmesh.BytesToAddress([]byte("m-identity")),
		FeeSink:     workmesh.BytesToAddress([]byte("m-feesink")),
		Reputation:  workmesh.BytesToAddress([]byte("m-reputation")),
		Certificate: workmesh.BytesToAddress([]byte("m-certificate")),
	}))
	require.NoError(t, f.jobs.SetTimings(f.admin, &Timings{
		CommitWindow:  100,
		RevealWindow:  100,
		DisputeWindow: 100,
	}))
	require.NoError(t, f.jobs.SetThresholds(f.admin, &Thresholds{
		ApprovalThresholdBps: 5000,
		QuorumMin:            1,
		QuorumMax:            11,
		FeeBps:               250,
		SlashBpsMax:          2000,
	}))
}

func (f *fixture) fund(t *testing.T, addr workmesh.Address, amount int64) {
	require.NoError(t, f.ledger.Credit(addr, big.NewInt(amount)))
	require.NoError(t, f.ledger.Approve(addr, big.NewInt(amount)))
	require.NoError(t, f.ledger.Deposit(addr, big.NewInt(amount)))
}

// createJob + commitJob + revealJob up to state Revealed, returns the id.
func (f *fixture) revealedJob(t *testing.T, stake int64) uint64 {
	secret := []byte("deliverable")
	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(stake))
	require.NoError(t, err)
	require.NoError(t, f.jobs.CommitJob(f.worker, 10, id, DeliverableHash(secret)))
	require.NoError(t, f.jobs.RevealJob(f.worker, 20, id, secret))
	return id
}

func TestConfigurationGateOrder(t *testing.T) {
	f := newFixture(t)

	expectSection := func(section string) {
		_, err := f.jobs.CreateJob(f.client, 0, big.NewInt(100))
		var notConfigured *NotConfiguredError
		require.ErrorAs(t, err, &notConfigured)
		assert.Equal(t, section, notConfigured.Section)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}

	expectSection(SectionModules)

	require.NoError(t, f.jobs.SetModules(f.admin, &Modules{
		Identity:    workmesh.BytesToAddress([]byte("a")),
		FeeSink:     workmesh.BytesToAddress([]byte("b")),
		Reputation:  workmesh.BytesToAddress([]byte("c")),
		Certificate: workmesh.BytesToAddress([]byte("d")),
	}))
	expectSection(SectionTimings)

	require.NoError(t, f.jobs.SetTimings(f.admin, &Timings{CommitWindow: 1, RevealWindow: 1, DisputeWindow: 1}))
	expectSection(SectionThresholds)

	require.NoError(t, f.jobs.SetThresholds(f.admin, &Thresholds{QuorumMin: 1, QuorumMax: 1}))
	_, err := f.jobs.CreateJob(f.client, 0, big.NewInt(100))
	require.NoError(t, err)

	readiness, err := f.jobs.GetReadiness()
	require.NoError(t, err)
	assert.True(t, readiness.FullyConfigured())
}

func TestConfigValidation(t *testing.T) {
	f := newFixture(t)

	// non-admin cannot configure
	assert.ErrorIs(t, f.jobs.SetTimings(f.client, &Timings{CommitWindow: 1, RevealWindow: 1, DisputeWindow: 1}), ErrNotAdmin)

	assert.ErrorIs(t, f.jobs.SetModules(f.admin, &Modules{}), ErrInvalidModules)
	assert.ErrorIs(t, f.jobs.SetTimings(f.admin, &Timings{CommitWindow: 1, RevealWindow: 0, DisputeWindow: 1}), ErrInvalidTimings)
	assert.ErrorIs(t, f.jobs.SetThresholds(f.admin, &Thresholds{QuorumMin: 0, QuorumMax: 1}), ErrInvalidThresholds)
	assert.ErrorIs(t, f.jobs.SetThresholds(f.admin, &Thresholds{QuorumMin: 2, QuorumMax: 1}), ErrInvalidThresholds)
	assert.ErrorIs(t, f.jobs.SetThresholds(f.admin, &Thresholds{QuorumMin: 1, QuorumMax: 1, FeeBps: 10_001}), ErrInvalidThresholds)

	// single-field updates need the section set first
	var notConfigured *NotConfiguredError
	err := f.jobs.UpdateTiming(f.admin, FieldCommitWindow, 5)
	require.ErrorAs(t, err, &notConfigured)
	assert.Equal(t, SectionTimings, notConfigured.Section)

	f.configure(t)

	require.NoError(t, f.jobs.UpdateTiming(f.admin, FieldCommitWindow, 5))
	timings, err := f.jobs.GetTimings()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), timings.CommitWindow)
	assert.Equal(t, uint64(100), timings.RevealWindow)

	assert.ErrorIs(t, f.jobs.UpdateTiming(f.admin, "bogus", 5), ErrUnknownField)
	assert.ErrorIs(t, f.jobs.UpdateTiming(f.admin, FieldRevealWindow, 0), ErrInvalidTimings)

	require.NoError(t, f.jobs.UpdateThreshold(f.admin, FieldFeeBps, 100))
	thresholds, err := f.jobs.GetThresholds()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), thresholds.FeeBps)

	newIdentity := workmesh.BytesToAddress([]byte("m-identity-2"))
	require.NoError(t, f.jobs.UpdateModule(f.admin, FieldIdentity, newIdentity))
	modules, err := f.jobs.GetModules()
	require.NoError(t, err)
	assert.Equal(t, newIdentity, modules.Identity)
	assert.ErrorIs(t, f.jobs.UpdateModule(f.admin, FieldFeeSink, workmesh.Address{}), ErrInvalidModules)
}

// Scenario: deposit 1000, stake 1000, feeBps 250 -> fee 25, worker
// withdraws 975 afterwards.
func TestHappyPathFinalize(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	id := f.revealedJob(t, 1000)

	job, err := f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, StateRevealed, job.State)
	assert.Equal(t, f.worker, job.Worker)
	assert.Equal(t, f.client, job.Client)

	acc, err := f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), acc.Locked)

	assert.ErrorIs(t, f.jobs.FinalizeJob(f.worker, 30, id, true), ErrNotAdmin)
	require.NoError(t, f.jobs.FinalizeJob(f.admin, 30, id, true))

	acc, err = f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), acc.Locked)
	assert.Equal(t, big.NewInt(975), acc.Available())
	assert.Equal(t, big.NewInt(25), f.feeSink.received)

	require.NoError(t, f.ledger.Withdraw(f.worker, big.NewInt(975)))

	job, err = f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, job.State)
	assert.True(t, job.Terminal())

	require.Len(t, f.certificate.issued, 1)
	assert.Equal(t, issuedCert{id, f.worker}, f.certificate.issued[0])
}

func TestFinalizeFailureReleasesFullStake(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	id := f.revealedJob(t, 1000)
	require.NoError(t, f.jobs.FinalizeJob(f.admin, 30, id, false))

	acc, err := f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), acc.Available())
	assert.Equal(t, big.NewInt(0), f.feeSink.received)
	assert.Empty(t, f.certificate.issued)
}

// Scenario: stake 1000, slashBpsMax 2000 -> cap 200; a slash of 1001
// exceeds both the stake and the cap.
func TestSlashBounds(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	id := f.revealedJob(t, 1000)
	require.NoError(t, f.jobs.RaiseDispute(f.client, 30, id))

	err := f.jobs.ResolveDispute(f.admin, 40, id, true, big.NewInt(1001), big.NewInt(0))
	assert.ErrorIs(t, err, ErrSlashBoundsExceeded)

	// within stake but beyond the bps cap
	err = f.jobs.ResolveDispute(f.admin, 40, id, true, big.NewInt(201), big.NewInt(0))
	assert.ErrorIs(t, err, ErrSlashBoundsExceeded)

	// slashAmount must be zero when the worker is not slashed
	err = f.jobs.ResolveDispute(f.admin, 40, id, false, big.NewInt(100), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, f.jobs.ResolveDispute(f.admin, 40, id, true, big.NewInt(200), big.NewInt(-1)))

	acc, err := f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(800), acc.Available())
	assert.Equal(t, big.NewInt(0), acc.Locked)
	assert.Equal(t, big.NewInt(200), f.feeSink.received)
	assert.Equal(t, big.NewInt(-1), f.reputation.deltas[f.worker])

	job, err := f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.True(t, job.Resolved)
	assert.True(t, job.Terminal())

	// resolution is terminal
	err = f.jobs.ResolveDispute(f.admin, 50, id, false, big.NewInt(0), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCommitDeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 200)

	hash := DeliverableHash([]byte("x"))

	// exactly at the deadline succeeds
	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, f.jobs.CommitJob(f.worker, 100, id, hash))

	// strictly after fails
	id, err = f.jobs.CreateJob(f.client, 0, big.NewInt(100))
	require.NoError(t, err)
	err = f.jobs.CommitJob(f.worker, 101, id, hash)
	var expired *WindowExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "commit", expired.Window)
	assert.ErrorIs(t, err, ErrWindowExpired)

	// the failed commit locked nothing
	acc, err := f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), acc.Locked)
}

func TestCommitTwiceFails(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 2000)

	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1000))
	require.NoError(t, err)
	hash := DeliverableHash([]byte("x"))
	require.NoError(t, f.jobs.CommitJob(f.worker, 10, id, hash))

	err = f.jobs.CommitJob(f.worker, 11, id, hash)
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, StateCreated, invalidState.Expected)
	assert.Equal(t, StateCommitted, invalidState.Actual)
}

func TestRevealChecks(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	secret := []byte("deliverable")
	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1000))
	require.NoError(t, err)
	require.NoError(t, f.jobs.CommitJob(f.worker, 10, id, DeliverableHash(secret)))

	assert.ErrorIs(t, f.jobs.RevealJob(f.client, 20, id, secret), ErrNotWorker)
	assert.ErrorIs(t, f.jobs.RevealJob(f.worker, 20, id, []byte("wrong")), ErrCommitMismatch)

	err = f.jobs.RevealJob(f.worker, 111, id, secret)
	var expired *WindowExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "reveal", expired.Window)

	require.NoError(t, f.jobs.RevealJob(f.worker, 110, id, secret))
}

func TestDisputeAuthorization(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	outsider := workmesh.BytesToAddress([]byte("outsider"))
	guardian := workmesh.BytesToAddress([]byte("guardian"))
	f.identity.authorized[guardian] = true

	id := f.revealedJob(t, 1000)

	err := f.jobs.RaiseDispute(outsider, 30, id)
	var unauthorized *UnauthorizedDisputeRaiserError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, id, unauthorized.JobID)
	assert.Equal(t, outsider, unauthorized.Caller)

	require.NoError(t, f.jobs.RaiseDispute(guardian, 30, id))

	// a second dispute cannot be raised
	assert.ErrorIs(t, f.jobs.RaiseDispute(f.client, 31, id), ErrInvalidState)

	// dispute window expiry
	f.fund(t, f.worker, 500)
	id2 := f.revealedJob(t, 500)
	err = f.jobs.RaiseDispute(f.client, 121, id2)
	var expired *WindowExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "dispute", expired.Window)
}

func TestTimeoutJob(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1000))
	require.NoError(t, err)
	require.NoError(t, f.jobs.CommitJob(f.worker, 10, id, DeliverableHash([]byte("x"))))

	// reveal deadline is 110; not due yet
	assert.ErrorIs(t, f.jobs.TimeoutJob(f.admin, 110, id, big.NewInt(0)), ErrRevealStillOpen)
	assert.ErrorIs(t, f.jobs.TimeoutJob(f.client, 111, id, big.NewInt(0)), ErrNotAdmin)
	assert.ErrorIs(t, f.jobs.TimeoutJob(f.admin, 111, id, big.NewInt(201)), ErrSlashBoundsExceeded)

	require.NoError(t, f.jobs.TimeoutJob(f.admin, 111, id, big.NewInt(150)))

	acc, err := f.ledger.GetAccount(f.worker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(850), acc.Available())
	assert.Equal(t, big.NewInt(0), acc.Locked)
	assert.Equal(t, big.NewInt(150), f.feeSink.received)

	job, err := f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.True(t, job.Terminal())
}

func TestExtendJobDeadlines(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1000))
	require.NoError(t, err)

	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 0, 0), ErrNothingToExtend)
	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.client, id, 10, 0, 0), ErrNotAdmin)

	// the reveal and dispute deadlines are not assigned yet; CommitJob
	// and RevealJob would overwrite an extension made now
	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 10, 0), ErrWindowNotOpen)
	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 0, 10), ErrWindowNotOpen)

	// extension keeps a late commit alive
	require.NoError(t, f.jobs.ExtendJobDeadlines(f.admin, id, 50, 0, 0))
	require.NoError(t, f.jobs.CommitJob(f.worker, 150, id, DeliverableHash([]byte("x"))))

	job, err := f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), job.CommitDeadline)

	// the dispute window still has no deadline until the reveal lands
	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 0, 10), ErrWindowNotOpen)

	// an extension of the now-open reveal window survives the reveal
	require.NoError(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 25, 0))
	job, err = f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(275), job.RevealDeadline)

	// terminal jobs cannot be extended
	require.NoError(t, f.jobs.RevealJob(f.worker, 160, id, []byte("x")))
	require.NoError(t, f.jobs.FinalizeJob(f.admin, 170, id, true))
	assert.ErrorIs(t, f.jobs.ExtendJobDeadlines(f.admin, id, 0, 0, 10), ErrInvalidState)
}

func TestSequentialJobIDs(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	for want := uint64(workmesh.FirstJobID); want < workmesh.FirstJobID+3; want++ {
		id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	count, err := f.jobs.JobCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestCreateJobInvalidStake(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	_, err := f.jobs.CreateJob(f.client, 0, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.jobs.CreateJob(f.client, 0, big.NewInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCommitNeedsStake(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	// the worker never deposited; the ledger rejects the lock and the
	// job stays in Created.
	id, err := f.jobs.CreateJob(f.client, 0, big.NewInt(1000))
	require.NoError(t, err)
	assert.ErrorIs(t, f.jobs.CommitJob(f.worker, 10, id, DeliverableHash([]byte("x"))), ledger.ErrExceedsAvailable)

	job, err := f.jobs.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, StateCreated, job.State)
}

func TestVotingGate(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	f.fund(t, f.worker, 1000)

	open, err := f.jobs.IsOpenForVoting(99)
	require.NoError(t, err)
	assert.False(t, open)

	id := f.revealedJob(t, 1000)
	open, err = f.jobs.IsOpenForVoting(id)
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, f.jobs.FinalizeJob(f.admin, 30, id, true))
	open, err = f.jobs.IsOpenForVoting(id)
	require.NoError(t, err)
	assert.False(t, open)
}
