// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package jobs implements the marketplace job lifecycle. A client
// creates a job, a worker commits to it by locking its own stake and
// later reveals the deliverable fingerprint, and the administrator
// finalizes the outcome or adjudicates a dispute. Every entry point is
// gated behind configuration readiness; timing is expressed purely as
// deadline comparisons against an externally supplied clock.
package jobs

import (
	"math/big"

	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "jobs")

var (
	slotJobs       = workmesh.BytesToBytes32([]byte("jobs"))
	slotNextJobID  = workmesh.BytesToBytes32([]byte("next-job-id"))
	slotTimings    = workmesh.BytesToBytes32([]byte("config-timings"))
	slotThresholds = workmesh.BytesToBytes32([]byte("config-thresholds"))
	slotReadiness  = workmesh.BytesToBytes32([]byte("config-readiness"))

	// each module binding occupies its own address slot
	slotModuleIdentity    = workmesh.BytesToBytes32([]byte("module-identity"))
	slotModuleFeeSink     = workmesh.BytesToBytes32([]byte("module-fee-sink"))
	slotModuleReputation  = workmesh.BytesToBytes32([]byte("module-reputation"))
	slotModuleCertificate = workmesh.BytesToBytes32([]byte("module-certificate"))
)

// StakeLedger is the escrow surface consumed by the lifecycle.
type StakeLedger interface {
	Lock(account workmesh.Address, amount *big.Int) error
	Settle(account workmesh.Address, releaseAmount, slashAmount *big.Int) error
}

// Identity grants emergency standing to raise disputes.
type Identity interface {
	IsEmergencyAuthorized(account workmesh.Address) (bool, error)
}

// Reputation is the additive counter adjusted on dispute resolution.
type Reputation interface {
	Adjust(account workmesh.Address, delta *big.Int) error
}

// Certificate issues a non-fungible certificate to the worker of a
// successfully finalized job.
type Certificate interface {
	Issue(jobID uint64, worker workmesh.Address) error
}

// TallyProvider exposes validator vote tallies. The tallies are
// advisory; the administrator supplies the outcome directly and the
// lifecycle records what the validators said alongside it.
type TallyProvider interface {
	Approvals(jobID uint64) (uint64, error)
	Rejections(jobID uint64) (uint64, error)
}

// Jobs is the lifecycle service bound to its storage context. The
// administrator is fixed at construction.
type Jobs struct {
	jobs       *sslot.Mapping[jobKey, *Job]
	nextJobID  *sslot.Uint64
	timings    *sslot.Value[*Timings]
	thresholds *sslot.Value[*Thresholds]
	readiness  *sslot.Value[*Readiness]

	moduleIdentity    *sslot.Address
	moduleFeeSink     *sslot.Address
	moduleReputation  *sslot.Address
	moduleCertificate *sslot.Address

	admin       workmesh.Address
	ledger      StakeLedger
	identity    Identity
	reputation  Reputation
	certificate Certificate
	tallies     TallyProvider
	sink        events.Sink
}

// New creates the lifecycle service over the given storage context.
func New(
	context *sslot.Context,
	admin workmesh.Address,
	ledger StakeLedger,
	identity Identity,
	reputation Reputation,
	certificate Certificate,
	tallies TallyProvider,
	sink events.Sink,
) *Jobs {
	return &Jobs{
		jobs:       sslot.NewMapping[jobKey, *Job](context, slotJobs),
		nextJobID:  sslot.NewUint64(context, slotNextJobID),
		timings:    sslot.NewValue[*Timings](context, slotTimings),
		thresholds: sslot.NewValue[*Thresholds](context, slotThresholds),
		readiness:  sslot.NewValue[*Readiness](context, slotReadiness),

		moduleIdentity:    sslot.NewAddress(context, slotModuleIdentity),
		moduleFeeSink:     sslot.NewAddress(context, slotModuleFeeSink),
		moduleReputation:  sslot.NewAddress(context, slotModuleReputation),
		moduleCertificate: sslot.NewAddress(context, slotModuleCertificate),

		admin:       admin,
		ledger:      ledger,
		identity:    identity,
		reputation:  reputation,
		certificate: certificate,
		tallies:     tallies,
		sink:        sink,
	}
}

// Admin returns the fixed administrator account.
func (j *Jobs) Admin() workmesh.Address {
	return j.admin
}

func (j *Jobs) requireAdmin(caller workmesh.Address) error {
	if caller != j.admin {
		return ErrNotAdmin
	}
	return nil
}

// requireConfigured reports the first missing configuration section, in
// the fixed order modules, timings, thresholds.
func (j *Jobs) requireConfigured() error {
	readiness, err := j.readiness.Get()
	if err != nil {
		return err
	}
	switch {
	case !readiness.ModulesSet:
		return &NotConfiguredError{Section: SectionModules}
	case !readiness.TimingsSet:
		return &NotConfiguredError{Section: SectionTimings}
	case !readiness.ThresholdsSet:
		return &NotConfiguredError{Section: SectionThresholds}
	}
	return nil
}

func (j *Jobs) getJob(jobID uint64) (*Job, error) {
	job, err := j.jobs.Get(jobKey(jobID))
	if err != nil {
		return nil, err
	}
	job.normalize()
	return job, nil
}

func (j *Jobs) setJob(job *Job) error {
	return j.jobs.Set(jobKey(job.ID), job)
}

func (j *Jobs) transition(job *Job, to State) error {
	from := job.State
	job.State = to
	if err := j.setJob(job); err != nil {
		return err
	}
	logger.Info("job transitioned", "job", job.ID, "from", from, "to", to)
	j.sink.Post(events.JobEvent{JobID: job.ID, From: from.String(), To: to.String()})
	return nil
}

// GetJob returns the persisted record of a job. Unknown ids read as a
// zero job in state None.
func (j *Jobs) GetJob(jobID uint64) (*Job, error) {
	return j.getJob(jobID)
}

// JobCount returns how many jobs have been created.
func (j *Jobs) JobCount() (uint64, error) {
	return j.nextJobID.Get()
}

// IsOpenForVoting reports whether a job still accepts validator
// ballots: the job exists and has not reached a terminal state.
func (j *Jobs) IsOpenForVoting(jobID uint64) (bool, error) {
	job, err := j.getJob(jobID)
	if err != nil {
		return false, err
	}
	return job.State != StateNone && !job.Terminal(), nil
}

// CreateJob registers a new job for the calling client and opens its
// commit window. No funds move yet; the worker locks its own stake when
// it commits.
func (j *Jobs) CreateJob(caller workmesh.Address, now uint64, stakeAmount *big.Int) (uint64, error) {
	if err := j.requireConfigured(); err != nil {
		return 0, err
	}
	if stakeAmount == nil || stakeAmount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	timings, err := j.timings.Get()
	if err != nil {
		return 0, err
	}
	id, err := j.nextJobID.Next()
	if err != nil {
		return 0, err
	}
	job := &Job{
		ID:             id,
		Client:         caller,
		StakeAmount:    new(big.Int).Set(stakeAmount),
		CommitDeadline: now + timings.CommitWindow,
	}
	if err := j.transition(job, StateCreated); err != nil {
		return 0, err
	}
	logger.Info("job created", "job", id, "client", caller, "stake", stakeAmount)
	return id, nil
}

// CommitJob binds the caller as the job's worker, locks the stake from
// the worker's available balance and records the deliverable commit.
func (j *Jobs) CommitJob(caller workmesh.Address, now uint64, jobID uint64, hash workmesh.Bytes32) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateCreated {
		return &InvalidStateError{Expected: StateCreated, Actual: job.State}
	}
	if now > job.CommitDeadline {
		return &WindowExpiredError{Window: "commit"}
	}
	timings, err := j.timings.Get()
	if err != nil {
		return err
	}
	if err := j.ledger.Lock(caller, job.StakeAmount); err != nil {
		return err
	}
	job.Worker = caller
	job.CommitHash = hash
	job.RevealDeadline = now + timings.RevealWindow
	return j.transition(job, StateCommitted)
}

// RevealJob opens the worker's deliverable commit and starts the
// dispute window.
func (j *Jobs) RevealJob(caller workmesh.Address, now uint64, jobID uint64, secret []byte) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateCommitted {
		return &InvalidStateError{Expected: StateCommitted, Actual: job.State}
	}
	if caller != job.Worker {
		return ErrNotWorker
	}
	if now > job.RevealDeadline {
		return &WindowExpiredError{Window: "reveal"}
	}
	if DeliverableHash(secret) != job.CommitHash {
		return ErrCommitMismatch
	}
	timings, err := j.timings.Get()
	if err != nil {
		return err
	}
	job.DisputeDeadline = now + timings.DisputeWindow
	return j.transition(job, StateRevealed)
}

// FinalizeJob closes a revealed job. On success the protocol fee is
// carved out of the worker's stake and routed to the fee sink, the
// remainder released, and a certificate issued; otherwise the full
// stake is released. Validator tallies, where present, are recorded as
// advisory context for the administrator's decision.
func (j *Jobs) FinalizeJob(caller workmesh.Address, now uint64, jobID uint64, success bool) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateRevealed {
		return &InvalidStateError{Expected: StateRevealed, Actual: job.State}
	}
	j.logAdvisoryTally(jobID)
	if success {
		thresholds, err := j.thresholds.Get()
		if err != nil {
			return err
		}
		fee := bpsShare(job.StakeAmount, thresholds.FeeBps)
		if fee.Cmp(job.StakeAmount) > 0 {
			return ErrFeeBoundsExceeded
		}
		release := new(big.Int).Sub(job.StakeAmount, fee)
		if err := j.ledger.Settle(job.Worker, release, fee); err != nil {
			return err
		}
		if err := j.certificate.Issue(jobID, job.Worker); err != nil {
			return err
		}
		logger.Info("job finalized", "job", jobID, "fee", fee, "released", release)
	} else {
		if err := j.ledger.Settle(job.Worker, job.StakeAmount, new(big.Int)); err != nil {
			return err
		}
		logger.Info("job finalized without fee", "job", jobID, "released", job.StakeAmount)
	}
	return j.transition(job, StateFinalized)
}

// RaiseDispute contests a revealed job. Standing is limited to the
// job's client and worker, the administrator, and accounts granted
// emergency access by the identity collaborator.
func (j *Jobs) RaiseDispute(caller workmesh.Address, now uint64, jobID uint64) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateRevealed {
		return &InvalidStateError{Expected: StateRevealed, Actual: job.State}
	}
	if caller != job.Client && caller != job.Worker && caller != j.admin {
		authorized, err := j.identity.IsEmergencyAuthorized(caller)
		if err != nil {
			return err
		}
		if !authorized {
			return &UnauthorizedDisputeRaiserError{JobID: jobID, Caller: caller}
		}
	}
	if now > job.DisputeDeadline {
		return &WindowExpiredError{Window: "dispute"}
	}
	logger.Warn("dispute raised", "job", jobID, "by", caller)
	return j.transition(job, StateDisputed)
}

// ResolveDispute settles a disputed job. The slash amount must stay
// within both the stake and the slashBpsMax cap, and must be zero when
// the worker is not slashed. The reputation delta is forwarded to the
// reputation collaborator. Resolution is terminal.
func (j *Jobs) ResolveDispute(caller workmesh.Address, now uint64, jobID uint64, slashWorker bool, slashAmount, reputationDelta *big.Int) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateDisputed || job.Resolved {
		return &InvalidStateError{Expected: StateDisputed, Actual: job.State}
	}
	if slashAmount == nil || slashAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !slashWorker && slashAmount.Sign() != 0 {
		return ErrInvalidAmount
	}
	if err := j.checkSlashBounds(job, slashAmount); err != nil {
		return err
	}
	j.logAdvisoryTally(jobID)
	release := new(big.Int).Sub(job.StakeAmount, slashAmount)
	if err := j.ledger.Settle(job.Worker, release, slashAmount); err != nil {
		return err
	}
	if reputationDelta != nil && reputationDelta.Sign() != 0 {
		if err := j.reputation.Adjust(job.Worker, reputationDelta); err != nil {
			return err
		}
	}
	job.Resolved = true
	if err := j.setJob(job); err != nil {
		return err
	}
	logger.Info("dispute resolved", "job", jobID, "slashWorker", slashWorker, "slashed", slashAmount, "released", release)
	j.sink.Post(events.JobEvent{JobID: jobID, From: StateDisputed.String(), To: "Resolved"})
	return nil
}

// ExtendJobDeadlines pushes out one or more of the job's deadlines.
// Administrator only; at least one extension must be non-zero and the
// job must still be running. A deadline can only be extended once its
// window has opened: the reveal and dispute deadlines are assigned by
// CommitJob and RevealJob, and an earlier extension would be discarded
// by that assignment.
func (j *Jobs) ExtendJobDeadlines(caller workmesh.Address, jobID uint64, commitExt, revealExt, disputeExt uint64) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	if commitExt == 0 && revealExt == 0 && disputeExt == 0 {
		return ErrNothingToExtend
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	switch job.State {
	case StateCreated:
		if revealExt != 0 || disputeExt != 0 {
			return ErrWindowNotOpen
		}
	case StateCommitted:
		if disputeExt != 0 {
			return ErrWindowNotOpen
		}
	case StateRevealed:
	case StateDisputed:
		if job.Resolved {
			return &InvalidStateError{Expected: StateDisputed, Actual: job.State}
		}
	default:
		return &InvalidStateError{Expected: StateCreated, Actual: job.State}
	}
	job.CommitDeadline += commitExt
	job.RevealDeadline += revealExt
	job.DisputeDeadline += disputeExt
	if err := j.setJob(job); err != nil {
		return err
	}
	logger.Info("job deadlines extended", "job", jobID,
		"commit", job.CommitDeadline, "reveal", job.RevealDeadline, "dispute", job.DisputeDeadline)
	return nil
}

// TimeoutJob closes a committed job whose worker never revealed in
// time. The same slash bounds as dispute resolution apply; the rest of
// the stake is released back to the worker. Terminal.
func (j *Jobs) TimeoutJob(caller workmesh.Address, now uint64, jobID uint64, slashAmount *big.Int) error {
	if err := j.requireConfigured(); err != nil {
		return err
	}
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	job, err := j.getJob(jobID)
	if err != nil {
		return err
	}
	if job.State != StateCommitted {
		return &InvalidStateError{Expected: StateCommitted, Actual: job.State}
	}
	if now <= job.RevealDeadline {
		return ErrRevealStillOpen
	}
	if slashAmount == nil || slashAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := j.checkSlashBounds(job, slashAmount); err != nil {
		return err
	}
	release := new(big.Int).Sub(job.StakeAmount, slashAmount)
	if err := j.ledger.Settle(job.Worker, release, slashAmount); err != nil {
		return err
	}
	logger.Warn("job timed out", "job", jobID, "slashed", slashAmount, "released", release)
	return j.transition(job, StateFinalized)
}

func (j *Jobs) checkSlashBounds(job *Job, slashAmount *big.Int) error {
	thresholds, err := j.thresholds.Get()
	if err != nil {
		return err
	}
	maxSlash := bpsShare(job.StakeAmount, thresholds.SlashBpsMax)
	if slashAmount.Cmp(job.StakeAmount) > 0 || slashAmount.Cmp(maxSlash) > 0 {
		return ErrSlashBoundsExceeded
	}
	return nil
}

func (j *Jobs) logAdvisoryTally(jobID uint64) {
	approvals, err := j.tallies.Approvals(jobID)
	if err != nil {
		logger.Debug("tally unavailable", "job", jobID, "err", err)
		return
	}
	rejections, err := j.tallies.Rejections(jobID)
	if err != nil {
		logger.Debug("tally unavailable", "job", jobID, "err", err)
		return
	}
	if approvals > 0 || rejections > 0 {
		logger.Info("validator tally", "job", jobID, "approvals", approvals, "rejections", rejections)
	}
}

// bpsShare computes amount * bps / 10000, rounding down.
func bpsShare(amount *big.Int, bps uint64) *big.Int {
	share := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return share.Div(share, new(big.Int).SetUint64(workmesh.BpsDenominator))
}
