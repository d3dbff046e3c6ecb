// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voting implements the commit-reveal ballot box consulted for
// job adjudication. A validator first submits a hiding commitment and
// later reveals the vote with its salt; this keeps a vote from being
// conditioned on votes already cast by others.
package voting

import (
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "voting")

var (
	slotBallots = workmesh.BytesToBytes32([]byte("ballots"))
	slotTallies = workmesh.BytesToBytes32([]byte("tallies"))
)

// JobGate tells the ballot box whether a job currently accepts ballots.
type JobGate interface {
	IsOpenForVoting(jobID uint64) (bool, error)
}

// openGate accepts every job. It stands in until a real gate is wired.
type openGate struct{}

func (openGate) IsOpenForVoting(uint64) (bool, error) { return true, nil }

// Voting is the ballot box service bound to its storage context.
type Voting struct {
	ballots *sslot.Mapping[ballotKey, *Ballot]
	tallies *sslot.Mapping[jobKey, *Tally]
	gate    JobGate
	sink    events.Sink
}

// New creates a ballot box over the given storage context. The job gate
// is wired separately via SetJobGate to break the construction cycle
// with the lifecycle component.
func New(context *sslot.Context, sink events.Sink) *Voting {
	return &Voting{
		ballots: sslot.NewMapping[ballotKey, *Ballot](context, slotBallots),
		tallies: sslot.NewMapping[jobKey, *Tally](context, slotTallies),
		gate:    openGate{},
		sink:    sink,
	}
}

// SetJobGate binds the gate consulted before accepting a commit.
func (v *Voting) SetJobGate(gate JobGate) {
	v.gate = gate
}

// Commit records the validator's hiding commitment for the job.
func (v *Voting) Commit(jobID uint64, validator workmesh.Address, hash workmesh.Bytes32) error {
	if hash.IsZero() {
		return ErrEmptyCommitHash
	}
	open, err := v.gate.IsOpenForVoting(jobID)
	if err != nil {
		return err
	}
	if !open {
		return ErrNotOpenForVoting
	}
	key := ballotKey{jobID, validator}
	ballot, err := v.ballots.Get(key)
	if err != nil {
		return err
	}
	if ballot.HasRevealed {
		return ErrAlreadyRevealed
	}
	if !ballot.CommitHash.IsZero() {
		return ErrAlreadyCommitted
	}
	ballot.CommitHash = hash
	if err := v.ballots.Set(key, ballot); err != nil {
		return err
	}
	tally, err := v.tallies.Get(jobKey(jobID))
	if err != nil {
		return err
	}
	tally.PendingCommits++
	if err := v.tallies.Set(jobKey(jobID), tally); err != nil {
		return err
	}
	logger.Debug("ballot committed", "job", jobID, "validator", validator)
	v.sink.Post(events.VoteEvent{JobID: jobID, Validator: validator, Revealed: false})
	return nil
}

// Reveal opens the validator's commitment. The vote counts only if the
// recomputed commitment matches the stored one; on success the stored
// commit is zeroed and the tally updated.
func (v *Voting) Reveal(jobID uint64, validator workmesh.Address, approved bool, salt workmesh.Bytes32) error {
	key := ballotKey{jobID, validator}
	ballot, err := v.ballots.Get(key)
	if err != nil {
		return err
	}
	if ballot.HasRevealed {
		return ErrAlreadyRevealed
	}
	if ballot.CommitHash.IsZero() {
		return ErrNoCommitFound
	}
	if CommitHash(jobID, validator, approved, salt) != ballot.CommitHash {
		return ErrCommitMismatch
	}
	ballot.CommitHash = workmesh.Bytes32{}
	ballot.HasRevealed = true
	ballot.Approved = approved
	if err := v.ballots.Set(key, ballot); err != nil {
		return err
	}
	tally, err := v.tallies.Get(jobKey(jobID))
	if err != nil {
		return err
	}
	tally.PendingCommits--
	if approved {
		tally.Approvals++
	} else {
		tally.Rejections++
	}
	if err := v.tallies.Set(jobKey(jobID), tally); err != nil {
		return err
	}
	logger.Info("ballot revealed", "job", jobID, "validator", validator, "approved", approved)
	v.sink.Post(events.VoteEvent{JobID: jobID, Validator: validator, Revealed: true})
	return nil
}

// GetTally returns the aggregate of the job's revealed and pending votes.
func (v *Voting) GetTally(jobID uint64) (*Tally, error) {
	return v.tallies.Get(jobKey(jobID))
}

// Approvals returns the count of revealed approve votes.
func (v *Voting) Approvals(jobID uint64) (uint64, error) {
	tally, err := v.tallies.Get(jobKey(jobID))
	if err != nil {
		return 0, err
	}
	return tally.Approvals, nil
}

// Rejections returns the count of revealed reject votes.
func (v *Voting) Rejections(jobID uint64) (uint64, error) {
	tally, err := v.tallies.Get(jobKey(jobID))
	if err != nil {
		return 0, err
	}
	return tally.Rejections, nil
}

// PendingCommitCount returns the number of ballots with a commit and no
// reveal yet.
func (v *Voting) PendingCommitCount(jobID uint64) (uint64, error) {
	tally, err := v.tallies.Get(jobKey(jobID))
	if err != nil {
		return 0, err
	}
	return tally.PendingCommits, nil
}

// GetBallot returns the validator's ballot for the job. Unknown ballots
// read as zero.
func (v *Voting) GetBallot(jobID uint64, validator workmesh.Address) (*Ballot, error) {
	return v.ballots.Get(ballotKey{jobID, validator})
}

// HasRevealed reports whether the validator already revealed.
func (v *Voting) HasRevealed(jobID uint64, validator workmesh.Address) (bool, error) {
	ballot, err := v.GetBallot(jobID, validator)
	if err != nil {
		return false, err
	}
	return ballot.HasRevealed, nil
}

// VoteOf returns the revealed vote. It is meaningful only once
// HasRevealed reports true.
func (v *Voting) VoteOf(jobID uint64, validator workmesh.Address) (bool, error) {
	ballot, err := v.GetBallot(jobID, validator)
	if err != nil {
		return false, err
	}
	return ballot.Approved, nil
}

// CommitOf returns the stored commit hash, zero once revealed.
func (v *Voting) CommitOf(jobID uint64, validator workmesh.Address) (workmesh.Bytes32, error) {
	ballot, err := v.GetBallot(jobID, validator)
	if err != nil {
		return workmesh.Bytes32{}, err
	}
	return ballot.CommitHash, nil
}

// IsJobClosed reports whether the job no longer accepts ballots.
func (v *Voting) IsJobClosed(jobID uint64) (bool, error) {
	open, err := v.gate.IsOpenForVoting(jobID)
	if err != nil {
		return false, err
	}
	return !open, nil
}
