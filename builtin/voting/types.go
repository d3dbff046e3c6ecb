// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voting

import (
	"encoding/binary"

	"github.com/workmesh/workmesh/workmesh"
)

// Ballot is one validator's vote on one job. The commit hash is zeroed
// the moment the validator reveals; a ballot with a non-zero commit and
// no reveal is pending.
type Ballot struct {
	CommitHash  workmesh.Bytes32
	HasRevealed bool
	Approved    bool
}

// Tally aggregates the revealed votes of a job.
type Tally struct {
	Approvals      uint64
	Rejections     uint64
	PendingCommits uint64
}

type jobKey uint64

func (k jobKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

type ballotKey struct {
	jobID     uint64
	validator workmesh.Address
}

func (k ballotKey) Bytes() []byte {
	b := make([]byte, 0, 8+len(k.validator))
	b = append(b, jobKey(k.jobID).Bytes()...)
	return append(b, k.validator.Bytes()...)
}

// CommitHash computes the hiding commitment a validator submits for a
// vote. The salt keeps the pre-image unguessable until reveal.
func CommitHash(jobID uint64, validator workmesh.Address, approved bool, salt workmesh.Bytes32) workmesh.Bytes32 {
	var approvedByte byte
	if approved {
		approvedByte = 1
	}
	return workmesh.Blake2b(jobKey(jobID).Bytes(), validator.Bytes(), []byte{approvedByte}, salt.Bytes())
}
