// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"encoding/binary"
	"math/big"

	"github.com/workmesh/workmesh/workmesh"
)

// State is a job's position in the lifecycle. States only move forward;
// Finalized and a resolved Disputed are terminal.
type State uint8

const (
	StateNone State = iota
	StateCreated
	StateCommitted
	StateRevealed
	StateFinalized
	StateDisputed
)

var stateNames = map[State]string{
	StateNone:      "None",
	StateCreated:   "Created",
	StateCommitted: "Committed",
	StateRevealed:  "Revealed",
	StateFinalized: "Finalized",
	StateDisputed:  "Disputed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Job is the persisted record of one unit of work. Client and stake are
// fixed at creation; the worker binds itself at commit time. Each
// deadline is set once, when the job enters the state that owns it.
type Job struct {
	ID              uint64
	Client          workmesh.Address
	Worker          workmesh.Address
	StakeAmount     *big.Int
	State           State
	CommitHash      workmesh.Bytes32
	CommitDeadline  uint64
	RevealDeadline  uint64
	DisputeDeadline uint64
	Resolved        bool
}

func (j *Job) normalize() {
	if j.StakeAmount == nil {
		j.StakeAmount = new(big.Int)
	}
}

// Terminal reports whether the job can never transition again.
func (j *Job) Terminal() bool {
	return j.State == StateFinalized || (j.State == StateDisputed && j.Resolved)
}

type jobKey uint64

func (k jobKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// DeliverableHash fingerprints the worker's deliverable for the
// commit-reveal handshake.
func DeliverableHash(secret []byte) workmesh.Bytes32 {
	return workmesh.Blake2b(secret)
}
