// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"github.com/ethereum/go-ethereum/common/math"

	corejobs "github.com/workmesh/workmesh/builtin/jobs"
	"github.com/workmesh/workmesh/workmesh"
)

// Job is the queryable surface of one job.
type Job struct {
	ID              uint64                `json:"id"`
	Client          workmesh.Address      `json:"client"`
	Worker          workmesh.Address      `json:"worker"`
	StakeAmount     *math.HexOrDecimal256 `json:"stakeAmount"`
	State           uint8                 `json:"state"`
	StateName       string                `json:"stateName"`
	CommitHash      workmesh.Bytes32      `json:"commitHash"`
	CommitDeadline  uint64                `json:"commitDeadline"`
	RevealDeadline  uint64                `json:"revealDeadline"`
	DisputeDeadline uint64                `json:"disputeDeadline"`
	Resolved        bool                  `json:"resolved"`
}

func convertJob(job *corejobs.Job) *Job {
	return &Job{
		ID:              job.ID,
		Client:          job.Client,
		Worker:          job.Worker,
		StakeAmount:     (*math.HexOrDecimal256)(job.StakeAmount),
		State:           uint8(job.State),
		StateName:       job.State.String(),
		CommitHash:      job.CommitHash,
		CommitDeadline:  job.CommitDeadline,
		RevealDeadline:  job.RevealDeadline,
		DisputeDeadline: job.DisputeDeadline,
		Resolved:        job.Resolved,
	}
}

// Config is the full configuration surface.
type Config struct {
	Modules    *corejobs.Modules    `json:"modules"`
	Timings    *corejobs.Timings    `json:"timings"`
	Thresholds *corejobs.Thresholds `json:"thresholds"`
}

// Readiness reports the configuration gate per section.
type Readiness struct {
	ModulesSet      bool `json:"modulesSet"`
	TimingsSet      bool `json:"timingsSet"`
	ThresholdsSet   bool `json:"thresholdsSet"`
	FullyConfigured bool `json:"fullyConfigured"`
}
