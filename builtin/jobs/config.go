// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"github.com/workmesh/workmesh/workmesh"
)

// Modules binds the external collaborators consulted by the lifecycle.
// All four must be non-zero for the section to be accepted.
type Modules struct {
	Identity    workmesh.Address
	FeeSink     workmesh.Address
	Reputation  workmesh.Address
	Certificate workmesh.Address
}

func (m *Modules) validate() error {
	if m.Identity.IsZero() || m.FeeSink.IsZero() || m.Reputation.IsZero() || m.Certificate.IsZero() {
		return ErrInvalidModules
	}
	return nil
}

// Timings are the lifecycle window durations, each strictly positive.
type Timings struct {
	CommitWindow  uint64
	RevealWindow  uint64
	DisputeWindow uint64
}

func (t *Timings) validate() error {
	if t.CommitWindow == 0 || t.RevealWindow == 0 || t.DisputeWindow == 0 {
		return ErrInvalidTimings
	}
	return nil
}

// Thresholds hold the adjudication parameters. Basis-point fields are
// capped at the denominator; the quorum bounds are plain counts.
type Thresholds struct {
	ApprovalThresholdBps uint64
	QuorumMin            uint64
	QuorumMax            uint64
	FeeBps               uint64
	SlashBpsMax          uint64
}

func (t *Thresholds) validate() error {
	if t.ApprovalThresholdBps > workmesh.BpsDenominator ||
		t.FeeBps > workmesh.BpsDenominator ||
		t.SlashBpsMax > workmesh.BpsDenominator {
		return ErrInvalidThresholds
	}
	if t.QuorumMin == 0 || t.QuorumMax < t.QuorumMin {
		return ErrInvalidThresholds
	}
	return nil
}

// Readiness tracks which configuration sections have been set. All
// three gate every lifecycle entry point.
type Readiness struct {
	ModulesSet    bool
	TimingsSet    bool
	ThresholdsSet bool
}

func (r *Readiness) FullyConfigured() bool {
	return r.ModulesSet && r.TimingsSet && r.ThresholdsSet
}

// Configuration section names, as reported by NotConfiguredError and
// accepted by the single-field update operations.
const (
	SectionModules    = "modules"
	SectionTimings    = "timings"
	SectionThresholds = "thresholds"
)

// Field names accepted by UpdateModule, UpdateTiming and UpdateThreshold.
const (
	FieldIdentity    = "identity"
	FieldFeeSink     = "feeSink"
	FieldReputation  = "reputation"
	FieldCertificate = "certificate"

	FieldCommitWindow  = "commitWindow"
	FieldRevealWindow  = "revealWindow"
	FieldDisputeWindow = "disputeWindow"

	FieldApprovalThresholdBps = "approvalThresholdBps"
	FieldQuorumMin            = "quorumMin"
	FieldQuorumMax            = "quorumMax"
	FieldFeeBps               = "feeBps"
	FieldSlashBpsMax          = "slashBpsMax"
)
