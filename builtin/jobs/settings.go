// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/workmesh"
)

// GetModules returns the current module bindings, assembled from the
// per-binding address slots.
func (j *Jobs) GetModules() (*Modules, error) {
	var (
		modules Modules
		err     error
	)
	if modules.Identity, err = j.moduleIdentity.Get(); err != nil {
		return nil, err
	}
	if modules.FeeSink, err = j.moduleFeeSink.Get(); err != nil {
		return nil, err
	}
	if modules.Reputation, err = j.moduleReputation.Get(); err != nil {
		return nil, err
	}
	if modules.Certificate, err = j.moduleCertificate.Get(); err != nil {
		return nil, err
	}
	return &modules, nil
}

// GetTimings returns the current window durations.
func (j *Jobs) GetTimings() (*Timings, error) {
	return j.timings.Get()
}

// GetThresholds returns the current adjudication parameters.
func (j *Jobs) GetThresholds() (*Thresholds, error) {
	return j.thresholds.Get()
}

// GetReadiness returns which configuration sections have been set.
func (j *Jobs) GetReadiness() (*Readiness, error) {
	return j.readiness.Get()
}

func (j *Jobs) markReady(mutate func(*Readiness)) error {
	readiness, err := j.readiness.Get()
	if err != nil {
		return err
	}
	mutate(readiness)
	return j.readiness.Set(readiness)
}

// SetModules stores the module bindings and marks the section ready.
func (j *Jobs) SetModules(caller workmesh.Address, modules *Modules) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	if err := modules.validate(); err != nil {
		return err
	}
	j.moduleIdentity.Set(&modules.Identity)
	j.moduleFeeSink.Set(&modules.FeeSink)
	j.moduleReputation.Set(&modules.Reputation)
	j.moduleCertificate.Set(&modules.Certificate)
	logger.Info("modules configured",
		"identity", modules.Identity, "feeSink", modules.FeeSink,
		"reputation", modules.Reputation, "certificate", modules.Certificate)
	return j.markReady(func(r *Readiness) { r.ModulesSet = true })
}

// SetTimings stores the window durations and marks the section ready.
func (j *Jobs) SetTimings(caller workmesh.Address, timings *Timings) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	if err := timings.validate(); err != nil {
		return err
	}
	if err := j.timings.Set(timings); err != nil {
		return err
	}
	logger.Info("timings configured",
		"commit", timings.CommitWindow, "reveal", timings.RevealWindow, "dispute", timings.DisputeWindow)
	return j.markReady(func(r *Readiness) { r.TimingsSet = true })
}

// SetThresholds stores the adjudication parameters and marks the
// section ready.
func (j *Jobs) SetThresholds(caller workmesh.Address, thresholds *Thresholds) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	if err := thresholds.validate(); err != nil {
		return err
	}
	if err := j.thresholds.Set(thresholds); err != nil {
		return err
	}
	logger.Info("thresholds configured",
		"approvalBps", thresholds.ApprovalThresholdBps,
		"quorumMin", thresholds.QuorumMin, "quorumMax", thresholds.QuorumMax,
		"feeBps", thresholds.FeeBps, "slashBpsMax", thresholds.SlashBpsMax)
	return j.markReady(func(r *Readiness) { r.ThresholdsSet = true })
}

// UpdateModule rewrites a single module binding. The section must have
// been set as a whole first.
func (j *Jobs) UpdateModule(caller workmesh.Address, field string, addr workmesh.Address) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	readiness, err := j.readiness.Get()
	if err != nil {
		return err
	}
	if !readiness.ModulesSet {
		return &NotConfiguredError{Section: SectionModules}
	}
	if addr.IsZero() {
		return ErrInvalidModules
	}
	var slot *sslot.Address
	switch field {
	case FieldIdentity:
		slot = j.moduleIdentity
	case FieldFeeSink:
		slot = j.moduleFeeSink
	case FieldReputation:
		slot = j.moduleReputation
	case FieldCertificate:
		slot = j.moduleCertificate
	default:
		return ErrUnknownField
	}
	slot.Set(&addr)
	logger.Info("module updated", "field", field, "addr", addr)
	return nil
}

// UpdateTiming rewrites a single window duration. The section must have
// been set as a whole first.
func (j *Jobs) UpdateTiming(caller workmesh.Address, field string, value uint64) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	readiness, err := j.readiness.Get()
	if err != nil {
		return err
	}
	if !readiness.TimingsSet {
		return &NotConfiguredError{Section: SectionTimings}
	}
	timings, err := j.timings.Get()
	if err != nil {
		return err
	}
	switch field {
	case FieldCommitWindow:
		timings.CommitWindow = value
	case FieldRevealWindow:
		timings.RevealWindow = value
	case FieldDisputeWindow:
		timings.DisputeWindow = value
	default:
		return ErrUnknownField
	}
	if err := timings.validate(); err != nil {
		return err
	}
	logger.Info("timing updated", "field", field, "value", value)
	return j.timings.Set(timings)
}

// UpdateThreshold rewrites a single adjudication parameter. The section
// must have been set as a whole first.
func (j *Jobs) UpdateThreshold(caller workmesh.Address, field string, value uint64) error {
	if err := j.requireAdmin(caller); err != nil {
		return err
	}
	readiness, err := j.readiness.Get()
	if err != nil {
		return err
	}
	if !readiness.ThresholdsSet {
		return &NotConfiguredError{Section: SectionThresholds}
	}
	thresholds, err := j.thresholds.Get()
	if err != nil {
		return err
	}
	switch field {
	case FieldApprovalThresholdBps:
		thresholds.ApprovalThresholdBps = value
	case FieldQuorumMin:
		thresholds.QuorumMin = value
	case FieldQuorumMax:
		thresholds.QuorumMax = value
	case FieldFeeBps:
		thresholds.FeeBps = value
	case FieldSlashBpsMax:
		thresholds.SlashBpsMax = value
	default:
		return ErrUnknownField
	}
	if err := thresholds.validate(); err != nil {
		return err
	}
	logger.Info("threshold updated", "field", field, "value", value)
	return j.thresholds.Set(thresholds)
}
