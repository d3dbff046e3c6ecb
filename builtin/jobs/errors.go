// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package jobs

import (
	"fmt"

	"github.com/workmesh/workmesh/builtin/reverts"
	"github.com/workmesh/workmesh/workmesh"
)

// Base errors everything below unwraps to, so callers can match a
// category without caring about the parameters.
var (
	ErrNotConfigured       = reverts.New("jobs: not configured")
	ErrInvalidState        = reverts.New("jobs: invalid state")
	ErrWindowExpired       = reverts.New("jobs: window expired")
	ErrUnauthorizedDispute = reverts.New("jobs: unauthorized dispute raiser")

	ErrInvalidAmount       = reverts.New("jobs: invalid amount")
	ErrNotWorker           = reverts.New("jobs: caller is not the committed worker")
	ErrNotAdmin            = reverts.New("jobs: caller is not the administrator")
	ErrCommitMismatch      = reverts.New("jobs: deliverable does not match commit")
	ErrSlashBoundsExceeded = reverts.New("jobs: slash bounds exceeded")
	ErrFeeBoundsExceeded   = reverts.New("jobs: fee bounds exceeded")
	ErrNothingToExtend     = reverts.New("jobs: no deadline extension given")
	ErrWindowNotOpen       = reverts.New("jobs: window not open for extension")
	ErrRevealStillOpen     = reverts.New("jobs: reveal window still open")
	ErrUnknownField        = reverts.New("jobs: unknown configuration field")
	ErrInvalidModules      = reverts.New("jobs: zero-valued module binding")
	ErrInvalidTimings      = reverts.New("jobs: timing windows must be positive")
	ErrInvalidThresholds   = reverts.New("jobs: invalid thresholds")
)

// NotConfiguredError reports which configuration section is missing.
type NotConfiguredError struct {
	Section string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("jobs: not configured: %s", e.Section)
}

func (e *NotConfiguredError) Unwrap() error { return ErrNotConfigured }

// InvalidStateError reports a transition attempted from the wrong state.
type InvalidStateError struct {
	Expected State
	Actual   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("jobs: invalid state: expected %v, actual %v", e.Expected, e.Actual)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// WindowExpiredError reports a deadline that has already passed.
type WindowExpiredError struct {
	Window string
}

func (e *WindowExpiredError) Error() string {
	return fmt.Sprintf("jobs: %s window expired", e.Window)
}

func (e *WindowExpiredError) Unwrap() error { return ErrWindowExpired }

// UnauthorizedDisputeRaiserError reports a dispute attempt by an
// account with no standing on the job.
type UnauthorizedDisputeRaiserError struct {
	JobID  uint64
	Caller workmesh.Address
}

func (e *UnauthorizedDisputeRaiserError) Error() string {
	return fmt.Sprintf("jobs: unauthorized dispute raiser: job %d, caller %v", e.JobID, e.Caller)
}

func (e *UnauthorizedDisputeRaiserError) Unwrap() error { return ErrUnauthorizedDispute }
