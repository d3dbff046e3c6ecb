// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voting

import (
	"github.com/workmesh/workmesh/builtin/reverts"
)

var (
	// ErrNotOpenForVoting is returned by Commit when the job does not
	// accept ballots.
	ErrNotOpenForVoting = reverts.New("voting: job not open for voting")

	// ErrEmptyCommitHash is returned by Commit for a zero hash, which is
	// reserved to mark cleared ballots.
	ErrEmptyCommitHash = reverts.New("voting: empty commit hash")

	// ErrAlreadyCommitted is returned by Commit when the validator
	// already holds a pending commit for the job.
	ErrAlreadyCommitted = reverts.New("voting: already committed")

	// ErrAlreadyRevealed is returned when the validator has already
	// revealed its vote for the job.
	ErrAlreadyRevealed = reverts.New("voting: already revealed")

	// ErrNoCommitFound is returned by Reveal when nothing was committed.
	ErrNoCommitFound = reverts.New("voting: no commit found")

	// ErrCommitMismatch is returned by Reveal when the recomputed hash
	// disagrees with the stored commit.
	ErrCommitMismatch = reverts.New("voting: commit mismatch")
)
