// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package roster implements the identity collaborator as a plain
// allowlist. Accounts on the roster gain emergency standing to raise
// disputes on jobs they are otherwise strangers to.
package roster

import (
	"github.com/workmesh/workmesh/builtin/reverts"
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "roster")

var (
	slotEntries = workmesh.BytesToBytes32([]byte("entries"))
	slotCount   = workmesh.BytesToBytes32([]byte("count"))
)

var (
	ErrNotAdmin       = reverts.New("roster: caller is not the administrator")
	ErrAlreadyGranted = reverts.New("roster: already granted")
	ErrNotGranted     = reverts.New("roster: not granted")
)

// Roster is the allowlist service bound to its storage context.
type Roster struct {
	entries *sslot.Mapping[workmesh.Address, bool]
	count   *sslot.Uint64
	admin   workmesh.Address
}

func New(context *sslot.Context, admin workmesh.Address) *Roster {
	return &Roster{
		entries: sslot.NewMapping[workmesh.Address, bool](context, slotEntries),
		count:   sslot.NewUint64(context, slotCount),
		admin:   admin,
	}
}

// Grant puts an account on the roster. Administrator only.
func (r *Roster) Grant(caller, account workmesh.Address) error {
	if caller != r.admin {
		return ErrNotAdmin
	}
	granted, err := r.entries.Get(account)
	if err != nil {
		return err
	}
	if granted {
		return ErrAlreadyGranted
	}
	if err := r.entries.Set(account, true); err != nil {
		return err
	}
	if _, err := r.count.Next(); err != nil {
		return err
	}
	logger.Info("emergency access granted", "account", account)
	return nil
}

// Revoke removes an account from the roster. Administrator only.
func (r *Roster) Revoke(caller, account workmesh.Address) error {
	if caller != r.admin {
		return ErrNotAdmin
	}
	granted, err := r.entries.Get(account)
	if err != nil {
		return err
	}
	if !granted {
		return ErrNotGranted
	}
	if err := r.entries.Set(account, false); err != nil {
		return err
	}
	count, err := r.count.Get()
	if err != nil {
		return err
	}
	r.count.Set(count - 1)
	logger.Info("emergency access revoked", "account", account)
	return nil
}

// IsEmergencyAuthorized reports whether the account is on the roster.
func (r *Roster) IsEmergencyAuthorized(account workmesh.Address) (bool, error) {
	return r.entries.Get(account)
}

// Count returns the number of accounts currently on the roster.
func (r *Roster) Count() (uint64, error) {
	return r.count.Get()
}
