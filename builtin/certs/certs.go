// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package certs implements the certificate collaborator: a registry of
// non-fungible certificates issued to workers of successfully
// finalized jobs. One certificate per job.
package certs

import (
	"encoding/binary"

	"github.com/workmesh/workmesh/builtin/reverts"
	"github.com/workmesh/workmesh/builtin/sslot"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/workmesh"
)

var logger = log.WithContext("pkg", "certs")

var (
	slotNextID = workmesh.BytesToBytes32([]byte("next-id"))
	slotByID   = workmesh.BytesToBytes32([]byte("by-id"))
	slotByJob  = workmesh.BytesToBytes32([]byte("by-job"))
)

var ErrAlreadyIssued = reverts.New("certs: job already has a certificate")

// Certificate binds a job to the worker that completed it.
type Certificate struct {
	ID     uint64
	JobID  uint64
	Worker workmesh.Address
}

type certKey uint64

func (k certKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Registry is the certificate service bound to its storage context.
type Registry struct {
	nextID *sslot.Uint64
	byID   *sslot.Mapping[certKey, *Certificate]
	byJob  *sslot.Mapping[certKey, uint64]
}

func New(context *sslot.Context) *Registry {
	return &Registry{
		nextID: sslot.NewUint64(context, slotNextID),
		byID:   sslot.NewMapping[certKey, *Certificate](context, slotByID),
		byJob:  sslot.NewMapping[certKey, uint64](context, slotByJob),
	}
}

// Issue mints a certificate for the worker of the given job.
func (r *Registry) Issue(jobID uint64, worker workmesh.Address) error {
	existing, err := r.byJob.Get(certKey(jobID))
	if err != nil {
		return err
	}
	if existing != 0 {
		return ErrAlreadyIssued
	}
	id, err := r.nextID.Next()
	if err != nil {
		return err
	}
	cert := &Certificate{ID: id, JobID: jobID, Worker: worker}
	if err := r.byID.Set(certKey(id), cert); err != nil {
		return err
	}
	if err := r.byJob.Set(certKey(jobID), id); err != nil {
		return err
	}
	logger.Info("certificate issued", "cert", id, "job", jobID, "worker", worker)
	return nil
}

// Get returns a certificate by its id. Unknown ids read as zero.
func (r *Registry) Get(id uint64) (*Certificate, error) {
	return r.byID.Get(certKey(id))
}

// ByJob returns the certificate issued for a job, or nil if none was.
func (r *Registry) ByJob(jobID uint64) (*Certificate, error) {
	id, err := r.byJob.Get(certKey(jobID))
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return r.Get(id)
}

// Count returns how many certificates have been issued.
func (r *Registry) Count() (uint64, error) {
	return r.nextID.Get()
}
