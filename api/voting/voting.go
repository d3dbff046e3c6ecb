// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voting exposes the ballot box read surface over HTTP: per-job
// tallies and individual validator ballots.
package voting

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/workmesh/workmesh/api/utils"
	"github.com/workmesh/workmesh/builtin"
	corevoting "github.com/workmesh/workmesh/builtin/voting"
	"github.com/workmesh/workmesh/runtime"
	"github.com/workmesh/workmesh/workmesh"
)

// Tally is the aggregate vote state of one job.
type Tally struct {
	Approvals      uint64 `json:"approvals"`
	Rejections     uint64 `json:"rejections"`
	PendingCommits uint64 `json:"pendingCommits"`
	Closed         bool   `json:"closed"`
}

// Ballot is one validator's vote state on one job.
type Ballot struct {
	CommitHash  workmesh.Bytes32 `json:"commitHash"`
	HasRevealed bool             `json:"hasRevealed"`
	Approved    bool             `json:"approved"`
}

type Voting struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Voting {
	return &Voting{rt: rt}
}

func parseJobID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (v *Voting) handleGetTally(w http.ResponseWriter, req *http.Request) error {
	id, err := parseJobID(req)
	if err != nil {
		return err
	}
	var response Tally
	if err := v.rt.Read(func(m *builtin.Marketplace) error {
		tally, err := m.Voting.GetTally(id)
		if err != nil {
			return err
		}
		closed, err := m.Voting.IsJobClosed(id)
		if err != nil {
			return err
		}
		response = Tally{
			Approvals:      tally.Approvals,
			Rejections:     tally.Rejections,
			PendingCommits: tally.PendingCommits,
			Closed:         closed,
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &response)
}

func (v *Voting) handleGetBallot(w http.ResponseWriter, req *http.Request) error {
	id, err := parseJobID(req)
	if err != nil {
		return err
	}
	validator, err := workmesh.ParseAddress(mux.Vars(req)["validator"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "validator"))
	}
	var ballot *corevoting.Ballot
	if err := v.rt.Read(func(m *builtin.Marketplace) error {
		ballot, err = m.Voting.GetBallot(id, *validator)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Ballot{
		CommitHash:  ballot.CommitHash,
		HasRevealed: ballot.HasRevealed,
		Approved:    ballot.Approved,
	})
}

func (v *Voting) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{id}/tally").
		Methods(http.MethodGet).
		Name("GET /voting/{id}/tally").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetTally))
	sub.Path("/{id}/ballots/{validator}").
		Methods(http.MethodGet).
		Name("GET /voting/{id}/ballots/{validator}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetBallot))
}
