// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package jobs exposes the queryable job surface over HTTP: individual
// jobs by id, the configuration sections and the readiness gate.
package jobs

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/workmesh/workmesh/api/utils"
	"github.com/workmesh/workmesh/builtin"
	corejobs "github.com/workmesh/workmesh/builtin/jobs"
	"github.com/workmesh/workmesh/runtime"
)

type Jobs struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Jobs {
	return &Jobs{rt: rt}
}

func (j *Jobs) handleGetJob(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var job *corejobs.Job
	if err := j.rt.Read(func(m *builtin.Marketplace) error {
		job, err = m.Jobs.GetJob(id)
		return err
	}); err != nil {
		return err
	}
	if job.State == corejobs.StateNone {
		return utils.NotFound(errors.New("no such job"))
	}
	return utils.WriteJSON(w, convertJob(job))
}

func (j *Jobs) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	var config Config
	if err := j.rt.Read(func(m *builtin.Marketplace) error {
		var err error
		if config.Modules, err = m.Jobs.GetModules(); err != nil {
			return err
		}
		if config.Timings, err = m.Jobs.GetTimings(); err != nil {
			return err
		}
		config.Thresholds, err = m.Jobs.GetThresholds()
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &config)
}

func (j *Jobs) handleGetReadiness(w http.ResponseWriter, _ *http.Request) error {
	var readiness *corejobs.Readiness
	if err := j.rt.Read(func(m *builtin.Marketplace) error {
		var err error
		readiness, err = m.Jobs.GetReadiness()
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Readiness{
		ModulesSet:      readiness.ModulesSet,
		TimingsSet:      readiness.TimingsSet,
		ThresholdsSet:   readiness.ThresholdsSet,
		FullyConfigured: readiness.FullyConfigured(),
	})
}

func (j *Jobs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /jobs/config").
		HandlerFunc(utils.WrapHandlerFunc(j.handleGetConfig))
	sub.Path("/readiness").
		Methods(http.MethodGet).
		Name("GET /jobs/readiness").
		HandlerFunc(utils.WrapHandlerFunc(j.handleGetReadiness))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /jobs/{id}").
		HandlerFunc(utils.WrapHandlerFunc(j.handleGetJob))
}
