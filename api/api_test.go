// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/workmesh/api"
	"github.com/workmesh/workmesh/builtin/jobs"
	"github.com/workmesh/workmesh/builtin/voting"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/lvldb"
	"github.com/workmesh/workmesh/runtime"
	"github.com/workmesh/workmesh/workmesh"
)

var (
	admin     = workmesh.BytesToAddress([]byte("admin"))
	client    = workmesh.BytesToAddress([]byte("client"))
	worker    = workmesh.BytesToAddress([]byte("worker"))
	validator = workmesh.BytesToAddress([]byte("validator"))
)

func newTestServer(t *testing.T) (*httptest.Server, *runtime.Runtime) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(db, admin, events.NoopSink{}, func() uint64 { return 0 })

	ts := httptest.NewServer(api.New(rt, api.Options{AllowedOrigins: "*"}))
	t.Cleanup(ts.Close)
	return ts, rt
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	return body, res.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	body, status := httpGet(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"healthy":true}`, string(body))
}

func TestUnknownJob(t *testing.T) {
	ts, _ := newTestServer(t)
	_, status := httpGet(t, ts.URL+"/jobs/42")
	assert.Equal(t, http.StatusNotFound, status)

	_, status = httpGet(t, ts.URL+"/jobs/not-a-number")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFullSurface(t *testing.T) {
	ts, rt := newTestServer(t)

	mkt := rt.Marketplace()
	require.NoError(t, mkt.Jobs.SetModules(admin, &jobs.Modules{
		Identity:    workmesh.RosterAddress,
		FeeSink:     workmesh.AccrualAddress,
		Reputation:  workmesh.AccrualAddress,
		Certificate: workmesh.CertsAddress,
	}))
	require.NoError(t, mkt.Jobs.SetTimings(admin, &jobs.Timings{CommitWindow: 100, RevealWindow: 100, DisputeWindow: 100}))
	require.NoError(t, mkt.Jobs.SetThresholds(admin, &jobs.Thresholds{
		QuorumMin: 1, QuorumMax: 11, FeeBps: 250, SlashBpsMax: 2000,
	}))

	require.NoError(t, rt.Credit(worker, big.NewInt(1000)))
	require.NoError(t, rt.Approve(worker, big.NewInt(1000)))
	require.NoError(t, rt.Deposit(worker, big.NewInt(1000)))

	id, err := rt.CreateJob(client, big.NewInt(1000))
	require.NoError(t, err)
	require.NoError(t, rt.CommitJob(worker, id, jobs.DeliverableHash([]byte("x"))))

	salt := workmesh.Blake2b([]byte("salt"))
	require.NoError(t, rt.CommitVote(id, validator, voting.CommitHash(id, validator, true, salt)))
	require.NoError(t, rt.RevealVote(id, validator, true, salt))

	// job by id
	body, status := httpGet(t, fmt.Sprintf("%s/jobs/%d", ts.URL, id))
	require.Equal(t, http.StatusOK, status)
	var job map[string]any
	require.NoError(t, json.Unmarshal(body, &job))
	assert.Equal(t, float64(id), job["id"])
	assert.Equal(t, "Committed", job["stateName"])
	assert.Equal(t, worker.String(), job["worker"])

	// readiness
	body, status = httpGet(t, ts.URL+"/jobs/readiness")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"modulesSet":true,"timingsSet":true,"thresholdsSet":true,"fullyConfigured":true}`, string(body))

	// config
	body, status = httpGet(t, ts.URL+"/jobs/config")
	require.Equal(t, http.StatusOK, status)
	var config map[string]map[string]any
	require.NoError(t, json.Unmarshal(body, &config))
	assert.Equal(t, float64(250), config["thresholds"]["FeeBps"])

	// account
	body, status = httpGet(t, ts.URL+"/accounts/"+worker.String())
	require.Equal(t, http.StatusOK, status)
	var acc map[string]string
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, "0x0", acc["tokenBalance"])
	assert.Equal(t, "0x3e8", acc["totalDeposited"])
	assert.Equal(t, "0x3e8", acc["locked"])
	assert.Equal(t, "0x0", acc["available"])

	// bad address
	_, status = httpGet(t, ts.URL+"/accounts/nope")
	assert.Equal(t, http.StatusBadRequest, status)

	// tally
	body, status = httpGet(t, fmt.Sprintf("%s/voting/%d/tally", ts.URL, id))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"approvals":1,"rejections":0,"pendingCommits":0,"closed":false}`, string(body))

	// ballot: commit hash is zeroed after reveal
	body, status = httpGet(t, fmt.Sprintf("%s/voting/%d/ballots/%s", ts.URL, id, validator))
	require.Equal(t, http.StatusOK, status)
	var ballot map[string]any
	require.NoError(t, json.Unmarshal(body, &ballot))
	assert.Equal(t, true, ballot["hasRevealed"])
	assert.Equal(t, true, ballot["approved"])
	assert.Equal(t, workmesh.Bytes32{}.String(), ballot["commitHash"])

	// stats
	body, status = httpGet(t, ts.URL+"/accounts/stats")
	require.Equal(t, http.StatusOK, status)
	var stats map[string]string
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, "0x3e8", stats["totalDeposited"])
	assert.Equal(t, "0x3e8", stats["totalLocked"])
}
