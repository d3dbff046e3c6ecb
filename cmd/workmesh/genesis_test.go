// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/workmesh/builtin"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/lvldb"
	"github.com/workmesh/workmesh/runtime"
	"github.com/workmesh/workmesh/workmesh"
)

const genesisYAML = `
admin: "0x0000000000000000000000000000000061646d69"
modules:
  identity: "0x0000000000000000000000000000000000000001"
  feeSink: "0x0000000000000000000000000000000000000002"
  reputation: "0x0000000000000000000000000000000000000003"
  certificate: "0x0000000000000000000000000000000000000004"
timings:
  commitWindow: 3600
  revealWindow: 3600
  disputeWindow: 7200
thresholds:
  approvalThresholdBps: 5000
  quorumMin: 1
  quorumMax: 11
  feeBps: 250
  slashBpsMax: 2000
emergencyAccounts:
  - "0x00000000000000000000000000000000000000aa"
alloc:
  - address: "0x00000000000000000000000000000000000000bb"
    balance: "1000000"
`

func writeGenesis(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndApplyGenesis(t *testing.T) {
	gene, err := LoadGenesis(writeGenesis(t, genesisYAML))
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(db, gene.AdminAddress(), events.NoopSink{}, nil)
	require.NoError(t, gene.Apply(rt))

	require.NoError(t, rt.Read(func(m *builtin.Marketplace) error {
		readiness, err := m.Jobs.GetReadiness()
		require.NoError(t, err)
		assert.True(t, readiness.FullyConfigured())

		timings, err := m.Jobs.GetTimings()
		require.NoError(t, err)
		assert.Equal(t, uint64(7200), timings.DisputeWindow)

		guardian := workmesh.MustParseAddress("0x00000000000000000000000000000000000000aa")
		authorized, err := m.Roster.IsEmergencyAuthorized(guardian)
		require.NoError(t, err)
		assert.True(t, authorized)

		funded := workmesh.MustParseAddress("0x00000000000000000000000000000000000000bb")
		balance, err := m.Ledger.TokenBalance(funded)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(1_000_000), balance)
		return nil
	}))
}

func TestApplyGenesisRejectsBadAlloc(t *testing.T) {
	gene, err := LoadGenesis(writeGenesis(t, `
admin: "0x0000000000000000000000000000000061646d69"
alloc:
  - address: "0x00000000000000000000000000000000000000bb"
    balance: "not-a-number"
`))
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(db, gene.AdminAddress(), events.NoopSink{}, nil)
	assert.ErrorContains(t, gene.Apply(rt), "bad balance")
}

func TestLoadGenesisValidation(t *testing.T) {
	_, err := LoadGenesis(writeGenesis(t, "modules: {}\n"))
	assert.ErrorContains(t, err, "admin is required")

	_, err = LoadGenesis(writeGenesis(t, "admin: nope\n"))
	assert.ErrorContains(t, err, "admin")

	_, err = LoadGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyGenesisRejectsBadSections(t *testing.T) {
	gene, err := LoadGenesis(writeGenesis(t, `
admin: "0x0000000000000000000000000000000061646d69"
timings:
  commitWindow: 0
  revealWindow: 1
  disputeWindow: 1
`))
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := runtime.New(db, gene.AdminAddress(), events.NoopSink{}, nil)
	assert.Error(t, gene.Apply(rt))
}
