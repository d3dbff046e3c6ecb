// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/workmesh/workmesh/builtin"
	"github.com/workmesh/workmesh/builtin/jobs"
	"github.com/workmesh/workmesh/runtime"
	"github.com/workmesh/workmesh/workmesh"
)

// Genesis is the marketplace bootstrap configuration. The administrator
// is mandatory; the configuration sections are applied in order when
// present, emergency accounts go onto the roster and alloc entries are
// credited as token balances.
type Genesis struct {
	Admin   string `yaml:"admin"`
	Modules *struct {
		Identity    string `yaml:"identity"`
		FeeSink     string `yaml:"feeSink"`
		Reputation  string `yaml:"reputation"`
		Certificate string `yaml:"certificate"`
	} `yaml:"modules"`
	Timings *struct {
		CommitWindow  uint64 `yaml:"commitWindow"`
		RevealWindow  uint64 `yaml:"revealWindow"`
		DisputeWindow uint64 `yaml:"disputeWindow"`
	} `yaml:"timings"`
	Thresholds *struct {
		ApprovalThresholdBps uint64 `yaml:"approvalThresholdBps"`
		QuorumMin            uint64 `yaml:"quorumMin"`
		QuorumMax            uint64 `yaml:"quorumMax"`
		FeeBps               uint64 `yaml:"feeBps"`
		SlashBpsMax          uint64 `yaml:"slashBpsMax"`
	} `yaml:"thresholds"`
	EmergencyAccounts []string `yaml:"emergencyAccounts"`
	Alloc             []struct {
		Address string `yaml:"address"`
		Balance string `yaml:"balance"`
	} `yaml:"alloc"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, errors.WithMessage(err, "read genesis")
	}
	var gene Genesis
	if err := yaml.Unmarshal(data, &gene); err != nil {
		return nil, errors.WithMessage(err, "parse genesis")
	}
	if gene.Admin == "" {
		return nil, errors.New("genesis: admin is required")
	}
	if _, err := workmesh.ParseAddress(gene.Admin); err != nil {
		return nil, errors.WithMessage(err, "genesis: admin")
	}
	return &gene, nil
}

// AdminAddress returns the parsed administrator account.
func (g *Genesis) AdminAddress() workmesh.Address {
	return workmesh.MustParseAddress(g.Admin)
}

// Apply configures a freshly wired runtime from the genesis sections.
func (g *Genesis) Apply(rt *runtime.Runtime) error {
	admin := g.AdminAddress()
	return rt.Execute("genesis", func(m *builtin.Marketplace, _ uint64) error {
		for _, alloc := range g.Alloc {
			addr, err := workmesh.ParseAddress(alloc.Address)
			if err != nil {
				return errors.WithMessage(err, "genesis: alloc")
			}
			balance, ok := math.ParseBig256(alloc.Balance)
			if !ok || balance.Sign() < 0 {
				return errors.Errorf("genesis: alloc: bad balance %q", alloc.Balance)
			}
			if err := m.Ledger.Credit(*addr, balance); err != nil {
				return err
			}
		}
		if g.Modules != nil {
			modules := &jobs.Modules{}
			for _, bind := range []struct {
				raw  string
				into *workmesh.Address
			}{
				{g.Modules.Identity, &modules.Identity},
				{g.Modules.FeeSink, &modules.FeeSink},
				{g.Modules.Reputation, &modules.Reputation},
				{g.Modules.Certificate, &modules.Certificate},
			} {
				addr, err := workmesh.ParseAddress(bind.raw)
				if err != nil {
					return errors.WithMessage(err, "genesis: modules")
				}
				*bind.into = *addr
			}
			if err := m.Jobs.SetModules(admin, modules); err != nil {
				return err
			}
		}
		if g.Timings != nil {
			if err := m.Jobs.SetTimings(admin, &jobs.Timings{
				CommitWindow:  g.Timings.CommitWindow,
				RevealWindow:  g.Timings.RevealWindow,
				DisputeWindow: g.Timings.DisputeWindow,
			}); err != nil {
				return err
			}
		}
		if g.Thresholds != nil {
			if err := m.Jobs.SetThresholds(admin, &jobs.Thresholds{
				ApprovalThresholdBps: g.Thresholds.ApprovalThresholdBps,
				QuorumMin:            g.Thresholds.QuorumMin,
				QuorumMax:            g.Thresholds.QuorumMax,
				FeeBps:               g.Thresholds.FeeBps,
				SlashBpsMax:          g.Thresholds.SlashBpsMax,
			}); err != nil {
				return err
			}
		}
		for _, raw := range g.EmergencyAccounts {
			addr, err := workmesh.ParseAddress(raw)
			if err != nil {
				return errors.WithMessage(err, "genesis: emergencyAccounts")
			}
			if err := m.Roster.Grant(admin, *addr); err != nil {
				return err
			}
		}
		return nil
	})
}
