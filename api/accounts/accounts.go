// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accounts exposes the stake ledger surface over HTTP: a single
// account's escrow bookkeeping and the global totals.
package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/workmesh/workmesh/api/utils"
	"github.com/workmesh/workmesh/builtin"
	"github.com/workmesh/workmesh/runtime"
	"github.com/workmesh/workmesh/workmesh"
)

// Account is the queryable escrow surface of one account.
type Account struct {
	TokenBalance   *math.HexOrDecimal256 `json:"tokenBalance"`
	TotalDeposited *math.HexOrDecimal256 `json:"totalDeposited"`
	Locked         *math.HexOrDecimal256 `json:"locked"`
	Available      *math.HexOrDecimal256 `json:"available"`
	Allowance      *math.HexOrDecimal256 `json:"allowance"`
}

// Stats aggregates the marketplace-wide totals.
type Stats struct {
	TotalDeposited  *math.HexOrDecimal256 `json:"totalDeposited"`
	TotalLocked     *math.HexOrDecimal256 `json:"totalLocked"`
	TotalFeeAccrued *math.HexOrDecimal256 `json:"totalFeeAccrued"`
	TotalFeeBurned  *math.HexOrDecimal256 `json:"totalFeeBurned"`
}

type Accounts struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Accounts {
	return &Accounts{rt: rt}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := workmesh.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var response Account
	if err := a.rt.Read(func(m *builtin.Marketplace) error {
		acc, err := m.Ledger.GetAccount(*addr)
		if err != nil {
			return err
		}
		allowance, err := m.Ledger.Allowance(*addr)
		if err != nil {
			return err
		}
		balance, err := m.Ledger.TokenBalance(*addr)
		if err != nil {
			return err
		}
		response = Account{
			TokenBalance:   (*math.HexOrDecimal256)(balance),
			TotalDeposited: (*math.HexOrDecimal256)(acc.TotalDeposited),
			Locked:         (*math.HexOrDecimal256)(acc.Locked),
			Available:      (*math.HexOrDecimal256)(acc.Available()),
			Allowance:      (*math.HexOrDecimal256)(allowance),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &response)
}

func (a *Accounts) handleGetStats(w http.ResponseWriter, _ *http.Request) error {
	var response Stats
	if err := a.rt.Read(func(m *builtin.Marketplace) error {
		read := func(get func() (*big.Int, error), into **math.HexOrDecimal256) error {
			value, err := get()
			if err != nil {
				return err
			}
			*into = (*math.HexOrDecimal256)(value)
			return nil
		}
		if err := read(m.Ledger.TotalDeposited, &response.TotalDeposited); err != nil {
			return err
		}
		if err := read(m.Ledger.TotalLocked, &response.TotalLocked); err != nil {
			return err
		}
		if err := read(m.FeeSink.TotalAccrued, &response.TotalFeeAccrued); err != nil {
			return err
		}
		return read(m.FeeSink.TotalBurned, &response.TotalFeeBurned)
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &response)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/stats").
		Methods(http.MethodGet).
		Name("GET /accounts/stats").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStats))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
