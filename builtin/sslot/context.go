// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"github.com/workmesh/workmesh/state"
	"github.com/workmesh/workmesh/workmesh"
)

// Context binds a builtin component to its storage address within the
// world state. Each component keeps its entire persisted surface under
// its own address, keyed by slot positions.
type Context struct {
	address workmesh.Address
	state   *state.State
}

func NewContext(address workmesh.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() workmesh.Address {
	return c.address
}
