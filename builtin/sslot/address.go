// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"github.com/workmesh/workmesh/workmesh"
)

// Address is a wrapper for storage and retrieval of an address.
type Address struct {
	context *Context
	pos     workmesh.Bytes32
}

func NewAddress(context *Context, pos workmesh.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (workmesh.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return workmesh.Address{}, err
	}
	return workmesh.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr *workmesh.Address) {
	var storage workmesh.Bytes32
	if addr != nil {
		storage = workmesh.BytesToBytes32(addr.Bytes())
	}
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
