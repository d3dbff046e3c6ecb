// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package workmesh

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlake2b(t *testing.T) {
	single := Blake2b([]byte("payload"))
	multi := Blake2b([]byte("pay"), []byte("load"))

	// hashing the concatenation or the parts must agree
	assert.Equal(t, single, multi)
	assert.NotEqual(t, single, Blake2b([]byte("other")))
}

func TestBlake2bFn(t *testing.T) {
	h := Blake2bFn(func(w io.Writer) {
		w.Write([]byte("streamed"))
	})
	assert.Equal(t, Blake2b([]byte("streamed")), h)
}

func TestKeccak256(t *testing.T) {
	single := Keccak256([]byte("payload"))
	multi := Keccak256([]byte("pay"), []byte("load"))

	assert.Equal(t, single, multi)
	assert.NotEqual(t, single, Keccak256([]byte("other")))

	// distinct hash family from blake2b, so slot positions and
	// commit hashes never collide by construction
	assert.NotEqual(t, Blake2b([]byte("payload")), single)
}
