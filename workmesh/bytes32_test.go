// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package workmesh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes32MarshalUnmarshal(t *testing.T) {
	originalHex := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var unmarshaled Bytes32
	err := json.Unmarshal([]byte(originalHex), &unmarshaled)
	assert.NoError(t, err)

	marshaled, err := json.Marshal(unmarshaled)
	assert.NoError(t, err)
	assert.Equal(t, originalHex, string(marshaled))
}

func TestParseBytes32(t *testing.T) {
	b := MustParseBytes32("0x0102030000000000000000000000000000000000000000000000000000000000")
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes()[:3])

	_, err := ParseBytes32("0xzz")
	assert.Error(t, err)

	assert.True(t, Bytes32{}.IsZero())
	assert.False(t, BytesToBytes32([]byte("x")).IsZero())
}

func TestBlake2bChunked(t *testing.T) {
	// multi-chunk write must agree with single-buffer hashing
	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("a"), []byte("b")))
	assert.NotEqual(t, Blake2b([]byte("a")), Blake2b([]byte("b")))
}

func TestAddressRoundTrip(t *testing.T) {
	addr := BytesToAddress([]byte("worker"))
	parsed, err := ParseAddress(addr.String())
	assert.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	data, err := json.Marshal(&addr)
	assert.NoError(t, err)
	var back Address
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, addr, back)
}
