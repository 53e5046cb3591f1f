// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	km, err := NewKeyManager()
	require.NoError(t, err)

	seed := make([]byte, 16)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	sk, pk, err := km.GenerateKeyFromSeeds(seed, seed, seed)
	require.NoError(t, err)

	skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
	require.NoError(t, err)
	assert.Len(t, skBytes, 64)
	assert.Len(t, pkBytes, 32)
	assert.Equal(t, pkBytes, skBytes[32:])

	sk2, pk2, err := km.DeserializeKeyPair(skBytes, pkBytes)
	require.NoError(t, err)
	assert.Equal(t, sk, sk2)
	assert.Equal(t, pk, pk2)

	arr := pk.Array()
	assert.Equal(t, pkBytes, arr[:])
}

func TestDeserializeRejectsMismatch(t *testing.T) {
	km, err := NewKeyManager()
	require.NoError(t, err)

	_, err = km.DeserializePublicKey(make([]byte, 31))
	assert.Error(t, err)

	sk := make([]byte, 64)
	pk := make([]byte, 32)
	pk[0] = 1
	_, _, err = km.DeserializeKeyPair(sk, pk)
	assert.Error(t, err)

	_, _, err = km.DeserializeKeyPair(sk[:63], pk)
	assert.Error(t, err)
}

func TestNilKeys(t *testing.T) {
	var sk *PrivateKey
	_, err := sk.Serialize()
	assert.Error(t, err)
	var pk *PublicKey
	_, err = pk.Serialize()
	assert.Error(t, err)
}

func TestGenerateKeyFromSeeds(t *testing.T) {
	km, err := NewKeyManager()
	require.NoError(t, err)

	seed := make([]byte, 16)
	_, _, err = km.GenerateKeyFromSeeds(seed, seed, seed[:15])
	assert.Error(t, err)

	sk1, pk1, err := km.GenerateKeyFromSeeds(seed, seed, seed)
	require.NoError(t, err)
	sk2, pk2, err := km.GenerateKeyFromSeeds(seed, seed, seed)
	require.NoError(t, err)
	assert.Equal(t, pk1.Array(), pk2.Array())
	assert.Equal(t, pk1.Array(), sk1.Public().Array())
	assert.True(t, sk1.SLHDSA().Equal(*sk2.SLHDSA()))

	// PK.seed is the leading half of the public key.
	arr := pk1.Array()
	assert.Equal(t, seed, arr[:16])
}

func TestGenerateKeyIsRandom(t *testing.T) {
	if testing.Short() {
		t.Skip("key generation in short mode")
	}
	km, err := NewKeyManager()
	require.NoError(t, err)
	_, pk1, err := km.GenerateKey()
	require.NoError(t, err)
	_, pk2, err := km.GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, pk1.Array(), pk2.Array())
}
