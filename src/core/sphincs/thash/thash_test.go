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

package thash

import (
	"bytes"
	"crypto/sha256"
	"testing"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p = params.SHA2_128s

func TestBase2b(t *testing.T) {
	assert.Equal(t, []uint32{1, 2, 3, 4}, Base2b([]byte{0x12, 0x34}, 4, 4))
	assert.Equal(t, []uint32{0xABC, 0xDEF}, Base2b([]byte{0xAB, 0xCD, 0xEF}, 12, 2))
	// Only the leading bits are consumed when outLen*b is not a byte multiple.
	assert.Equal(t, []uint32{0xABC}, Base2b([]byte{0xAB, 0xCD}, 12, 1))
}

func TestChainDigitsChecksum(t *testing.T) {
	zeros := make([]byte, p.N)
	digits := ChainDigits(p, zeros)
	require.Len(t, digits, p.Len())
	// Checksum of 32 zero digits is 32*15 = 0x1E0, left shifted by 4 bits.
	assert.Equal(t, []uint32{1, 14, 0}, digits[p.Len1():])

	ones := bytes.Repeat([]byte{0xFF}, p.N)
	digits = ChainDigits(p, ones)
	assert.Equal(t, []uint32{0, 0, 0}, digits[p.Len1():])
	for _, d := range digits[:p.Len1()] {
		assert.Equal(t, uint32(15), d)
	}
}

func TestParseDigestMasksIndices(t *testing.T) {
	digest := make([]byte, p.M)
	for i := p.MDLen(); i < p.M; i++ {
		digest[i] = 0xFF
	}
	digest[0] = 0x42
	md, idxTree, idxLeaf := ParseDigest(p, digest)
	assert.Len(t, md, p.MDLen())
	assert.Equal(t, byte(0x42), md[0])
	assert.Equal(t, uint64(1)<<54-1, idxTree)
	assert.Equal(t, uint32(511), idxLeaf)

	// md must not alias the digest.
	digest[0] = 0
	assert.Equal(t, byte(0x42), md[0])
}

func TestLayerIndices(t *testing.T) {
	tree, leaf := LayerIndices(p, 0x3FF, 5, 0)
	assert.Equal(t, uint64(0x3FF), tree)
	assert.Equal(t, uint32(5), leaf)

	tree, leaf = LayerIndices(p, 0x3FF, 5, 1)
	assert.Equal(t, uint64(1), tree)
	assert.Equal(t, uint32(511), leaf)

	tree, leaf = LayerIndices(p, 0x3FF, 5, 2)
	assert.Equal(t, uint64(0), tree)
	assert.Equal(t, uint32(1), leaf)
}

func TestPureMessage(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 'h', 'i'}, PureMessage(nil, []byte("hi")))
	assert.Equal(t, []byte{0, 2, 'c', 'x', 'm'}, PureMessage([]byte("cx"), []byte("m")))
}

func TestAddressCompressed(t *testing.T) {
	var a Address
	a.SetLayerAddress(6)
	a.SetTreeAddress(0x0102030405060708)
	a.SetTypeAndClear(Tree)
	a.SetTreeHeight(9)
	a.SetTreeIndex(0xA0B0C0D0)

	c := a.Compressed()
	assert.Equal(t, byte(6), c[0])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, c[1:9])
	assert.Equal(t, byte(Tree), c[9])
	assert.Equal(t, []byte{0, 0, 0, 0}, c[10:14])
	assert.Equal(t, []byte{0, 0, 0, 9}, c[14:18])
	assert.Equal(t, []byte{0xA0, 0xB0, 0xC0, 0xD0}, c[18:22])
	assert.Equal(t, uint32(0xA0B0C0D0), a.TreeIndex())

	a.SetTypeAndClear(WOTSHash)
	assert.Equal(t, uint32(0), a.TreeIndex())
	assert.Equal(t, uint32(0), a.KeyPairAddress())
}

func TestSHA2MatchesDirectHash(t *testing.T) {
	seed := bytes.Repeat([]byte{0x5A}, p.N)
	h := NewSHA2(p, seed)

	var a Address
	a.SetLayerAddress(3)
	a.SetTypeAndClear(WOTSHash)
	a.SetChainAddress(7)
	msg := bytes.Repeat([]byte{0x11}, p.N)

	c := a.Compressed()
	direct := sha256.New()
	direct.Write(seed)
	direct.Write(make([]byte, 64-p.N))
	direct.Write(c[:])
	direct.Write(msg)
	want := direct.Sum(nil)[:p.N]

	assert.Equal(t, want, h.F(&a, msg))
	// The snapshot must not be consumed by a call.
	assert.Equal(t, want, h.F(&a, msg))
	assert.Equal(t, seed, h.PKSeed())
}

func TestMessageFunctionLengths(t *testing.T) {
	h := NewSHA2(p, make([]byte, p.N))
	r := bytes.Repeat([]byte{0x5A}, p.N)
	digest := h.HMsg(r, make([]byte, p.N), []byte("challenge"))
	assert.Len(t, digest, p.M)
	assert.NotEqual(t, digest, h.HMsg(r, make([]byte, p.N), []byte("challengf")))
	assert.Len(t, mgf1([]byte("seed"), 70), 70)
}

func TestEvaluateChainComposes(t *testing.T) {
	h := NewSHA2(p, make([]byte, p.N))
	var base Address
	base.SetTypeAndClear(WOTSHash)
	base.SetChainAddress(4)
	x := bytes.Repeat([]byte{0x33}, p.N)

	a := base
	full, err := h.EvaluateChain(&a, x, 0, 5)
	require.NoError(t, err)

	a = base
	mid, err := h.EvaluateChain(&a, x, 0, 3)
	require.NoError(t, err)
	a = base
	rest, err := h.EvaluateChain(&a, mid, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, full, rest)

	a = base
	same, err := h.EvaluateChain(&a, x, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, x, same)
}

func TestEvaluateChainRejectsBadInput(t *testing.T) {
	h := NewSHA2(p, make([]byte, p.N))
	var a Address
	_, err := h.EvaluateChain(&a, make([]byte, p.N), 10, 6)
	assert.ErrorIs(t, err, ErrChainBounds)
	_, err = h.EvaluateChain(&a, make([]byte, p.N-1), 0, 1)
	assert.ErrorIs(t, err, ErrNodeLength)
}

func TestVerifyAuthPathRejectsBadInput(t *testing.T) {
	h := NewSHA2(p, make([]byte, p.N))
	var a Address
	a.SetTypeAndClear(Tree)
	_, err := h.VerifyAuthPath(&a, make([]byte, p.N), make([]byte, p.N+1), 0)
	assert.ErrorIs(t, err, ErrPathLength)
	_, err = h.VerifyAuthPath(&a, make([]byte, 3), make([]byte, p.N), 0)
	assert.ErrorIs(t, err, ErrNodeLength)
}

func TestVerifyAuthPathOrdersSiblings(t *testing.T) {
	h := NewSHA2(p, make([]byte, p.N))
	leaf := bytes.Repeat([]byte{1}, p.N)
	sibling := bytes.Repeat([]byte{2}, p.N)

	var a Address
	a.SetTypeAndClear(Tree)
	left, err := h.VerifyAuthPath(&a, leaf, sibling, 0)
	require.NoError(t, err)

	var b Address
	b.SetTypeAndClear(Tree)
	b.SetTreeHeight(1)
	b.SetTreeIndex(0)
	assert.Equal(t, h.H(&b, leaf, sibling), left)

	a.SetTypeAndClear(Tree)
	right, err := h.VerifyAuthPath(&a, leaf, sibling, 1)
	require.NoError(t, err)
	assert.Equal(t, h.H(&b, sibling, leaf), right)
}
