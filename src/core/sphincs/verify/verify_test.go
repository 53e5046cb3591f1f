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

package verify_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cloudflare/circl/sign/slhdsa"
	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	"github.com/sphinx-core/qvault/src/core/sphincs/sphincstest"
	"github.com/sphinx-core/qvault/src/core/sphincs/thash"
	"github.com/sphinx-core/qvault/src/core/sphincs/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p = params.SHA2_128s

// countingHasher counts tweakable hash evaluations.
type countingHasher struct {
	thash.Hasher
	calls int
}

func (c *countingHasher) Digest(r, pkRoot, msg []byte) []byte {
	c.calls++
	return c.Hasher.Digest(r, pkRoot, msg)
}

func (c *countingHasher) Leaf(adrs *thash.Address, sk []byte) []byte {
	c.calls++
	return c.Hasher.Leaf(adrs, sk)
}

func (c *countingHasher) EvaluateChain(adrs *thash.Address, in []byte, start, steps uint32) ([]byte, error) {
	c.calls += int(steps)
	return c.Hasher.EvaluateChain(adrs, in, start, steps)
}

func (c *countingHasher) VerifyAuthPath(adrs *thash.Address, leaf, path []byte, index uint32) ([]byte, error) {
	c.calls += len(path) / p.N
	return c.Hasher.VerifyAuthPath(adrs, leaf, path, index)
}

func (c *countingHasher) Compress(adrs *thash.Address, nodes []byte) []byte {
	c.calls++
	return c.Hasher.Compress(adrs, nodes)
}

// rejectingHasher fails every chain and path evaluation.
type rejectingHasher struct{ thash.Hasher }

var errRejected = errors.New("rejected")

func (rejectingHasher) EvaluateChain(*thash.Address, []byte, uint32, uint32) ([]byte, error) {
	return nil, errRejected
}

func (rejectingHasher) VerifyAuthPath(*thash.Address, []byte, []byte, uint32) ([]byte, error) {
	return nil, errRejected
}

func challenge() []byte {
	c := make([]byte, 32)
	for i := range c {
		c[i] = byte(0xF0 ^ i)
	}
	return c
}

func runAll(t *testing.T, h thash.Hasher, sig, pk, msg []byte) (*verify.State, error) {
	t.Helper()
	st := &verify.State{}
	for step := range verify.FORSSteps {
		if err := verify.FORSStep(p, h, st, step, sig, pk, msg); err != nil {
			return st, err
		}
	}
	for counter := range verify.WOTSSteps(p) {
		if err := verify.WOTSStep(p, h, st, counter, sig); err != nil {
			return st, err
		}
	}
	return st, verify.CheckRoot(p, st, pk)
}

func TestRanges(t *testing.T) {
	var got [][2]int
	for step := range verify.FORSSteps {
		s, e := verify.FORSTreeRange(p, step)
		got = append(got, [2]int{s, e})
	}
	assert.Equal(t, [][2]int{{0, 5}, {5, 10}, {10, 14}}, got)

	got = nil
	for sub := range verify.ChainSteps {
		s, e := verify.ChainRange(p, sub)
		got = append(got, [2]int{s, e})
	}
	assert.Equal(t, [][2]int{{0, 12}, {12, 24}, {24, 35}}, got)
	assert.Equal(t, 28, verify.WOTSSteps(p))
}

func TestCheckLayout(t *testing.T) {
	sig := make([]byte, p.SignatureSize())
	assert.ErrorIs(t, verify.CheckLayout(p, sig[:100]), verify.ErrSignatureLength)
	assert.ErrorIs(t, verify.CheckLayout(p, sig), verify.ErrMissingSegment)

	sig[p.FORSOffset()+1] = 1
	assert.ErrorIs(t, verify.CheckLayout(p, sig), verify.ErrMissingSegment)

	sig[p.HTOffset()+1] = 1
	assert.NoError(t, verify.CheckLayout(p, sig))
}

func TestStepwiseAcceptsHonestSignature(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	f := sphincstest.Load(t)
	msg := thash.PureMessage(nil, challenge())
	sig := sphincstest.Sign(t, challenge())
	require.True(t, f.Signer.VerifySignature(challenge(), sig, f.PK))

	h := &countingHasher{Hasher: thash.NewSHA2(p, f.PKBytes[:p.N])}
	st := &verify.State{}

	for step := range verify.FORSSteps {
		h.calls = 0
		require.NoError(t, verify.FORSStep(p, h, st, step, sig, f.PKBytes, msg))
		assert.LessOrEqual(t, h.calls, 5*(1+p.A)+1, "FORS step %d", step)
	}
	require.Len(t, st.Node, p.N)

	for counter := range verify.WOTSSteps(p) {
		h.calls = 0
		require.NoError(t, verify.WOTSStep(p, h, st, counter, sig))
		assert.LessOrEqual(t, h.calls, 12*(p.W()-1), "WOTS step %d", counter)
	}
	assert.NoError(t, verify.CheckRoot(p, st, f.PKBytes))
}

func TestStepwiseRejectsCorruption(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	f := sphincstest.Load(t)
	msg := thash.PureMessage(nil, challenge())
	sig := sphincstest.Sign(t, challenge())

	for _, pos := range []int{3, p.FORSOffset() + 100, p.HTOffset() - 1, p.LayerOffset(3) + 10, p.SignatureSize() - 1} {
		bad := append([]byte(nil), sig...)
		bad[pos] ^= 0x80
		_, err := runAll(t, thash.NewSHA2(p, f.PKBytes[:p.N]), bad, f.PKBytes, msg)
		assert.ErrorIs(t, err, verify.ErrRootMismatch, "flip at %d", pos)
	}

	_, err := runAll(t, thash.NewSHA2(p, f.PKBytes[:p.N]), sig, f.PKBytes, thash.PureMessage(nil, []byte("other")))
	assert.ErrorIs(t, err, verify.ErrRootMismatch)
}

func TestStepwiseAcceptsIndependentSigner(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	seeds := bytes.Repeat([]byte{0x5C}, 3*p.N)
	pub, priv, err := slhdsa.GenerateKey(bytes.NewReader(seeds), slhdsa.SHA2_128s)
	require.NoError(t, err)
	pk, err := pub.MarshalBinary()
	require.NoError(t, err)

	for _, ctx := range [][]byte{nil, []byte("qvault")} {
		sig, err := slhdsa.SignDeterministic(&priv, slhdsa.NewMessage(challenge()), ctx)
		require.NoError(t, err)
		require.True(t, slhdsa.Verify(&pub, slhdsa.NewMessage(challenge()), sig, ctx))

		msg := thash.PureMessage(ctx, challenge())
		_, err = runAll(t, thash.NewSHA2(p, pk[:p.N]), sig, pk, msg)
		require.NoError(t, err, "context %q", ctx)

		for _, pos := range []int{0, p.FORSOffset() + 7, p.LayerOffset(6) + p.WOTSSize()} {
			bad := append([]byte(nil), sig...)
			bad[pos] ^= 0x01
			_, err = runAll(t, thash.NewSHA2(p, pk[:p.N]), bad, pk, msg)
			assert.ErrorIs(t, err, verify.ErrRootMismatch, "flip at %d", pos)
		}
	}
}

func TestRejectingHasherFailsSteps(t *testing.T) {
	f := sphincstest.Load(t)
	sig := make([]byte, p.SignatureSize())
	sig[0] = 1
	h := rejectingHasher{Hasher: thash.NewSHA2(p, f.PKBytes[:p.N])}

	st := &verify.State{}
	err := verify.FORSStep(p, h, st, 0, sig, f.PKBytes, []byte("m"))
	assert.ErrorIs(t, err, verify.ErrFORS)

	st = &verify.State{Node: make([]byte, p.N)}
	err = verify.WOTSStep(p, h, st, 0, sig)
	assert.ErrorIs(t, err, verify.ErrWOTS)
}

func TestStepsRejectOutOfOrderState(t *testing.T) {
	f := sphincstest.Load(t)
	h := thash.NewSHA2(p, f.PKBytes[:p.N])
	sig := make([]byte, p.SignatureSize())

	assert.ErrorIs(t, verify.FORSStep(p, h, &verify.State{}, 3, sig, f.PKBytes, nil), verify.ErrStepOutOfRange)
	assert.ErrorIs(t, verify.FORSStep(p, h, &verify.State{}, 1, sig, f.PKBytes, nil), verify.ErrStepOutOfRange)
	assert.ErrorIs(t, verify.WOTSStep(p, h, &verify.State{}, 0, sig), verify.ErrStepOutOfRange)
	assert.ErrorIs(t, verify.WOTSStep(p, h, &verify.State{Node: make([]byte, p.N)}, 3, sig), verify.ErrStepOutOfRange)
	assert.ErrorIs(t, verify.WOTSStep(p, h, &verify.State{}, 28, sig), verify.ErrStepOutOfRange)
}

func TestStateCloneAndReset(t *testing.T) {
	st := verify.State{MD: []byte{1}, IdxTree: 4, IdxLeaf: 2, Node: []byte{9}}
	c := st.Clone()
	c.MD[0] = 7
	assert.Equal(t, byte(1), st.MD[0])

	st.Reset()
	assert.Equal(t, verify.State{}, st)
}
