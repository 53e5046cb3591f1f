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

package sign_test

import (
	"bytes"
	"testing"

	sign "github.com/sphinx-core/qvault/src/core/sphincs/sign/backend"
	"github.com/sphinx-core/qvault/src/core/sphincs/sphincstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignMessageVerifies(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	f := sphincstest.Load(t)
	msg := []byte("sign backend message")

	sig := sphincstest.Sign(t, msg)
	require.Len(t, sig, f.Params.SignatureSize())
	assert.True(t, f.Signer.VerifySignature(msg, sig, f.PK))
	assert.False(t, f.Signer.VerifySignature([]byte("other"), sig, f.PK))
	assert.False(t, f.Signer.VerifySignatureWithContext(msg, []byte("ctx"), sig, f.PK))
	assert.False(t, f.Signer.VerifySignature(msg, sig, nil))
}

func TestSignDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	f := sphincstest.Load(t)
	msg := []byte("deterministic")

	a, err := f.Signer.SignDeterministic(msg, f.SK)
	require.NoError(t, err)
	b, err := f.Signer.SignDeterministic(msg, f.SK)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, f.Signer.VerifySignature(msg, a, f.PK))
}

func TestHedgedSignaturesUseRandomizer(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	f := sphincstest.Load(t)
	signer := sign.NewSphincsManager(f.Keys, f.Keys.Params).WithRand(bytes.NewReader(bytes.Repeat([]byte{0xAA}, 16)))
	msg := []byte("hedged")

	sig, err := signer.SignMessage(msg, f.SK)
	require.NoError(t, err)
	det, err := signer.SignDeterministic(msg, f.SK)
	require.NoError(t, err)
	assert.NotEqual(t, sig[:16], det[:16], "randomizer R must depend on addrnd")
	assert.True(t, signer.VerifySignature(msg, sig, f.PK))

	// The reader is exhausted now.
	_, err = signer.SignMessage(msg, f.SK)
	assert.Error(t, err)
}

func TestContextTooLong(t *testing.T) {
	f := sphincstest.Load(t)
	_, err := f.Signer.SignMessageWithContext([]byte("m"), make([]byte, 256), f.SK)
	assert.ErrorIs(t, err, sign.ErrContextTooLong)
	_, err = f.Signer.SignMessage([]byte("m"), nil)
	assert.Error(t, err)
}
