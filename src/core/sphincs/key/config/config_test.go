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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	ks, err := NewKeyStore(dir, params.SHA2_128s)
	require.NoError(t, err)

	sk := bytes.Repeat([]byte{1}, 64)
	pk := bytes.Repeat([]byte{2}, 32)
	require.NoError(t, ks.SaveKeyPair(sk, pk))

	info, err := os.Stat(ks.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	gotSK, gotPK, err := ks.LoadKeyPair()
	require.NoError(t, err)
	assert.Equal(t, sk, gotSK)
	assert.Equal(t, pk, gotPK)
}

func TestKeyStoreRejectsBadData(t *testing.T) {
	ks, err := NewKeyStore(t.TempDir(), params.SHA2_128s)
	require.NoError(t, err)

	assert.Error(t, ks.SaveKeyPair(nil, make([]byte, 32)))
	assert.Error(t, ks.SaveKeyPair(make([]byte, 10), make([]byte, 32)))

	_, _, err = ks.LoadKeyPair()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(ks.Path(), []byte("short"), 0o600))
	_, _, err = ks.LoadKeyPair()
	assert.Error(t, err)
}
