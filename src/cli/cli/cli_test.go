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

// go/src/cli/cli/cli_test.go
package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	keystore "github.com/sphinx-core/qvault/src/core/sphincs/key/config"
	"github.com/sphinx-core/qvault/src/core/sphincs/sphincstest"
	"github.com/sphinx-core/qvault/src/core/vault"
	qhttp "github.com/sphinx-core/qvault/src/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	keyDir  string
	url     string
	manager *vault.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("QVAULT_HOME", t.TempDir())
	reg := vault.NewStaticRegistry()
	m := vault.NewManager(vault.NewMemoryStore(), reg)
	srv := httptest.NewServer(qhttp.NewServer("", m, reg, nil, nil).Handler())
	t.Cleanup(srv.Close)
	return &env{keyDir: filepath.Join(t.TempDir(), "keys"), url: srv.URL, manager: m}
}

// installFixtureKey stores the shared test key in the keystore so that no
// test needs to derive a fresh key pair.
func (e *env) installFixtureKey(t *testing.T) {
	t.Helper()
	f := sphincstest.Load(t)
	ks, err := keystore.NewKeyStore(e.keyDir, f.Params)
	require.NoError(t, err)
	require.NoError(t, ks.SaveKeyPair(f.SKBytes, f.PKBytes))
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", e.url, "--key-dir", e.keyDir, "--owner", "alice"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "keygen")
	require.NoError(t, err)
	assert.Contains(t, out, "public key:  0x")
	assert.Contains(t, out, "fingerprint: ")

	info, err := os.Stat(filepath.Join(e.keyDir, keystore.KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = e.run(t, "keygen")
	assert.ErrorContains(t, err, "already exists")

	pub, err := e.run(t, "pubkey")
	require.NoError(t, err)
	assert.Equal(t, out, pub)
}

func TestPubkeyWithoutKey(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "pubkey")
	assert.ErrorContains(t, err, "qvault keygen")
}

func TestRegisterLockStatusAbort(t *testing.T) {
	e := newEnv(t)
	e.installFixtureKey(t)

	out, err := e.run(t, "register", "vault-1")
	require.NoError(t, err)
	assert.Contains(t, out, "vault vault-1 registered to alice")

	out, err = e.run(t, "lock", "vault-1")
	require.NoError(t, err)
	assert.Contains(t, out, "vault vault-1 locked")
	assert.Contains(t, out, "challenge: ")

	_, err = e.run(t, "lock", "vault-1")
	assert.ErrorIs(t, err, vault.ErrAlreadyLocked)

	require.NoError(t, e.manager.UploadChunk(context.Background(), "vault-1", 2, []byte{1}))
	out, err = e.run(t, "status", "vault-1")
	require.NoError(t, err)
	assert.Contains(t, out, "lock:        Locked")
	assert.Contains(t, out, "phase:       Uploading")
	assert.Contains(t, out, "chunks:      1/10")

	_, err = e.run(t, "unlock", "vault-1")
	assert.ErrorContains(t, err, "already in phase Uploading")

	out, err = e.run(t, "abort", "vault-1", "--reason", "testing")
	require.NoError(t, err)
	assert.Contains(t, out, "session aborted")

	out, err = e.run(t, "status", "vault-1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"phase": "Aborted"`)
	assert.Contains(t, out, `"abort_reason": "testing"`)

	_, err = e.run(t, "unlock", "vault-1")
	assert.ErrorContains(t, err, "lock it again")

	out, err = e.run(t, "rechallenge", "vault-1")
	require.NoError(t, err)
	assert.Contains(t, out, "challenge: ")
}

func TestUnlockRequiresLock(t *testing.T) {
	e := newEnv(t)
	e.installFixtureKey(t)
	_, err := e.run(t, "register", "vault-1")
	require.NoError(t, err)

	_, err = e.run(t, "status", "vault-2")
	assert.ErrorIs(t, err, vault.ErrUnknownVault)

	_, err = e.run(t, "lock", "vault-1")
	require.NoError(t, err)
	require.NoError(t, e.manager.UploadChunk(context.Background(), "vault-1", 0, []byte{1}))
	require.NoError(t, e.manager.Abort(context.Background(), "vault-1", "x"))
	_, err = e.run(t, "lock", "vault-1")
	require.NoError(t, err)

	// Another key cannot unlock the vault.
	other := filepath.Join(t.TempDir(), "other")
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", e.url, "--key-dir", other, "keygen"})
	require.NoError(t, cmd.Execute())
	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", e.url, "--key-dir", other, "unlock", "vault-1"})
	assert.ErrorContains(t, cmd.Execute(), "is bound to key")

	// Nor can it take over the binding.
	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", e.url, "--key-dir", other, "--owner", "alice", "register", "vault-1"})
	assert.ErrorContains(t, cmd.Execute(), "already bound")
}

func TestUnlock(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	e := newEnv(t)
	e.installFixtureKey(t)
	_, err := e.run(t, "register", "vault-1")
	require.NoError(t, err)

	_, err = e.run(t, "unlock", "vault-1")
	assert.ErrorContains(t, err, "is not locked")

	_, err = e.run(t, "lock", "vault-1")
	require.NoError(t, err)

	start := time.Now()
	out, err := e.run(t, "unlock", "vault-1")
	require.NoError(t, err)
	t.Logf("unlock took %s", time.Since(start))
	assert.Contains(t, out, "[44/44] finalize")
	assert.Contains(t, out, "vault vault-1 unlocked")

	out, err = e.run(t, "status", "vault-1")
	require.NoError(t, err)
	assert.Contains(t, out, "lock:        Unlocked")
}
