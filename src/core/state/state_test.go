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

// go/src/core/state/state_test.go
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sphinx-core/qvault/src/core/sphincs/sphincstest"
	"github.com/sphinx-core/qvault/src/core/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()
	out := make(map[string]Backend)
	for _, driver := range []string{DriverLevelDB, DriverSQLite, DriverMemory} {
		b, err := Open(driver, dir)
		require.NoError(t, err, driver)
		t.Cleanup(func() { b.Close() })
		out[driver] = b
	}
	return out
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("bolt", t.TempDir())
	assert.Error(t, err)
}

func TestUpdateSemantics(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(ctx, "v")
			assert.ErrorIs(t, err, vault.ErrNotFound)

			// nil record: nothing persisted, error passed through.
			boom := errors.New("boom")
			err = b.Update(ctx, "v", func(rec *vault.Record) (*vault.Record, error) {
				assert.Nil(t, rec)
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)
			_, err = b.Get(ctx, "v")
			assert.ErrorIs(t, err, vault.ErrNotFound)

			require.NoError(t, b.Update(ctx, "v", func(*vault.Record) (*vault.Record, error) {
				return &vault.Record{ID: "v", Owner: "alice", Nonce: 1}, nil
			}))

			// A record returned together with an error is still written.
			err = b.Update(ctx, "v", func(rec *vault.Record) (*vault.Record, error) {
				require.NotNil(t, rec)
				rec.Nonce++
				return rec, boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := b.Get(ctx, "v")
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Owner)
			assert.Equal(t, uint64(2), got.Nonce)

			require.NoError(t, b.Update(ctx, "a", func(*vault.Record) (*vault.Record, error) {
				return &vault.Record{ID: "a"}, nil
			}))
			ids, err := b.IDs(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "v"}, ids)
		})
	}
}

func TestRegistryBindings(t *testing.T) {
	ctx := context.Background()
	pk := make([]byte, vault.PublicKeySize)
	pk[0] = 7
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Binding(ctx, "v")
			assert.ErrorIs(t, err, vault.ErrNotFound)

			assert.Error(t, b.Register(ctx, "v", vault.Binding{Owner: "", PublicKey: pk}))
			assert.Error(t, b.Register(ctx, "v", vault.Binding{Owner: "alice", PublicKey: pk[:5]}))

			require.NoError(t, b.Register(ctx, "v", vault.Binding{Owner: "alice", PublicKey: pk}))
			got, err := b.Binding(ctx, "v")
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Owner)
			assert.Equal(t, pk, got.PublicKey)

			// Repeating the binding is accepted; changing owner or key is not.
			require.NoError(t, b.Register(ctx, "v", vault.Binding{Owner: "alice", PublicKey: pk}))
			assert.ErrorIs(t, b.Register(ctx, "v", vault.Binding{Owner: "bob", PublicKey: pk}), vault.ErrAlreadyRegistered)
			other := append([]byte(nil), pk...)
			other[1] = 0xAA
			assert.ErrorIs(t, b.Register(ctx, "v", vault.Binding{Owner: "alice", PublicKey: other}), vault.ErrAlreadyRegistered)

			got, err = b.Binding(ctx, "v")
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Owner)
			assert.Equal(t, pk, got.PublicKey)
		})
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := b.Update(ctx, "v", func(*vault.Record) (*vault.Record, error) {
				return &vault.Record{ID: "v"}, nil
			})
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, driver := range []string{DriverLevelDB, DriverSQLite} {
		b, err := Open(driver, dir)
		require.NoError(t, err)
		require.NoError(t, b.Update(ctx, "v", func(*vault.Record) (*vault.Record, error) {
			return &vault.Record{ID: "v", Owner: "alice", Lock: vault.Locked, Nonce: 3}, nil
		}))
		require.NoError(t, b.Close())

		b, err = Open(driver, dir)
		require.NoError(t, err)
		got, err := b.Get(ctx, "v")
		require.NoError(t, err, driver)
		assert.Equal(t, vault.Locked, got.Lock)
		assert.Equal(t, uint64(3), got.Nonce)
		require.NoError(t, b.Close())
	}
}

func TestManagerUnlockOverBackends(t *testing.T) {
	if testing.Short() {
		t.Skip("full signature in short mode")
	}
	ctx := context.Background()
	f := sphincstest.Load(t)
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Register(ctx, "vault-1", vault.Binding{Owner: "alice", PublicKey: f.PKBytes}))
			m := vault.NewManager(b, b, vault.WithRand(zeroReader{}), vault.WithClock(now))

			c, err := m.Lock(ctx, "vault-1", "alice")
			require.NoError(t, err)
			require.NoError(t, m.Unlock(ctx, "vault-1", sphincstest.Sign(t, c)))

			st, err := m.Status(ctx, "vault-1")
			require.NoError(t, err)
			assert.Equal(t, vault.Unlocked, st.Lock)
			assert.Equal(t, vault.PhaseEmpty, st.Phase)
		})
	}
}
