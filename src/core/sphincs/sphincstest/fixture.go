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

// Package sphincstest provides a shared SLH-DSA key pair and a signature
// cache for tests. Key generation and signing are expensive, so every test
// binary derives the key once and signs each distinct message once.
package sphincstest

import (
	"sync"
	"testing"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	key "github.com/sphinx-core/qvault/src/core/sphincs/key/backend"
	sign "github.com/sphinx-core/qvault/src/core/sphincs/sign/backend"
)

// Fixture is a deterministic key pair with a signer bound to it.
type Fixture struct {
	Params  *params.Parameters
	Keys    *key.KeyManager
	Signer  *sign.SphincsManager
	SK      *key.PrivateKey
	PK      *key.PublicKey
	SKBytes []byte
	PKBytes []byte
	PKArray [32]byte
}

var (
	once    sync.Once
	shared  *Fixture
	initErr error

	mu   sync.Mutex
	sigs = map[string][]byte{}
)

// Seeds returns the fixed SK.seed, SK.prf and PK.seed of the shared key.
func Seeds() (skSeed, skPrf, pkSeed []byte) {
	buf := make([]byte, 48)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf[:16], buf[16:32], buf[32:]
}

// Load returns the shared fixture, deriving it on first use.
func Load(t testing.TB) *Fixture {
	t.Helper()
	once.Do(func() {
		km, err := key.NewKeyManager()
		if err != nil {
			initErr = err
			return
		}
		skSeed, skPrf, pkSeed := Seeds()
		sk, pk, err := km.GenerateKeyFromSeeds(skSeed, skPrf, pkSeed)
		if err != nil {
			initErr = err
			return
		}
		skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
		if err != nil {
			initErr = err
			return
		}
		shared = &Fixture{
			Params:  km.Params.Params,
			Keys:    km,
			Signer:  sign.NewSphincsManager(km, km.Params),
			SK:      sk,
			PK:      pk,
			SKBytes: skBytes,
			PKBytes: pkBytes,
			PKArray: pk.Array(),
		}
	})
	if initErr != nil {
		t.Fatalf("sphincstest: key derivation failed: %v", initErr)
	}
	return shared
}

// Sign returns a hedged signature over msg by the shared key. Signatures are
// cached per message; callers get their own copy.
func Sign(t testing.TB, msg []byte) []byte {
	t.Helper()
	f := Load(t)

	mu.Lock()
	defer mu.Unlock()
	if sig, ok := sigs[string(msg)]; ok {
		return append([]byte(nil), sig...)
	}
	sig, err := f.Signer.SignMessage(msg, f.SK)
	if err != nil {
		t.Fatalf("sphincstest: signing failed: %v", err)
	}
	sigs[string(msg)] = sig
	return append([]byte(nil), sig...)
}
