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

package sign

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/slhdsa"
	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	key "github.com/sphinx-core/qvault/src/core/sphincs/key/backend"
)

// ErrContextTooLong is returned for context strings over 255 bytes.
var ErrContextTooLong = errors.New("context string longer than 255 bytes")

// SphincsManager signs and verifies messages in pure SLH-DSA mode.
type SphincsManager struct {
	keyManager *key.KeyManager
	parameters *params.SPHINCSParameters
	rand       io.Reader
}

// NewSphincsManager creates a SphincsManager drawing randomness from crypto/rand.
func NewSphincsManager(keyManager *key.KeyManager, parameters *params.SPHINCSParameters) *SphincsManager {
	if keyManager == nil || parameters == nil || parameters.Params == nil {
		panic("KeyManager or SPHINCSParameters are not properly initialized")
	}
	return &SphincsManager{
		keyManager: keyManager,
		parameters: parameters,
		rand:       rand.Reader,
	}
}

// WithRand replaces the randomness source used for hedged signing.
func (sm *SphincsManager) WithRand(r io.Reader) *SphincsManager {
	sm.rand = r
	return sm
}

// SignMessage produces a hedged signature over message with an empty context.
// This is the form vault challenges are signed in.
func (sm *SphincsManager) SignMessage(message []byte, sk *key.PrivateKey) ([]byte, error) {
	return sm.SignMessageWithContext(message, nil, sk)
}

// SignMessageWithContext produces a hedged signature bound to ctx.
func (sm *SphincsManager) SignMessageWithContext(message, ctx []byte, sk *key.PrivateKey) ([]byte, error) {
	if err := checkSigner(ctx, sk); err != nil {
		return nil, err
	}
	sig, err := slhdsa.SignRandomized(sk.SLHDSA(), sm.rand, slhdsa.NewMessage(message), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

// SignDeterministic produces the deterministic signature over message, using
// PK.seed as the randomizer input.
func (sm *SphincsManager) SignDeterministic(message []byte, sk *key.PrivateKey) ([]byte, error) {
	if err := checkSigner(nil, sk); err != nil {
		return nil, err
	}
	sig, err := slhdsa.SignDeterministic(sk.SLHDSA(), slhdsa.NewMessage(message), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

func checkSigner(ctx []byte, sk *key.PrivateKey) error {
	if sk == nil {
		return errors.New("private key is nil")
	}
	if len(ctx) > 255 {
		return ErrContextTooLong
	}
	return nil
}

// VerifySignature checks a signature over message with an empty context in a
// single pass.
func (sm *SphincsManager) VerifySignature(message, sig []byte, pk *key.PublicKey) bool {
	return sm.VerifySignatureWithContext(message, nil, sig, pk)
}

// VerifySignatureWithContext checks a signature bound to ctx.
func (sm *SphincsManager) VerifySignatureWithContext(message, ctx, sig []byte, pk *key.PublicKey) bool {
	if pk == nil || len(ctx) > 255 || len(sig) != sm.parameters.Params.SignatureSize() {
		return false
	}
	return slhdsa.Verify(pk.SLHDSA(), slhdsa.NewMessage(message), sig, ctx)
}

// KeyManager returns the key manager the signer was built with.
func (sm *SphincsManager) KeyManager() *key.KeyManager {
	return sm.keyManager
}
