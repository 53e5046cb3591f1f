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
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/slhdsa"
	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
)

// PublicKey is an SLH-DSA public key: PK.seed || PK.root.
type PublicKey struct {
	key slhdsa.PublicKey
}

// PrivateKey is an SLH-DSA private key with its embedded public part.
type PrivateKey struct {
	key slhdsa.PrivateKey
}

// KeyManager generates and (de)serializes key pairs for one parameter set.
type KeyManager struct {
	Params *params.SPHINCSParameters
	ID     slhdsa.ID
}

// NewKeyManager initializes a KeyManager for SLH-DSA-SHA2-128s.
func NewKeyManager() (*KeyManager, error) {
	spxParams, err := params.NewSPHINCSParameters()
	if err != nil {
		return nil, err
	}
	return &KeyManager{Params: spxParams, ID: slhdsa.SHA2_128s}, nil
}

// GetSPHINCSParameters returns the parameter holder.
func (km *KeyManager) GetSPHINCSParameters() *params.SPHINCSParameters {
	return km.Params
}

// GenerateKey draws fresh seeds from crypto/rand and derives a key pair.
func (km *KeyManager) GenerateKey() (*PrivateKey, *PublicKey, error) {
	return km.generate(rand.Reader)
}

// GenerateKeyFromSeeds derives the key pair for the given seeds.
func (km *KeyManager) GenerateKeyFromSeeds(skSeed, skPrf, pkSeed []byte) (*PrivateKey, *PublicKey, error) {
	if km.Params == nil || km.Params.Params == nil {
		return nil, nil, errors.New("missing SPHINCS+ parameters in KeyManager")
	}
	n := km.Params.Params.N
	if len(skSeed) != n || len(skPrf) != n || len(pkSeed) != n {
		return nil, nil, fmt.Errorf("key seeds must be %d bytes each", n)
	}
	// GenerateKey reads SK.seed, SK.prf and PK.seed in that order.
	seeds := make([]byte, 0, 3*n)
	seeds = append(append(append(seeds, skSeed...), skPrf...), pkSeed...)
	return km.generate(bytes.NewReader(seeds))
}

func (km *KeyManager) generate(r io.Reader) (*PrivateKey, *PublicKey, error) {
	if km.Params == nil || km.Params.Params == nil {
		return nil, nil, errors.New("missing SPHINCS+ parameters in KeyManager")
	}
	pub, priv, err := slhdsa.GenerateKey(r, km.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	skBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize private key: %w", err)
	}
	pkBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize public key: %w", err)
	}
	return km.DeserializeKeyPair(skBytes, pkBytes)
}

// SLHDSA returns the underlying SLH-DSA private key.
func (sk *PrivateKey) SLHDSA() *slhdsa.PrivateKey { return &sk.key }

// Serialize returns SK.seed || SK.prf || PK.seed || PK.root.
func (sk *PrivateKey) Serialize() ([]byte, error) {
	if sk == nil {
		return nil, errors.New("private key is nil")
	}
	return sk.key.MarshalBinary()
}

// Public returns the public half of the key.
func (sk *PrivateKey) Public() *PublicKey {
	return &PublicKey{key: sk.key.PublicKey()}
}

// SLHDSA returns the underlying SLH-DSA public key.
func (pk *PublicKey) SLHDSA() *slhdsa.PublicKey { return &pk.key }

// Serialize returns PK.seed || PK.root.
func (pk *PublicKey) Serialize() ([]byte, error) {
	if pk == nil {
		return nil, errors.New("public key is nil")
	}
	return pk.key.MarshalBinary()
}

// Array returns the public key as the fixed 32-byte value vaults bind to.
func (pk *PublicKey) Array() (out [32]byte) {
	b, err := pk.key.MarshalBinary()
	if err == nil {
		copy(out[:], b)
	}
	return out
}

// SerializeKeyPair serializes a key pair to byte slices.
func (km *KeyManager) SerializeKeyPair(sk *PrivateKey, pk *PublicKey) ([]byte, []byte, error) {
	if sk == nil || pk == nil {
		return nil, nil, errors.New("private or public key is nil")
	}
	skBytes, err := sk.Serialize()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize private key: %w", err)
	}
	pkBytes, err := pk.Serialize()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize public key: %w", err)
	}
	return skBytes, pkBytes, nil
}

// DeserializeKeyPair rebuilds a key pair and checks that both halves agree.
func (km *KeyManager) DeserializeKeyPair(skBytes, pkBytes []byte) (*PrivateKey, *PublicKey, error) {
	if km.Params == nil || km.Params.Params == nil {
		return nil, nil, errors.New("missing parameters in KeyManager")
	}
	if len(skBytes) != km.Params.Params.PrivateKeySize() {
		return nil, nil, fmt.Errorf("private key must be %d bytes, got %d", km.Params.Params.PrivateKeySize(), len(skBytes))
	}
	pk, err := km.DeserializePublicKey(pkBytes)
	if err != nil {
		return nil, nil, err
	}
	sk := &PrivateKey{key: slhdsa.PrivateKey{ID: km.ID}}
	if err := sk.key.UnmarshalBinary(skBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if !sk.key.PublicKey().Equal(pk.key) {
		return nil, nil, errors.New("private key does not match public key")
	}
	return sk, pk, nil
}

// DeserializePublicKey parses a 32-byte public key.
func (km *KeyManager) DeserializePublicKey(pkBytes []byte) (*PublicKey, error) {
	if km.Params == nil || km.Params.Params == nil {
		return nil, errors.New("missing parameters in KeyManager")
	}
	if len(pkBytes) != km.Params.Params.PublicKeySize() {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", km.Params.Params.PublicKeySize(), len(pkBytes))
	}
	pk := &PublicKey{key: slhdsa.PublicKey{ID: km.ID}}
	if err := pk.key.UnmarshalBinary(pkBytes); err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pk, nil
}
