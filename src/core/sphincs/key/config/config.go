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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
)

// KeyFileName is the file a key pair is stored in inside the keystore.
const KeyFileName = "qvault.key"

// KeyStore handles the storage and retrieval of key pairs in a directory.
type KeyStore struct {
	keystoreDir string
	params      *params.Parameters
}

// NewKeyStore ensures the keystore directory exists.
func NewKeyStore(keystoreDir string, p *params.Parameters) (*KeyStore, error) {
	if err := os.MkdirAll(keystoreDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	return &KeyStore{keystoreDir: keystoreDir, params: p}, nil
}

// Path returns the key file location.
func (ks *KeyStore) Path() string {
	return filepath.Join(ks.keystoreDir, KeyFileName)
}

// SaveKeyPair writes sk || pk to the key file, readable by the owner only.
func (ks *KeyStore) SaveKeyPair(sk, pk []byte) error {
	if sk == nil || pk == nil {
		return errors.New("secret or public key is nil")
	}
	if len(sk) != ks.params.PrivateKeySize() || len(pk) != ks.params.PublicKeySize() {
		return errors.New("invalid key lengths")
	}
	combined := make([]byte, 0, len(sk)+len(pk))
	combined = append(combined, sk...)
	combined = append(combined, pk...)
	if err := os.WriteFile(ks.Path(), combined, 0o600); err != nil {
		return fmt.Errorf("failed to save keys: %w", err)
	}
	return nil
}

// LoadKeyPair reads the key pair back from the key file.
func (ks *KeyStore) LoadKeyPair() ([]byte, []byte, error) {
	combined, err := os.ReadFile(ks.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load keys: %w", err)
	}
	skLen := ks.params.PrivateKeySize()
	if len(combined) != skLen+ks.params.PublicKeySize() {
		return nil, nil, errors.New("invalid combined keys length")
	}
	return combined[:skLen], combined[skLen:], nil
}
