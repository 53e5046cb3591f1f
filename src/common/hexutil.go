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

// go/src/common/hexutil.go
package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

// fingerprintVersion is the base58check version byte of key fingerprints.
const fingerprintVersion = 0x51

// Fingerprint returns a short base58check name for a public key, derived
// from 20 bytes of SHAKE256 over the key.
func Fingerprint(pk []byte) string {
	h := sha3.NewShake256()
	h.Write(pk)
	sum := make([]byte, 20)
	h.Read(sum)
	return base58.CheckEncode(sum, fingerprintVersion)
}

// ValidateFingerprint checks the version byte and checksum of a fingerprint.
func ValidateFingerprint(s string) error {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return fmt.Errorf("invalid fingerprint: %w", err)
	}
	if version != fingerprintVersion {
		return fmt.Errorf("invalid fingerprint version 0x%02x", version)
	}
	if len(payload) != 20 {
		return fmt.Errorf("invalid fingerprint length: expected 20 bytes, got %d", len(payload))
	}
	return nil
}

// EncodeBase58 renders bytes such as a challenge for display.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBytes parses hex (with or without "0x") or, failing that, base58.
func DecodeBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	if b, err := HexToBytesWithoutPrefix(s); err == nil {
		return b, nil
	}
	b := base58.Decode(s)
	if len(b) == 0 {
		return nil, fmt.Errorf("input is neither hex nor base58")
	}
	return b, nil
}

// Bytes2Hex converts bytes to hexadecimal string
func Bytes2Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// BytesToHexWithPrefix converts bytes to hex with "0x" prefix
func BytesToHexWithPrefix(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// HexToBytesWithoutPrefix converts hex string (with or without prefix) to bytes
func HexToBytesWithoutPrefix(hexStr string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
}

// FormatNonce formats a uint64 nonce as a 16-character hex string
func FormatNonce(nonce uint64) string {
	return fmt.Sprintf("%016x", nonce)
}
