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

// go/src/core/sphincs/thash/sha2.go
package thash

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"fmt"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
)

// SHA2 is the SHA-256 instantiation of the tweakable hash functions for
// security category 1 (FIPS 205, Section 11.2.1).
type SHA2 struct {
	p      *params.Parameters
	pkSeed []byte
	// state is the SHA-256 state after absorbing PK.seed || toByte(0, 64-n),
	// one full block shared by every F, H and T_l call.
	state []byte
}

// NewSHA2 binds the hash functions to a public seed.
func NewSHA2(p *params.Parameters, pkSeed []byte) *SHA2 {
	h := sha256.New()
	h.Write(pkSeed)
	h.Write(make([]byte, sha256.BlockSize-p.N))
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("thash: cannot snapshot sha256 state: %v", err))
	}
	return &SHA2{
		p:      p,
		pkSeed: append([]byte(nil), pkSeed...),
		state:  state,
	}
}

// SHA2Factory returns a Factory producing SHA2 hashers for p.
func SHA2Factory(p *params.Parameters) Factory {
	return func(pkSeed []byte) Hasher {
		return NewSHA2(p, pkSeed)
	}
}

// PKSeed returns the public seed the hasher is bound to.
func (s *SHA2) PKSeed() []byte { return s.pkSeed }

// thash computes Trunc_n(SHA-256(PK.seed || pad || ADRSc || parts...)).
func (s *SHA2) thash(adrs *Address, parts ...[]byte) []byte {
	h := sha256.New()
	if err := h.(encoding.BinaryUnmarshaler).UnmarshalBinary(s.state); err != nil {
		panic(fmt.Sprintf("thash: cannot restore sha256 state: %v", err))
	}
	c := adrs.Compressed()
	h.Write(c[:])
	for _, part := range parts {
		h.Write(part)
	}
	return h.Sum(nil)[:s.p.N]
}

// F is the one-input tweakable hash.
func (s *SHA2) F(adrs *Address, m []byte) []byte { return s.thash(adrs, m) }

// H is the two-input tweakable hash.
func (s *SHA2) H(adrs *Address, left, right []byte) []byte { return s.thash(adrs, left, right) }

// T hashes an arbitrary number of concatenated nodes.
func (s *SHA2) T(adrs *Address, nodes []byte) []byte { return s.thash(adrs, nodes) }

// HMsg computes the m-byte message digest with MGF1-SHA-256.
func (s *SHA2) HMsg(r, pkRoot, msg []byte) []byte {
	inner := sha256.New()
	inner.Write(r)
	inner.Write(s.pkSeed)
	inner.Write(pkRoot)
	inner.Write(msg)

	seed := make([]byte, 0, len(r)+len(s.pkSeed)+sha256.Size)
	seed = append(seed, r...)
	seed = append(seed, s.pkSeed...)
	seed = inner.Sum(seed)

	return mgf1(seed, s.p.M)
}

// mgf1 is the mask generation function of RFC 8017 over SHA-256.
func mgf1(seed []byte, length int) []byte {
	out := make([]byte, 0, length+sha256.Size)
	var counter [4]byte
	for i := uint32(0); len(out) < length; i++ {
		binary.BigEndian.PutUint32(counter[:], i)
		h := sha256.New()
		h.Write(seed)
		h.Write(counter[:])
		out = h.Sum(out)
	}
	return out[:length]
}

// Digest implements Hasher.
func (s *SHA2) Digest(r, pkRoot, msg []byte) []byte { return s.HMsg(r, pkRoot, msg) }

// Leaf implements Hasher.
func (s *SHA2) Leaf(adrs *Address, sk []byte) []byte { return s.F(adrs, sk) }

// Compress implements Hasher.
func (s *SHA2) Compress(adrs *Address, nodes []byte) []byte { return s.T(adrs, nodes) }

// EvaluateChain implements Hasher (FIPS 205, Algorithm 5).
func (s *SHA2) EvaluateChain(adrs *Address, in []byte, start, steps uint32) ([]byte, error) {
	if len(in) != s.p.N {
		return nil, ErrNodeLength
	}
	if uint64(start)+uint64(steps) > uint64(s.p.W()-1) {
		return nil, ErrChainBounds
	}
	tmp := in
	for j := start; j < start+steps; j++ {
		adrs.SetHashAddress(j)
		tmp = s.F(adrs, tmp)
	}
	return append([]byte(nil), tmp...), nil
}

// VerifyAuthPath implements Hasher. The address type (TREE or FORS_TREE) and
// the tree coordinates must already be set by the caller.
func (s *SHA2) VerifyAuthPath(adrs *Address, leaf, path []byte, index uint32) ([]byte, error) {
	n := s.p.N
	if len(leaf) != n {
		return nil, ErrNodeLength
	}
	if len(path)%n != 0 || len(path)/n > 32 {
		return nil, ErrPathLength
	}
	node := leaf
	adrs.SetTreeIndex(index)
	for j := 0; j < len(path)/n; j++ {
		sibling := path[j*n : (j+1)*n]
		adrs.SetTreeHeight(uint32(j + 1))
		if (index>>j)&1 == 0 {
			adrs.SetTreeIndex(adrs.TreeIndex() / 2)
			node = s.H(adrs, node, sibling)
		} else {
			adrs.SetTreeIndex((adrs.TreeIndex() - 1) / 2)
			node = s.H(adrs, sibling, node)
		}
	}
	return append([]byte(nil), node...), nil
}
