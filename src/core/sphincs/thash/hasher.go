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

// go/src/core/sphincs/thash/hasher.go
package thash

import "errors"

var (
	// ErrChainBounds is returned when a chain evaluation would run past the
	// end of a WOTS+ chain.
	ErrChainBounds = errors.New("thash: chain evaluation out of bounds")
	// ErrNodeLength is returned when an input node does not have n bytes.
	ErrNodeLength = errors.New("thash: node has wrong length")
	// ErrPathLength is returned when an authentication path is not a whole
	// number of nodes or is too long for its index.
	ErrPathLength = errors.New("thash: malformed authentication path")
)

// Hasher is the tweakable hash capability the stepwise verifier runs on.
// An instance is bound to one public seed.
type Hasher interface {
	// Digest computes H_msg(R, PK.seed, PK.root, msg).
	Digest(r, pkRoot, msg []byte) []byte
	// Leaf hashes a revealed FORS secret into its leaf (F).
	Leaf(adrs *Address, sk []byte) []byte
	// EvaluateChain applies steps iterations of F starting at chain position
	// start.
	EvaluateChain(adrs *Address, in []byte, start, steps uint32) ([]byte, error)
	// VerifyAuthPath climbs from leaf (at the given index) to the root of its
	// tree using the concatenated sibling nodes in path.
	VerifyAuthPath(adrs *Address, leaf, path []byte, index uint32) ([]byte, error)
	// Compress hashes a sequence of n-byte nodes into one (T_l).
	Compress(adrs *Address, nodes []byte) []byte
}

// Factory builds a Hasher bound to a public seed.
type Factory func(pkSeed []byte) Hasher
