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

// go/src/core/sphincs/verify/state.go
package verify

import (
	"errors"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
)

const (
	// FORSSteps is the number of calls the FORS forest is split into.
	FORSSteps = 3
	// ChainSteps is the number of calls that advance the WOTS+ chains of one
	// hypertree layer; one more call closes the layer.
	ChainSteps = 3
	// StepsPerLayer is the number of WOTS+ calls spent on each layer.
	StepsPerLayer = ChainSteps + 1
)

var (
	// ErrSignatureLength is returned when the assembled signature does not
	// have the exact SLH-DSA-SHA2-128s size.
	ErrSignatureLength = errors.New("verify: signature has wrong length")
	// ErrMissingSegment is returned when the FORS or hypertree segment of the
	// buffer was never written.
	ErrMissingSegment = errors.New("verify: signature segment missing")
	// ErrStepOutOfRange is returned for a step index past the last step.
	ErrStepOutOfRange = errors.New("verify: step out of range")
	// ErrFORS is returned when a FORS tree cannot be evaluated.
	ErrFORS = errors.New("verify: FORS evaluation rejected")
	// ErrWOTS is returned when a WOTS+ chain or XMSS path cannot be evaluated.
	ErrWOTS = errors.New("verify: WOTS+ evaluation rejected")
	// ErrRootMismatch is returned when the recomputed hypertree root differs
	// from PK.root.
	ErrRootMismatch = errors.New("verify: hypertree root mismatch")
)

// State is the intermediate verifier state carried between steps. Every field
// is plain data so the state can be persisted between calls.
type State struct {
	// MD is the FORS message digest, IdxTree and IdxLeaf the bottom layer
	// coordinates, all parsed from H_msg in the first FORS step.
	MD      []byte `json:"md,omitempty"`
	IdxTree uint64 `json:"idx_tree"`
	IdxLeaf uint32 `json:"idx_leaf"`
	// FORSRoots accumulates the k FORS tree roots.
	FORSRoots []byte `json:"fors_roots,omitempty"`
	// ChainEnds holds the WOTS+ chain ends of the layer being verified.
	ChainEnds []byte `json:"chain_ends,omitempty"`
	// Node is the value signed by the current layer: the FORS public key
	// for layer 0, then each layer's recomputed root.
	Node []byte `json:"node,omitempty"`
}

// Reset zeroes and drops all intermediate values.
func (s *State) Reset() {
	for _, b := range [][]byte{s.MD, s.FORSRoots, s.ChainEnds, s.Node} {
		clear(b)
	}
	*s = State{}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	return State{
		MD:        cloneBytes(s.MD),
		IdxTree:   s.IdxTree,
		IdxLeaf:   s.IdxLeaf,
		FORSRoots: cloneBytes(s.FORSRoots),
		ChainEnds: cloneBytes(s.ChainEnds),
		Node:      cloneBytes(s.Node),
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// CheckLayout validates an assembled signature before verification starts:
// exact size and non-empty FORS and hypertree segments.
func CheckLayout(p *params.Parameters, sig []byte) error {
	if len(sig) != p.SignatureSize() {
		return ErrSignatureLength
	}
	if allZero(sig[p.FORSOffset():p.HTOffset()]) || allZero(sig[p.HTOffset():]) {
		return ErrMissingSegment
	}
	return nil
}

func allZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}

// span splits total items into parts near-equal consecutive ranges and
// returns range i.
func span(total, parts, i int) (start, end int) {
	per := (total + parts - 1) / parts
	start = min(i*per, total)
	end = min(start+per, total)
	return start, end
}

// FORSTreeRange returns the FORS trees evaluated by the given step.
func FORSTreeRange(p *params.Parameters, step int) (start, end int) {
	return span(p.K, FORSSteps, step)
}

// ChainRange returns the WOTS+ chains advanced by the given chain sub-step.
func ChainRange(p *params.Parameters, sub int) (start, end int) {
	return span(p.Len(), ChainSteps, sub)
}

// WOTSSteps is the total number of WOTS+ calls for the parameter set.
func WOTSSteps(p *params.Parameters) int {
	return p.D * StepsPerLayer
}
