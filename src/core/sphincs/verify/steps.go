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

// go/src/core/sphincs/verify/steps.go
package verify

import (
	"crypto/subtle"
	"fmt"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	"github.com/sphinx-core/qvault/src/core/sphincs/thash"
)

// FORSStep runs FORS step number step (0..FORSSteps-1) over sig. The first
// step derives the message digest of msg under pk; the last one compresses
// the tree roots into the FORS public key, which becomes the node signed by
// hypertree layer 0.
func FORSStep(p *params.Parameters, h thash.Hasher, st *State, step int, sig, pk, msg []byte) error {
	if step < 0 || step >= FORSSteps {
		return ErrStepOutOfRange
	}
	n := p.N
	if step == 0 {
		digest := h.Digest(sig[:n], pk[n:], msg)
		if len(digest) != p.M {
			return fmt.Errorf("%w: digest has %d bytes", ErrFORS, len(digest))
		}
		st.MD, st.IdxTree, st.IdxLeaf = thash.ParseDigest(p, digest)
		st.FORSRoots = make([]byte, 0, p.K*n)
	}
	if len(st.MD) != p.MDLen() {
		return fmt.Errorf("%w: message digest not derived", ErrStepOutOfRange)
	}

	indices := thash.Base2b(st.MD, p.A, p.K)
	forsSig := sig[p.FORSOffset():p.HTOffset()]
	start, end := FORSTreeRange(p, step)
	if len(st.FORSRoots) != start*n {
		return fmt.Errorf("%w: expected %d roots, have %d", ErrStepOutOfRange, start, len(st.FORSRoots)/n)
	}

	for i := start; i < end; i++ {
		part := forsSig[i*p.FORSTreeSize() : (i+1)*p.FORSTreeSize()]
		leafIdx := uint32(i)<<p.A + indices[i]

		adrs := forsAddress(st)
		adrs.SetTreeHeight(0)
		adrs.SetTreeIndex(leafIdx)
		leaf := h.Leaf(&adrs, part[:n])

		root, err := h.VerifyAuthPath(&adrs, leaf, part[n:], leafIdx)
		if err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrFORS, i, err)
		}
		st.FORSRoots = append(st.FORSRoots, root...)
	}

	if step == FORSSteps-1 {
		adrs := forsAddress(st)
		adrs.SetTypeAndClear(thash.FORSRoots)
		adrs.SetKeyPairAddress(st.IdxLeaf)
		st.Node = h.Compress(&adrs, st.FORSRoots)
		st.ChainEnds = nil
	}
	return nil
}

func forsAddress(st *State) thash.Address {
	var adrs thash.Address
	adrs.SetTreeAddress(st.IdxTree)
	adrs.SetTypeAndClear(thash.FORSTree)
	adrs.SetKeyPairAddress(st.IdxLeaf)
	return adrs
}

// WOTSStep runs WOTS+ step number counter (0..WOTSSteps-1) over sig. Step
// counter works on layer counter/StepsPerLayer. The first ChainSteps calls of
// a layer walk its chains to their ends; the last one compresses the ends
// into the layer's leaf and climbs the authentication path to the layer root.
func WOTSStep(p *params.Parameters, h thash.Hasher, st *State, counter int, sig []byte) error {
	if counter < 0 || counter >= WOTSSteps(p) {
		return ErrStepOutOfRange
	}
	n := p.N
	layer := counter / StepsPerLayer
	sub := counter % StepsPerLayer
	idxTree, idxLeaf := thash.LayerIndices(p, st.IdxTree, st.IdxLeaf, layer)
	layerSig := sig[p.LayerOffset(layer) : p.LayerOffset(layer)+p.LayerSize()]

	if len(st.Node) != n {
		return fmt.Errorf("%w: layer %d has no input node", ErrStepOutOfRange, layer)
	}

	var adrs thash.Address
	adrs.SetLayerAddress(uint32(layer))
	adrs.SetTreeAddress(idxTree)

	if sub < ChainSteps {
		if sub == 0 {
			st.ChainEnds = make([]byte, 0, p.WOTSSize())
		}
		start, end := ChainRange(p, sub)
		if len(st.ChainEnds) != start*n {
			return fmt.Errorf("%w: expected %d chain ends, have %d", ErrStepOutOfRange, start, len(st.ChainEnds)/n)
		}
		digits := thash.ChainDigits(p, st.Node)
		w := uint32(p.W())
		for i := start; i < end; i++ {
			adrs.SetTypeAndClear(thash.WOTSHash)
			adrs.SetKeyPairAddress(idxLeaf)
			adrs.SetChainAddress(uint32(i))
			out, err := h.EvaluateChain(&adrs, layerSig[i*n:(i+1)*n], digits[i], w-1-digits[i])
			if err != nil {
				return fmt.Errorf("%w: layer %d chain %d: %v", ErrWOTS, layer, i, err)
			}
			st.ChainEnds = append(st.ChainEnds, out...)
		}
		return nil
	}

	if len(st.ChainEnds) != p.WOTSSize() {
		return fmt.Errorf("%w: layer %d chains incomplete", ErrStepOutOfRange, layer)
	}
	adrs.SetTypeAndClear(thash.WOTSPk)
	adrs.SetKeyPairAddress(idxLeaf)
	leaf := h.Compress(&adrs, st.ChainEnds)

	adrs.SetTypeAndClear(thash.Tree)
	root, err := h.VerifyAuthPath(&adrs, leaf, layerSig[p.WOTSSize():], idxLeaf)
	if err != nil {
		return fmt.Errorf("%w: layer %d auth path: %v", ErrWOTS, layer, err)
	}
	clear(st.ChainEnds)
	st.ChainEnds = nil
	st.Node = root
	return nil
}

// CheckRoot compares the final recomputed root with PK.root in constant time.
func CheckRoot(p *params.Parameters, st *State, pk []byte) error {
	if len(st.Node) != p.N || subtle.ConstantTimeCompare(st.Node, pk[p.N:]) != 1 {
		return ErrRootMismatch
	}
	return nil
}
