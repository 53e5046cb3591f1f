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

// go/src/core/sphincs/config/params.go
package params

import "errors"

// Parameters describes one SLH-DSA parameter set (FIPS 205, Table 2) and the
// byte layout of its signatures.
type Parameters struct {
	Name string
	N    int // security parameter, bytes per hash output
	H    int // total hypertree height
	D    int // hypertree layers
	HP   int // height of one XMSS tree (h')
	A    int // FORS tree height
	K    int // number of FORS trees
	LgW  int // log2 of the Winternitz parameter
	M    int // message digest length in bytes
}

// SHA2_128s is the parameter set the vault verifier is built for. Its
// signatures are 7856 bytes and its public keys 32 bytes.
var SHA2_128s = &Parameters{
	Name: "SLH-DSA-SHA2-128s",
	N:    16,
	H:    63,
	D:    7,
	HP:   9,
	A:    12,
	K:    14,
	LgW:  4,
	M:    30,
}

// SPHINCSParameters wraps the parameter set used by key and signature managers.
type SPHINCSParameters struct {
	Params *Parameters
}

// NewSPHINCSParameters returns the SLH-DSA-SHA2-128s parameter holder.
func NewSPHINCSParameters() (*SPHINCSParameters, error) {
	params := SHA2_128s
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &SPHINCSParameters{Params: params}, nil
}

// Validate checks the internal consistency of the parameter set.
func (p *Parameters) Validate() error {
	if p == nil {
		return errors.New("nil SPHINCS+ parameters")
	}
	if p.D*p.HP != p.H {
		return errors.New("hypertree height must equal layers times tree height")
	}
	if p.M != p.MDLen()+p.TreeIdxLen()+p.LeafIdxLen() {
		return errors.New("digest length does not cover md and tree indices")
	}
	return nil
}

// W is the Winternitz parameter.
func (p *Parameters) W() int { return 1 << p.LgW }

// Len1 is the number of message chains in one WOTS+ signature.
func (p *Parameters) Len1() int { return (8*p.N + p.LgW - 1) / p.LgW }

// Len2 is the number of checksum chains.
func (p *Parameters) Len2() int {
	// floor(log2(len1 * (w-1)) / lgw) + 1
	maxSum := p.Len1() * (p.W() - 1)
	bits := 0
	for v := maxSum; v > 0; v >>= 1 {
		bits++
	}
	return (bits-1)/p.LgW + 1
}

// Len is the total number of WOTS+ chains.
func (p *Parameters) Len() int { return p.Len1() + p.Len2() }

// MDLen is the number of digest bytes that select FORS leaves.
func (p *Parameters) MDLen() int { return (p.K*p.A + 7) / 8 }

// TreeIdxLen is the number of digest bytes holding the hypertree tree index.
func (p *Parameters) TreeIdxLen() int { return (p.H - p.H/p.D + 7) / 8 }

// LeafIdxLen is the number of digest bytes holding the bottom leaf index.
func (p *Parameters) LeafIdxLen() int { return (p.H/p.D + 7) / 8 }

// PublicKeySize is len(PK.seed || PK.root).
func (p *Parameters) PublicKeySize() int { return 2 * p.N }

// PrivateKeySize is len(SK.seed || SK.prf || PK.seed || PK.root).
func (p *Parameters) PrivateKeySize() int { return 4 * p.N }

// FORSTreeSize is the size of one FORS tree's contribution: a secret value
// followed by its authentication path.
func (p *Parameters) FORSTreeSize() int { return (p.A + 1) * p.N }

// FORSSize is the size of the whole FORS signature.
func (p *Parameters) FORSSize() int { return p.K * p.FORSTreeSize() }

// WOTSSize is the size of one WOTS+ signature.
func (p *Parameters) WOTSSize() int { return p.Len() * p.N }

// AuthSize is the size of one XMSS authentication path.
func (p *Parameters) AuthSize() int { return p.HP * p.N }

// LayerSize is the size of one XMSS signature in the hypertree.
func (p *Parameters) LayerSize() int { return p.WOTSSize() + p.AuthSize() }

// SignatureSize is the total size of a signature.
func (p *Parameters) SignatureSize() int { return p.N + p.FORSSize() + p.D*p.LayerSize() }

// FORSOffset is where the FORS signature starts (after the randomizer R).
func (p *Parameters) FORSOffset() int { return p.N }

// HTOffset is where the hypertree signature starts.
func (p *Parameters) HTOffset() int { return p.FORSOffset() + p.FORSSize() }

// LayerOffset is where the XMSS signature of the given layer starts.
func (p *Parameters) LayerOffset(layer int) int { return p.HTOffset() + layer*p.LayerSize() }
