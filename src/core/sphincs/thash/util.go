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

// go/src/core/sphincs/thash/util.go
package thash

import (
	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
)

// Base2b splits x into outLen integers of b bits each, most significant bits
// first (FIPS 205, Algorithm 4).
func Base2b(x []byte, b int, outLen int) []uint32 {
	out := make([]uint32, outLen)
	in := 0
	bits := 0
	total := uint64(0)
	mask := uint64(1)<<b - 1
	for i := range outLen {
		for bits < b {
			total = total<<8 | uint64(x[in])
			in++
			bits += 8
		}
		bits -= b
		out[i] = uint32((total >> bits) & mask)
	}
	return out
}

// ToInt interprets x as a big-endian unsigned integer (at most 8 bytes).
func ToInt(x []byte) uint64 {
	total := uint64(0)
	for _, b := range x {
		total = total<<8 | uint64(b)
	}
	return total
}

// ChainDigits returns the base-w digits of an n-byte message followed by the
// digits of its checksum: one digit per WOTS+ chain.
func ChainDigits(p *params.Parameters, msg []byte) []uint32 {
	digits := Base2b(msg, p.LgW, p.Len1())
	csum := uint32(0)
	for _, d := range digits {
		csum += uint32(p.W()-1) - d
	}
	// Left-align the checksum in whole bytes.
	shift := (8 - (p.Len2()*p.LgW)%8) % 8
	csum <<= shift
	csumLen := (p.Len2()*p.LgW + 7) / 8
	buf := make([]byte, csumLen)
	for i := csumLen - 1; i >= 0; i-- {
		buf[i] = byte(csum)
		csum >>= 8
	}
	return append(digits, Base2b(buf, p.LgW, p.Len2())...)
}

// PureMessage encodes msg for pure (non pre-hash) SLH-DSA with the given
// context string: 0x00 || len(ctx) || ctx || msg.
func PureMessage(ctx, msg []byte) []byte {
	out := make([]byte, 0, 2+len(ctx)+len(msg))
	out = append(out, 0x00, byte(len(ctx)))
	out = append(out, ctx...)
	return append(out, msg...)
}

// ParseDigest splits an H_msg output into the FORS message digest and the
// hypertree coordinates of the signing leaf.
func ParseDigest(p *params.Parameters, digest []byte) (md []byte, idxTree uint64, idxLeaf uint32) {
	mdLen := p.MDLen()
	treeLen := p.TreeIdxLen()
	leafLen := p.LeafIdxLen()

	md = append([]byte(nil), digest[:mdLen]...)

	idxTree = ToInt(digest[mdLen : mdLen+treeLen])
	if bits := p.H - p.H/p.D; bits < 64 {
		idxTree &= uint64(1)<<bits - 1
	}
	idxLeaf = uint32(ToInt(digest[mdLen+treeLen : mdLen+treeLen+leafLen]))
	idxLeaf &= uint32(1)<<(p.H/p.D) - 1
	return md, idxTree, idxLeaf
}

// LayerIndices returns the (tree, leaf) coordinates used at the given
// hypertree layer, starting from the bottom layer coordinates.
func LayerIndices(p *params.Parameters, idxTree uint64, idxLeaf uint32, layer int) (uint64, uint32) {
	for range layer {
		idxLeaf = uint32(idxTree & (uint64(1)<<p.HP - 1))
		idxTree >>= p.HP
	}
	return idxTree, idxLeaf
}
