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

// go/src/core/sphincs/thash/address.go
package thash

import "encoding/binary"

// Address types (FIPS 205, Section 4.2).
const (
	WOTSHash  uint32 = 0
	WOTSPk    uint32 = 1
	Tree      uint32 = 2
	FORSTree  uint32 = 3
	FORSRoots uint32 = 4
	WOTSPrf   uint32 = 5
	FORSPrf   uint32 = 6
)

// Address is the 32-byte ADRS structure that domain-separates every hash
// call. The layout is:
//
//	[0:4]   layer address
//	[4:16]  tree address (the top 4 bytes are always zero here)
//	[16:20] type
//	[20:24] key pair address (WOTS+, FORS) / padding (TREE)
//	[24:28] chain address (WOTS+) / tree height (TREE, FORS)
//	[28:32] hash address (WOTS+) / tree index (TREE, FORS)
type Address [32]byte

// SetLayerAddress sets the hypertree layer.
func (a *Address) SetLayerAddress(layer uint32) {
	binary.BigEndian.PutUint32(a[0:4], layer)
}

// SetTreeAddress sets the index of the XMSS tree within its layer.
func (a *Address) SetTreeAddress(tree uint64) {
	clear(a[4:8])
	binary.BigEndian.PutUint64(a[8:16], tree)
}

// SetTypeAndClear sets the address type and zeroes the last three words.
func (a *Address) SetTypeAndClear(typ uint32) {
	binary.BigEndian.PutUint32(a[16:20], typ)
	clear(a[20:32])
}

// SetKeyPairAddress sets the WOTS+ or FORS key pair index.
func (a *Address) SetKeyPairAddress(i uint32) {
	binary.BigEndian.PutUint32(a[20:24], i)
}

// KeyPairAddress returns the key pair index.
func (a *Address) KeyPairAddress() uint32 {
	return binary.BigEndian.Uint32(a[20:24])
}

// SetChainAddress sets the WOTS+ chain index.
func (a *Address) SetChainAddress(i uint32) {
	binary.BigEndian.PutUint32(a[24:28], i)
}

// SetTreeHeight sets the height of a node in an XMSS or FORS tree.
func (a *Address) SetTreeHeight(z uint32) {
	binary.BigEndian.PutUint32(a[24:28], z)
}

// SetHashAddress sets the position within a WOTS+ chain.
func (a *Address) SetHashAddress(i uint32) {
	binary.BigEndian.PutUint32(a[28:32], i)
}

// SetTreeIndex sets the index of a node within its tree level.
func (a *Address) SetTreeIndex(i uint32) {
	binary.BigEndian.PutUint32(a[28:32], i)
}

// TreeIndex returns the node index within its tree level.
func (a *Address) TreeIndex() uint32 {
	return binary.BigEndian.Uint32(a[28:32])
}

// Compressed returns the 22-byte ADRSc used by the SHA-2 instantiations.
func (a *Address) Compressed() [22]byte {
	var c [22]byte
	c[0] = a[3]
	copy(c[1:9], a[8:16])
	c[9] = a[19]
	copy(c[10:22], a[20:32])
	return c
}
