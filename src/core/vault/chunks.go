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

// go/src/core/vault/chunks.go
package vault

import (
	"context"
	"fmt"
)

// ChunkBounds returns the buffer range of chunk index.
func ChunkBounds(index int) (start, end int) {
	start = index * ChunkSize
	end = min(start+ChunkSize, SignatureSize)
	return start, end
}

// SplitSignature cuts a signature into its upload chunks.
func SplitSignature(sig []byte) ([][]byte, error) {
	if len(sig) != SignatureSize {
		return nil, &Error{
			Kind:   KindMalformedSignatureLength,
			Op:     OpUploadChunk,
			Detail: fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(sig)),
		}
	}
	chunks := make([][]byte, ChunkCount)
	for i := range chunks {
		start, end := ChunkBounds(i)
		chunks[i] = sig[start:end]
	}
	return chunks, nil
}

// UploadChunk stores one signature chunk. The first upload after a lock
// opens the session if InitStorage was not called. Chunks may arrive in any
// order; once all are present the session is ready to verify.
func (m *Manager) UploadChunk(ctx context.Context, id string, index int, data []byte) error {
	return m.mutate(ctx, OpUploadChunk, id, index, func(rec *Record) error {
		if err := requireChallenge(OpUploadChunk, rec); err != nil {
			return err
		}
		s := &rec.Session
		if s.Phase == PhaseEmpty {
			s.open(rec.Challenge)
		}
		if s.Phase != PhaseUploading {
			return uploadError(KindPhaseMismatch, s, index, "session is not accepting chunks")
		}
		if index < 0 || index >= ChunkCount {
			return uploadError(KindMalformedSignatureLength, s, index, fmt.Sprintf("chunk index %d out of range", index))
		}
		start, end := ChunkBounds(index)
		if len(data) == 0 || len(data) > end-start {
			return uploadError(KindMalformedSignatureLength, s, index,
				fmt.Sprintf("chunk %d has %d bytes, slot holds %d", index, len(data), end-start))
		}
		if s.Received(index) {
			return uploadError(KindChunkAlreadySet, s, index, fmt.Sprintf("chunk %d already uploaded", index))
		}

		copy(s.Buffer[start:], data)
		clear(s.Buffer[start+len(data) : end])
		s.ChunkLens[index] = uint16(len(data))
		s.Bitmap |= 1 << index
		if s.Bitmap == allChunks {
			s.Phase = PhaseReadyToVerify
		}
		return nil
	})
}

func uploadError(kind Kind, s *Session, index int, detail string) error {
	e := newError(kind, OpUploadChunk, s, detail)
	e.Step = index
	return e
}
