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

// go/src/core/vault/types.go
package vault

import (
	"fmt"
	"time"

	"github.com/sphinx-core/qvault/src/core/sphincs/verify"
)

const (
	// SignatureSize is the assembled SLH-DSA-SHA2-128s signature size.
	SignatureSize = 7856
	// ChunkSize is the maximum payload of one upload.
	ChunkSize = 800
	// ChunkCount is the number of uploads a signature is split into.
	ChunkCount = (SignatureSize + ChunkSize - 1) / ChunkSize
	// ChallengeSize is the length of a lock challenge.
	ChallengeSize = 32
	// PublicKeySize is the length of the bound public key.
	PublicKeySize = 32

	allChunks = uint16(1)<<ChunkCount - 1

	// TotalSteps counts every externally driven call of one unlock:
	// storage init, uploads, verification init, FORS, WOTS+ and finalize.
	TotalSteps = 1 + ChunkCount + 1 + verify.FORSSteps + wotsSteps + 1
	wotsSteps  = layers * verify.StepsPerLayer
	layers     = 7
)

// Phase is the verification session phase.
type Phase uint8

const (
	PhaseEmpty Phase = iota
	PhaseUploading
	PhaseReadyToVerify
	PhaseVerifyingFORS
	PhaseVerifyingWOTS
	PhaseFinalizePending
	PhaseFinalized
	PhaseAborted
)

var phaseNames = [...]string{
	"Empty",
	"Uploading",
	"ReadyToVerify",
	"VerifyingFORS",
	"VerifyingWOTS",
	"FinalizePending",
	"Finalized",
	"Aborted",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("vault: invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("vault: unknown phase %q", text)
}

// InFlight reports whether a session in phase p can still advance.
func (p Phase) InFlight() bool {
	switch p {
	case PhaseEmpty, PhaseFinalized, PhaseAborted:
		return false
	}
	return true
}

// LockState is the vault lock flag.
type LockState uint8

const (
	Unlocked LockState = iota
	Locked
)

func (l LockState) String() string {
	if l == Locked {
		return "Locked"
	}
	return "Unlocked"
}

// MarshalText implements encoding.TextMarshaler.
func (l LockState) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LockState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Locked":
		*l = Locked
	case "Unlocked":
		*l = Unlocked
	default:
		return fmt.Errorf("vault: unknown lock state %q", text)
	}
	return nil
}

// Session is the in-flight verification of one (vault, challenge) pair.
type Session struct {
	// Challenge is the challenge the session was opened under.
	Challenge   []byte             `json:"challenge,omitempty"`
	Phase       Phase              `json:"phase"`
	Bitmap      uint16             `json:"bitmap"`
	ChunkLens   [ChunkCount]uint16 `json:"chunk_lens"`
	Buffer      []byte             `json:"buffer,omitempty"`
	FORSCounter int                `json:"fors_counter"`
	WOTSCounter int                `json:"wots_counter"`
	Verifier    verify.State       `json:"verifier"`
	LastTouch   time.Time          `json:"last_touch"`
	AbortReason string             `json:"abort_reason,omitempty"`
}

// reset returns the session to Empty. The buffer is zeroed and kept so the
// same storage serves the next unlock cycle.
func (s *Session) reset() {
	buf := s.Buffer
	clear(buf)
	if len(buf) != SignatureSize {
		buf = make([]byte, SignatureSize)
	}
	s.Verifier.Reset()
	*s = Session{Buffer: buf, LastTouch: s.LastTouch}
}

// open binds an Empty session to challenge and starts the upload phase.
func (s *Session) open(challenge []byte) {
	s.reset()
	s.Challenge = append([]byte(nil), challenge...)
	s.Phase = PhaseUploading
}

// Received reports whether chunk index has been uploaded.
func (s *Session) Received(index int) bool {
	return s.Bitmap&(1<<index) != 0
}

// ChunksReceived counts the uploaded chunks.
func (s *Session) ChunksReceived() int {
	n := 0
	for i := range ChunkCount {
		if s.Received(i) {
			n++
		}
	}
	return n
}

// step returns the phase-local counter reported in errors and events.
func (s *Session) step() int {
	switch s.Phase {
	case PhaseVerifyingFORS:
		return s.FORSCounter
	case PhaseVerifyingWOTS:
		return s.WOTSCounter
	case PhaseUploading:
		return s.ChunksReceived()
	}
	return 0
}

// Record is the persisted per-vault state.
type Record struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	PublicKey []byte    `json:"public_key"`
	Lock      LockState `json:"lock"`
	Challenge []byte    `json:"challenge,omitempty"`
	Nonce     uint64    `json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
	Session   Session   `json:"session"`
}

// Status is a read-only snapshot of a vault.
type Status struct {
	VaultID        string    `json:"vault_id"`
	Owner          string    `json:"owner"`
	PublicKey      []byte    `json:"public_key"`
	Lock           LockState `json:"lock"`
	Challenge      []byte    `json:"challenge,omitempty"`
	Nonce          uint64    `json:"nonce"`
	Phase          Phase     `json:"phase"`
	Bitmap         uint16    `json:"bitmap"`
	ChunksReceived int       `json:"chunks_received"`
	FORSStep       int       `json:"fors_step"`
	WOTSStep       int       `json:"wots_step"`
	Layer          int       `json:"layer"`
	RemainingSteps int       `json:"remaining_steps"`
	LastTouch      time.Time `json:"last_touch"`
	AbortReason    string    `json:"abort_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *Record) status() *Status {
	s := &r.Session
	st := &Status{
		VaultID:        r.ID,
		Owner:          r.Owner,
		PublicKey:      append([]byte(nil), r.PublicKey...),
		Lock:           r.Lock,
		Challenge:      append([]byte(nil), r.Challenge...),
		Nonce:          r.Nonce,
		Phase:          s.Phase,
		Bitmap:         s.Bitmap,
		ChunksReceived: s.ChunksReceived(),
		FORSStep:       s.FORSCounter,
		WOTSStep:       s.WOTSCounter,
		Layer:          s.WOTSCounter / verify.StepsPerLayer,
		LastTouch:      s.LastTouch,
		AbortReason:    s.AbortReason,
		CreatedAt:      r.CreatedAt,
	}
	if len(st.Challenge) == 0 {
		st.Challenge = nil
	}
	st.RemainingSteps = r.remainingSteps()
	return st
}

func (r *Record) remainingSteps() int {
	s := &r.Session
	tail := 1 + verify.FORSSteps + wotsSteps + 1
	switch s.Phase {
	case PhaseEmpty:
		if r.Lock == Locked {
			return TotalSteps
		}
		return 0
	case PhaseUploading:
		return ChunkCount - s.ChunksReceived() + tail
	case PhaseReadyToVerify:
		return tail
	case PhaseVerifyingFORS:
		return verify.FORSSteps - s.FORSCounter + wotsSteps + 1
	case PhaseVerifyingWOTS:
		return wotsSteps - s.WOTSCounter + 1
	case PhaseFinalizePending:
		return 1
	}
	return 0
}
