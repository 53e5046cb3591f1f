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

// go/src/core/vault/verification.go
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/sphinx-core/qvault/src/core/sphincs/thash"
	"github.com/sphinx-core/qvault/src/core/sphincs/verify"
	logger "github.com/sphinx-core/qvault/src/log"
)

// InitVerification checks the assembled signature and starts the FORS phase.
func (m *Manager) InitVerification(ctx context.Context, id string) error {
	return m.mutate(ctx, OpInitVerification, id, -1, func(rec *Record) error {
		if err := requireChallenge(OpInitVerification, rec); err != nil {
			return err
		}
		s := &rec.Session
		switch s.Phase {
		case PhaseReadyToVerify:
		case PhaseUploading:
			return newError(KindIncompleteUpload, OpInitVerification, s,
				fmt.Sprintf("%d of %d chunks uploaded", s.ChunksReceived(), ChunkCount))
		default:
			return newError(KindPhaseMismatch, OpInitVerification, s, "session is not ready to verify")
		}

		total := 0
		for _, l := range s.ChunkLens {
			total += int(l)
		}
		if total != SignatureSize {
			return newError(KindMalformedSignatureLength, OpInitVerification, s,
				fmt.Sprintf("assembled %d bytes, want %d", total, SignatureSize))
		}
		if err := verify.CheckLayout(m.params, s.Buffer); err != nil {
			return newError(KindMalformedSignatureLength, OpInitVerification, s, err.Error())
		}

		s.Phase = PhaseVerifyingFORS
		s.FORSCounter = 0
		s.WOTSCounter = 0
		s.Verifier.Reset()
		return nil
	})
}

// StepFORS runs the next FORS step. The last one hands over to the WOTS+
// phase.
func (m *Manager) StepFORS(ctx context.Context, id string) error {
	return m.mutate(ctx, OpStepFORS, id, -1, func(rec *Record) error {
		if err := requireChallenge(OpStepFORS, rec); err != nil {
			return err
		}
		s := &rec.Session
		if s.Phase != PhaseVerifyingFORS || s.FORSCounter >= verify.FORSSteps {
			return newError(KindPhaseMismatch, OpStepFORS, s, "not verifying FORS")
		}

		h := m.hasher(rec.PublicKey[:m.params.N])
		msg := thash.PureMessage(nil, s.Challenge)
		if err := verify.FORSStep(m.params, h, &s.Verifier, s.FORSCounter, s.Buffer, rec.PublicKey, msg); err != nil {
			return fail(rec, KindFORSVerificationFailed, OpStepFORS, err)
		}

		s.FORSCounter++
		if s.FORSCounter == verify.FORSSteps {
			s.Phase = PhaseVerifyingWOTS
			s.WOTSCounter = 0
		}
		return nil
	})
}

// StepWOTS runs the next WOTS+ step. After the last one the recomputed
// hypertree root is compared with the bound public key.
func (m *Manager) StepWOTS(ctx context.Context, id string) error {
	return m.mutate(ctx, OpStepWOTS, id, -1, func(rec *Record) error {
		if err := requireChallenge(OpStepWOTS, rec); err != nil {
			return err
		}
		s := &rec.Session
		if s.Phase != PhaseVerifyingWOTS || s.WOTSCounter >= wotsSteps {
			return newError(KindPhaseMismatch, OpStepWOTS, s, "not verifying WOTS+")
		}

		h := m.hasher(rec.PublicKey[:m.params.N])
		if err := verify.WOTSStep(m.params, h, &s.Verifier, s.WOTSCounter, s.Buffer); err != nil {
			return fail(rec, KindWOTSVerificationFailed, OpStepWOTS, err)
		}

		if s.WOTSCounter+1 == wotsSteps {
			if err := verify.CheckRoot(m.params, &s.Verifier, rec.PublicKey); err != nil {
				return fail(rec, KindRootMismatch, OpStepWOTS, err)
			}
			s.WOTSCounter++
			s.Phase = PhaseFinalizePending
			return nil
		}
		s.WOTSCounter++
		return nil
	})
}

// Finalize unlocks a vault whose signature passed every step and recycles
// the session for the next cycle.
func (m *Manager) Finalize(ctx context.Context, id string) error {
	return m.mutate(ctx, OpFinalize, id, -1, func(rec *Record) error {
		s := &rec.Session
		if s.Phase != PhaseFinalizePending || rec.Lock != Locked {
			return newError(KindNoPendingFinalization, OpFinalize, s, "no verified session to finalize")
		}
		rec.Lock = Unlocked
		clear(rec.Challenge)
		rec.Challenge = nil
		s.Phase = PhaseFinalized
		s.reset()
		logger.Infof("vault %s: unlocked", rec.ID)
		return nil
	})
}

// Stepper is the step-by-step unlock surface, served by the Manager locally
// and by the HTTP client remotely.
type Stepper interface {
	InitStorage(ctx context.Context, id string) error
	UploadChunk(ctx context.Context, id string, index int, data []byte) error
	InitVerification(ctx context.Context, id string) error
	StepFORS(ctx context.Context, id string) error
	StepWOTS(ctx context.Context, id string) error
	Finalize(ctx context.Context, id string) error
}

var _ Stepper = (*Manager)(nil)

// Progress is called after every successful step.
type Progress func(done, total int, op string)

// Drive runs every step of an unlock for sig against s, in order. It stops
// at the first error.
func Drive(ctx context.Context, s Stepper, id string, sig []byte, progress Progress) error {
	chunks, err := SplitSignature(sig)
	if err != nil {
		return err
	}
	done := 0
	run := func(op string, step func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
		done++
		if progress != nil {
			progress(done, TotalSteps, op)
		}
		return nil
	}

	if err := run(OpInitStorage, func() error { return s.InitStorage(ctx, id) }); err != nil {
		return err
	}
	for i, chunk := range chunks {
		if err := run(OpUploadChunk, func() error { return s.UploadChunk(ctx, id, i, chunk) }); err != nil {
			return err
		}
	}
	if err := run(OpInitVerification, func() error { return s.InitVerification(ctx, id) }); err != nil {
		return err
	}
	for range verify.FORSSteps {
		if err := run(OpStepFORS, func() error { return s.StepFORS(ctx, id) }); err != nil {
			return err
		}
	}
	for range wotsSteps {
		if err := run(OpStepWOTS, func() error { return s.StepWOTS(ctx, id) }); err != nil {
			return err
		}
	}
	return run(OpFinalize, func() error { return s.Finalize(ctx, id) })
}

// Unlock verifies sig against the vault's challenge and unlocks it, running
// the same steps an external caller would.
func (m *Manager) Unlock(ctx context.Context, id string, sig []byte) error {
	err := Drive(ctx, m, id, sig, nil)
	if err != nil && !errors.As(err, new(*Error)) {
		return fmt.Errorf("vault: unlock %q: %w", id, err)
	}
	return err
}
