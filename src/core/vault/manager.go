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

// go/src/core/vault/manager.go
package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	params "github.com/sphinx-core/qvault/src/core/sphincs/config"
	"github.com/sphinx-core/qvault/src/core/sphincs/thash"
	logger "github.com/sphinx-core/qvault/src/log"
)

// Manager runs the vault lock/unlock state machine over a Store. Every
// operation is one atomic Store.Update on the vault's record.
type Manager struct {
	store    Store
	registry Registry
	params   *params.Parameters
	hasher   thash.Factory
	rand     io.Reader
	now      func() time.Time
	observer Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithHasher replaces the tweakable hash capability used by the verifier.
func WithHasher(f thash.Factory) Option {
	return func(m *Manager) { m.hasher = f }
}

// WithRand replaces the challenge entropy source.
func WithRand(r io.Reader) Option {
	return func(m *Manager) { m.rand = r }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithObserver registers an observer for operation events.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// NewManager creates a Manager for SLH-DSA-SHA2-128s signatures.
func NewManager(store Store, registry Registry, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		registry: registry,
		params:   params.SHA2_128s,
		rand:     rand.Reader,
		now:      time.Now,
	}
	m.hasher = thash.SHA2Factory(m.params)
	for _, opt := range opts {
		opt(m)
	}
	if m.params.SignatureSize() != SignatureSize {
		panic(fmt.Sprintf("vault: parameter set signature size %d, want %d", m.params.SignatureSize(), SignatureSize))
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// mutate loads the record, applies fn and persists the result. Structural
// errors leave the stored record untouched; fatal verification errors
// persist the aborted session before being returned.
func (m *Manager) mutate(ctx context.Context, op, id string, step int, fn func(rec *Record) error) error {
	start := m.now()
	ev := Event{VaultID: id, Op: op, Step: step}

	err := m.store.Update(ctx, id, func(rec *Record) (*Record, error) {
		if rec == nil {
			return nil, &Error{Kind: KindUnknownVault, Op: op, Step: step, Detail: fmt.Sprintf("vault %q is not registered", id)}
		}
		if ev.Step < 0 {
			ev.Step = rec.Session.step()
		}
		err := fn(rec)
		ev.Phase = rec.Session.Phase
		if err != nil && !KindOf(err).Fatal() {
			return nil, err
		}
		rec.Session.LastTouch = m.now()
		return rec, err
	})
	m.emit(ev, start, err)
	return err
}

func (m *Manager) emit(ev Event, start time.Time, err error) {
	ev.Time = m.now()
	ev.Duration = ev.Time.Sub(start)
	if err != nil {
		ev.Error = err.Error()
		ev.Kind = KindOf(err)
		var verr *Error
		if errors.As(err, &verr) && verr.Op != "" {
			ev.Phase = verr.Phase
			ev.Step = verr.Step
		}
	}
	if ev.Step < 0 {
		ev.Step = 0
	}
	if m.observer != nil {
		m.observer.Observe(ev)
	}
}

// Lock locks the vault and issues a fresh challenge. An unknown vault is
// initialized from its registry binding. A locked vault may only be locked
// again once its session was aborted.
func (m *Manager) Lock(ctx context.Context, id, owner string) ([]byte, error) {
	return m.issue(ctx, OpLock, id, owner)
}

// Rechallenge discards the current challenge and session of a locked vault
// and issues a new challenge.
func (m *Manager) Rechallenge(ctx context.Context, id, owner string) ([]byte, error) {
	return m.issue(ctx, OpRechallenge, id, owner)
}

func (m *Manager) issue(ctx context.Context, op, id, owner string) ([]byte, error) {
	start := m.now()
	ev := Event{VaultID: id, Op: op}

	binding, bindErr := m.binding(ctx, id)
	if bindErr != nil && !errors.Is(bindErr, ErrNotFound) {
		m.emit(ev, start, bindErr)
		return nil, bindErr
	}
	haveBinding := bindErr == nil

	var challenge []byte
	err := m.store.Update(ctx, id, func(rec *Record) (*Record, error) {
		if rec == nil {
			if !haveBinding || op != OpLock {
				return nil, &Error{Kind: KindUnknownVault, Op: op, Detail: fmt.Sprintf("vault %q is not registered", id)}
			}
			rec = &Record{ID: id, CreatedAt: m.now()}
			rec.Session.reset()
		}
		s := &rec.Session

		switch op {
		case OpLock:
			if rec.Lock == Locked && s.Phase != PhaseAborted {
				return nil, newError(KindAlreadyLocked, op, s, "vault is locked")
			}
		case OpRechallenge:
			if rec.Lock != Locked {
				return nil, newError(KindNoActiveChallenge, op, s, "vault is not locked")
			}
		}
		if haveBinding && rec.Lock == Unlocked {
			rec.Owner = binding.Owner
			rec.PublicKey = append([]byte(nil), binding.PublicKey...)
		}
		if rec.Owner != owner {
			return nil, newError(KindNotOwner, op, s, "caller is not the vault owner")
		}

		c, err := deriveChallenge(m.rand, id, owner, rec.Nonce+1)
		if err != nil {
			return nil, err
		}
		rec.Nonce++
		rec.Lock = Locked
		rec.Challenge = c
		s.reset()
		s.LastTouch = m.now()
		ev.Phase = s.Phase
		challenge = append([]byte(nil), c...)
		return rec, nil
	})
	m.emit(ev, start, err)
	if err != nil {
		return nil, err
	}
	logger.Infof("vault %s: %s issued challenge", id, op)
	return challenge, nil
}

func (m *Manager) binding(ctx context.Context, id string) (Binding, error) {
	if m.registry == nil {
		return Binding{}, ErrNotFound
	}
	b, err := m.registry.Binding(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Binding{}, ErrNotFound
		}
		return Binding{}, fmt.Errorf("vault: registry lookup for %q: %w", id, err)
	}
	if err := b.Validate(); err != nil {
		return Binding{}, err
	}
	return b, nil
}

// requireChallenge checks that the vault is locked with a live challenge and
// that the session, when open, belongs to it.
func requireChallenge(op string, rec *Record) error {
	s := &rec.Session
	if rec.Lock != Locked || len(rec.Challenge) != ChallengeSize {
		return newError(KindNoActiveChallenge, op, s, "vault has no active challenge")
	}
	if s.Phase != PhaseEmpty && string(s.Challenge) != string(rec.Challenge) {
		return newError(KindPhaseMismatch, op, s, "session belongs to a previous challenge")
	}
	return nil
}

// InitStorage opens the upload session for the current challenge.
func (m *Manager) InitStorage(ctx context.Context, id string) error {
	return m.mutate(ctx, OpInitStorage, id, -1, func(rec *Record) error {
		if err := requireChallenge(OpInitStorage, rec); err != nil {
			return err
		}
		s := &rec.Session
		if s.Phase != PhaseEmpty {
			return newError(KindPhaseMismatch, OpInitStorage, s, "session already open")
		}
		s.open(rec.Challenge)
		return nil
	})
}

// Status returns a snapshot of the vault.
func (m *Manager) Status(ctx context.Context, id string) (*Status, error) {
	rec, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, &Error{Kind: KindUnknownVault, Op: OpStatus, Detail: fmt.Sprintf("vault %q is not registered", id)}
	}
	if err != nil {
		return nil, err
	}
	return rec.status(), nil
}

// Abort moves an in-flight session to Aborted. It is meant for external
// staleness policies; the vault stays locked.
func (m *Manager) Abort(ctx context.Context, id, reason string) error {
	return m.mutate(ctx, OpAbort, id, -1, func(rec *Record) error {
		s := &rec.Session
		if !s.Phase.InFlight() {
			return newError(KindPhaseMismatch, OpAbort, s, "no session in flight")
		}
		abortSession(s, reason)
		logger.Warnf("vault %s: session aborted: %s", rec.ID, reason)
		return nil
	})
}

// AbortIdle aborts the vault's session if it is in flight and was last
// touched more than ttl before now. The check and the abort are one store
// update, so a session that advances concurrently is never aborted.
func (m *Manager) AbortIdle(ctx context.Context, id string, ttl time.Duration, now time.Time, reason string) (bool, error) {
	start := m.now()
	ev := Event{VaultID: id, Op: OpAbort}
	aborted := false
	err := m.store.Update(ctx, id, func(rec *Record) (*Record, error) {
		if rec == nil {
			return nil, &Error{Kind: KindUnknownVault, Op: OpAbort, Detail: fmt.Sprintf("vault %q is not registered", id)}
		}
		s := &rec.Session
		if !s.Phase.InFlight() || now.Sub(s.LastTouch) <= ttl {
			return nil, nil
		}
		ev.Step = s.step()
		abortSession(s, reason)
		ev.Phase = s.Phase
		s.LastTouch = m.now()
		aborted = true
		return rec, nil
	})
	if err != nil || aborted {
		m.emit(ev, start, err)
	}
	if aborted {
		logger.Warnf("vault %s: session aborted: %s", id, reason)
	}
	return aborted && err == nil, err
}

func abortSession(s *Session, reason string) {
	s.Phase = PhaseAborted
	s.AbortReason = reason
	s.Verifier.Reset()
}

// fail aborts the session for a cryptographic failure and returns the error
// describing it.
func fail(rec *Record, kind Kind, op string, cause error) error {
	s := &rec.Session
	e := newError(kind, op, s, cause.Error())
	e.Err = cause
	abortSession(s, fmt.Sprintf("%s at %s step %d", kind, op, e.Step))
	logger.Warnf("vault %s: %v", rec.ID, e)
	return e
}
