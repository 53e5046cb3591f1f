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

// go/src/core/vault/errors.go
package vault

import (
	"errors"
	"fmt"
)

// Kind is a stable classification of vault errors.
type Kind uint16

const (
	KindNone Kind = iota
	KindAlreadyLocked
	KindNoActiveChallenge
	KindChunkAlreadySet
	KindIncompleteUpload
	KindMalformedSignatureLength
	KindPhaseMismatch
	KindFORSVerificationFailed
	KindWOTSVerificationFailed
	KindRootMismatch
	KindNoPendingFinalization
	KindUnknownVault
	KindNotOwner
	KindAlreadyRegistered
)

var kindNames = [...]string{
	"None",
	"AlreadyLocked",
	"NoActiveChallenge",
	"ChunkAlreadySet",
	"IncompleteUpload",
	"MalformedSignatureLength",
	"PhaseMismatch",
	"FORSVerificationFailed",
	"WOTSVerificationFailed",
	"RootMismatch",
	"NoPendingFinalization",
	"UnknownVault",
	"NotOwner",
	"AlreadyRegistered",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("vault: unknown error kind %q", text)
	}
	*k = kind
	return nil
}

// ParseKind maps a kind name back to its value.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return KindNone, false
}

// Fatal reports whether the kind ends the session in Aborted.
func (k Kind) Fatal() bool {
	switch k {
	case KindFORSVerificationFailed, KindWOTSVerificationFailed, KindRootMismatch:
		return true
	}
	return false
}

// Sentinels for errors.Is. Errors returned by the Manager are *Error values
// carrying the failing operation and phase; they match the sentinel of
// their Kind.
var (
	ErrAlreadyLocked            = &Error{Kind: KindAlreadyLocked}
	ErrNoActiveChallenge        = &Error{Kind: KindNoActiveChallenge}
	ErrChunkAlreadySet          = &Error{Kind: KindChunkAlreadySet}
	ErrIncompleteUpload         = &Error{Kind: KindIncompleteUpload}
	ErrMalformedSignatureLength = &Error{Kind: KindMalformedSignatureLength}
	ErrPhaseMismatch            = &Error{Kind: KindPhaseMismatch}
	ErrFORSVerificationFailed   = &Error{Kind: KindFORSVerificationFailed}
	ErrWOTSVerificationFailed   = &Error{Kind: KindWOTSVerificationFailed}
	ErrRootMismatch             = &Error{Kind: KindRootMismatch}
	ErrNoPendingFinalization    = &Error{Kind: KindNoPendingFinalization}
	ErrUnknownVault             = &Error{Kind: KindUnknownVault}
	ErrNotOwner                 = &Error{Kind: KindNotOwner}
	ErrAlreadyRegistered        = &Error{Kind: KindAlreadyRegistered}
)

// Error is a vault operation failure.
type Error struct {
	Kind   Kind
	Op     string
	Phase  Phase
	Step   int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "vault: " + e.Kind.String()
	}
	msg := fmt.Sprintf("vault %s: %s (phase %s, step %d)", e.Op, e.Kind, e.Phase, e.Step)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind. A final root mismatch is the last failure
// mode of the WOTS+ phase and also matches ErrWOTSVerificationFailed.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindRootMismatch && t.Kind == KindWOTSVerificationFailed
}

// KindOf extracts the Kind of a vault error, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func newError(kind Kind, op string, s *Session, detail string) *Error {
	return &Error{Kind: kind, Op: op, Phase: s.Phase, Step: s.step(), Detail: detail}
}
