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

// go/src/core/vault/store.go
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned by stores and registries for unknown vault ids.
var ErrNotFound = errors.New("vault: not found")

// UpdateFunc receives the current record (nil when absent) and returns the
// record to persist. Returning a nil record leaves storage untouched; a
// non-nil record is persisted even when an error is returned as well.
type UpdateFunc func(rec *Record) (*Record, error)

// Store persists vault records with per-record atomic read-modify-write.
type Store interface {
	// Get returns a copy of the record or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// Update runs fn under the record's lock and persists its result. The
	// error returned by fn is returned unchanged.
	Update(ctx context.Context, id string, fn UpdateFunc) error
	// IDs lists the stored vault ids.
	IDs(ctx context.Context) ([]string, error)
}

// Binding is the owner and public key a vault is bound to.
type Binding struct {
	Owner     string `json:"owner"`
	PublicKey []byte `json:"public_key"`
}

// Registry supplies owner/public-key bindings. The vault core reads it and
// never writes it.
type Registry interface {
	Binding(ctx context.Context, id string) (Binding, error)
}

// StaticRegistry is an in-memory Registry.
type StaticRegistry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{bindings: make(map[string]Binding)}
}

// Register binds a vault id to an owner and public key. Bindings are
// write-once; see CheckRebind.
func (r *StaticRegistry) Register(_ context.Context, id string, b Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bindings[id]; ok {
		return CheckRebind(id, existing, b)
	}
	r.bindings[id] = Binding{Owner: b.Owner, PublicKey: append([]byte(nil), b.PublicKey...)}
	return nil
}

// Binding implements Registry.
func (r *StaticRegistry) Binding(_ context.Context, id string) (Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, ErrNotFound
	}
	return Binding{Owner: b.Owner, PublicKey: append([]byte(nil), b.PublicKey...)}, nil
}

// CheckRebind decides a registration for a vault that is already bound.
// Repeating the same binding is a no-op; any other owner or key fails with
// KindAlreadyRegistered.
func CheckRebind(id string, existing, b Binding) error {
	if existing.Owner == b.Owner && bytes.Equal(existing.PublicKey, b.PublicKey) {
		return nil
	}
	return &Error{Kind: KindAlreadyRegistered, Op: OpRegister, Detail: fmt.Sprintf("vault %q is already bound", id)}
}

// Validate checks the binding shape.
func (b Binding) Validate() error {
	if b.Owner == "" {
		return errors.New("vault: binding has no owner")
	}
	if len(b.PublicKey) != PublicKeySize {
		return fmt.Errorf("vault: public key must be %d bytes, got %d", PublicKeySize, len(b.PublicKey))
	}
	return nil
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("vault: encode record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a stored record.
func DecodeRecord(data []byte) (*Record, error) {
	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("vault: decode record: %w", err)
	}
	return rec, nil
}

// MemoryStore keeps encoded records in a map. Records are stored encoded so
// callers never share memory with the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	data, ok := s.records[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return DecodeRecord(data)
}

// Raw returns the encoded record, for byte-level comparisons.
func (s *MemoryStore) Raw(id string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.records[id]...)
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *Record
	if data, ok := s.records[id]; ok {
		rec, err := DecodeRecord(data)
		if err != nil {
			return err
		}
		current = rec
	}
	next, fnErr := fn(current)
	if next != nil {
		data, err := EncodeRecord(next)
		if err != nil {
			return err
		}
		s.records[id] = data
	}
	return fnErr
}

// IDs implements Store.
func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
