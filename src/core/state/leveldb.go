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

// go/src/core/state/leveldb.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sphinx-core/qvault/src/core/vault"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	recordPrefix  = "vault/"
	bindingPrefix = "binding/"
)

func recordKey(id string) []byte  { return []byte(recordPrefix + id) }
func bindingKey(id string) []byte { return []byte(bindingPrefix + id) }

// Get implements vault.Store.
func (d *DB) Get(ctx context.Context, id string) (*vault.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.load(id)
}

func (d *DB) load(id string) (*vault.Record, error) {
	data, err := d.db.Get(recordKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb: read vault %q: %w", id, err)
	}
	return vault.DecodeRecord(data)
}

// Update implements vault.Store. Writes are serialized store-wide and synced
// before Update returns.
func (d *DB) Update(ctx context.Context, id string, fn vault.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	current, err := d.load(id)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return err
	}
	next, fnErr := fn(current)
	if next != nil {
		data, err := vault.EncodeRecord(next)
		if err != nil {
			return err
		}
		if err := d.db.Put(recordKey(id), data, &opt.WriteOptions{Sync: true}); err != nil {
			return fmt.Errorf("leveldb: write vault %q: %w", id, err)
		}
	}
	return fnErr
}

// IDs implements vault.Store.
func (d *DB) IDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	iter := d.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil)
	defer iter.Release()
	var ids []string
	for iter.Next() {
		ids = append(ids, string(iter.Key()[len(recordPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("leveldb: list vaults: %w", err)
	}
	return ids, nil
}

// Register stores the owner/public-key binding of a vault. Bindings are
// write-once.
func (d *DB) Register(ctx context.Context, id string, b vault.Binding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("leveldb: encode binding: %w", err)
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	existing, err := d.binding(id)
	switch {
	case err == nil:
		return vault.CheckRebind(id, existing, b)
	case !errors.Is(err, vault.ErrNotFound):
		return err
	}
	if err := d.db.Put(bindingKey(id), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("leveldb: write binding %q: %w", id, err)
	}
	return nil
}

// Binding implements vault.Registry.
func (d *DB) Binding(ctx context.Context, id string) (vault.Binding, error) {
	if err := ctx.Err(); err != nil {
		return vault.Binding{}, err
	}
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.binding(id)
}

func (d *DB) binding(id string) (vault.Binding, error) {
	data, err := d.db.Get(bindingKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return vault.Binding{}, vault.ErrNotFound
	}
	if err != nil {
		return vault.Binding{}, fmt.Errorf("leveldb: read binding %q: %w", id, err)
	}
	var b vault.Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return vault.Binding{}, fmt.Errorf("leveldb: decode binding %q: %w", id, err)
	}
	return b, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}
