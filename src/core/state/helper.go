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

// go/src/core/state/helper.go
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// NewLevelDBAdapter wraps an open leveldb.DB as a vault store.
func NewLevelDBAdapter(ldb *leveldb.DB) *DB {
	return &DB{db: &LevelDBAdapter{db: ldb}}
}

// OpenLevelDB opens (or creates) a LevelDB store at path.
func OpenLevelDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create leveldb directory: %w", err)
	}
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return NewLevelDBAdapter(ldb), nil
}

// OpenMemoryLevelDB opens a LevelDB store backed by memory only.
func OpenMemoryLevelDB() (*DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory leveldb: %w", err)
	}
	return NewLevelDBAdapter(ldb), nil
}

// Put implements LevelDBInterface
func (a *LevelDBAdapter) Put(key []byte, value []byte, wo *opt.WriteOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Put(key, value, wo)
}

// Get implements LevelDBInterface
func (a *LevelDBAdapter) Get(key []byte, ro *opt.ReadOptions) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db.Get(key, ro)
}

// Delete implements LevelDBInterface
func (a *LevelDBAdapter) Delete(key []byte, wo *opt.WriteOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Delete(key, wo)
}

// Has implements LevelDBInterface
func (a *LevelDBAdapter) Has(key []byte, ro *opt.ReadOptions) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db.Has(key, ro)
}

// NewIterator implements LevelDBInterface
func (a *LevelDBAdapter) NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db.NewIterator(slice, ro)
}

// Close implements LevelDBInterface
func (a *LevelDBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}
