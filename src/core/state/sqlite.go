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

// go/src/core/state/sqlite.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sphinx-core/qvault/src/core/vault"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// SQLite is a vault store and registry in a single SQLite file.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Backend = (*SQLite)(nil)

// OpenSQLite opens or creates a SQLite store at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps in-memory databases shared and writes ordered.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vaults (
			id      TEXT PRIMARY KEY,
			data    BLOB NOT NULL,
			updated TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bindings (
			id         TEXT PRIMARY KEY,
			owner      TEXT NOT NULL,
			public_key BLOB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Get implements vault.Store.
func (s *SQLite) Get(ctx context.Context, id string) (*vault.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM vaults WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read vault %q: %w", id, err)
	}
	return vault.DecodeRecord(data)
}

// Update implements vault.Store inside one transaction.
func (s *SQLite) Update(ctx context.Context, id string, fn vault.UpdateFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()

	var current *vault.Record
	var data []byte
	switch scanErr := tx.QueryRowContext(ctx, `SELECT data FROM vaults WHERE id = ?`, id).Scan(&data); {
	case errors.Is(scanErr, sql.ErrNoRows):
	case scanErr != nil:
		return fmt.Errorf("sqlite: read vault %q: %w", id, scanErr)
	default:
		if current, err = vault.DecodeRecord(data); err != nil {
			return err
		}
	}

	next, fnErr := fn(current)
	if next == nil {
		tx.Rollback()
		tx = nil
		return fnErr
	}
	encoded, err := vault.EncodeRecord(next)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vaults (id, data, updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated = excluded.updated
	`, id, encoded, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: write vault %q: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	tx = nil
	return fnErr
}

// IDs implements vault.Store.
func (s *SQLite) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM vaults ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list vaults: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan vault id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Register stores the owner/public-key binding of a vault. Bindings are
// write-once.
func (s *SQLite) Register(ctx context.Context, id string, b vault.Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bindings (id, owner, public_key) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, b.Owner, b.PublicKey)
	if err != nil {
		return fmt.Errorf("sqlite: write binding %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 1 {
		return err
	}
	existing, err := s.Binding(ctx, id)
	if err != nil {
		return err
	}
	return vault.CheckRebind(id, existing, b)
}

// Binding implements vault.Registry.
func (s *SQLite) Binding(ctx context.Context, id string) (vault.Binding, error) {
	var b vault.Binding
	err := s.db.QueryRowContext(ctx, `SELECT owner, public_key FROM bindings WHERE id = ?`, id).Scan(&b.Owner, &b.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return vault.Binding{}, vault.ErrNotFound
	}
	if err != nil {
		return vault.Binding{}, fmt.Errorf("sqlite: read binding %q: %w", id, err)
	}
	return b, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
