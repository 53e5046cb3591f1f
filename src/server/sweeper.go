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

// go/src/server/sweeper.go
package server

import (
	"context"
	"errors"
	"time"

	"github.com/sphinx-core/qvault/src/core/vault"
	logger "github.com/sphinx-core/qvault/src/log"
	"go.uber.org/zap"
)

// Sweeper aborts sessions that have not advanced within the TTL. The vault
// stays locked; the owner retries with a fresh lock.
type Sweeper struct {
	manager *vault.Manager
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewSweeper creates a sweeper over the manager's store.
func NewSweeper(m *vault.Manager, ttl time.Duration, now func() time.Time) *Sweeper {
	return &Sweeper{manager: m, ttl: ttl, now: now, log: logger.Named("sweeper")}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep aborts every stale in-flight session and returns the affected ids.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	ids, err := s.manager.Store().IDs(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var aborted []string
	for _, id := range ids {
		ok, err := s.manager.AbortIdle(ctx, id, s.ttl, now, "session expired")
		switch {
		case errors.Is(err, vault.ErrUnknownVault):
			// Removed since the listing.
		case err != nil:
			return aborted, err
		case ok:
			aborted = append(aborted, id)
			s.log.Info("aborted stale session", zap.String("vault", id), zap.Duration("ttl", s.ttl))
		}
	}
	return aborted, nil
}
