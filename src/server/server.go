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

// go/src/server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/sphinx-core/qvault/src/common"
	database "github.com/sphinx-core/qvault/src/core/state"
	"github.com/sphinx-core/qvault/src/core/vault"
	qhttp "github.com/sphinx-core/qvault/src/http"
	logger "github.com/sphinx-core/qvault/src/log"
	"github.com/sphinx-core/qvault/src/security"
	"github.com/sphinx-core/qvault/src/transport"
)

// Server wires the store, the vault manager, the HTTP API, the event hub
// and the staleness sweeper.
type Server struct {
	cfg        *common.Config
	backend    database.Backend
	manager    *vault.Manager
	hub        *transport.Hub
	metrics    *qhttp.Metrics
	httpServer *qhttp.Server
	sweeper    *Sweeper
}

// NewServer opens the configured store and builds every component.
func NewServer(cfg *common.Config, opts ...vault.Option) (*Server, error) {
	if err := transport.ValidateListenAddress(cfg.Server.Listen); err != nil {
		return nil, err
	}
	backend, err := database.Open(cfg.Store.Driver, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	var tlsConfig *tls.Config
	if cfg.Server.TLSCert != "" || cfg.Server.TLSKey != "" {
		if tlsConfig, err = security.LoadTLSConfig(cfg.Server.TLSCert, cfg.Server.TLSKey); err != nil {
			backend.Close()
			return nil, err
		}
	}

	hub := transport.NewHub()
	metrics := qhttp.NewMetrics()
	opts = append([]vault.Option{vault.WithObserver(vault.Observers(hub, metrics, logEvents))}, opts...)
	manager := vault.NewManager(backend, backend, opts...)

	httpServer := qhttp.NewServer(cfg.Server.Listen, manager, backend, hub, metrics)
	if tlsConfig != nil {
		httpServer.SetTLSConfig(tlsConfig)
	}

	return &Server{
		cfg:        cfg,
		backend:    backend,
		manager:    manager,
		hub:        hub,
		metrics:    metrics,
		httpServer: httpServer,
		sweeper:    NewSweeper(manager, cfg.Session.TTL, time.Now),
	}, nil
}

// logEvents logs every vault operation at debug level.
var logEvents = vault.ObserverFunc(func(ev vault.Event) {
	if ev.Failed() {
		logger.Debugf("vault %s: %s failed at step %d: %s", ev.VaultID, ev.Op, ev.Step, ev.Error)
		return
	}
	logger.Debugf("vault %s: %s step %d -> %s (%s)", ev.VaultID, ev.Op, ev.Step, ev.Phase, ev.Duration)
})

// Manager returns the vault manager.
func (s *Server) Manager() *vault.Manager { return s.manager }

// Backend returns the store.
func (s *Server) Backend() database.Backend { return s.backend }

// Run serves until ctx is done, then shuts down and closes the store.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Start() }()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if s.cfg.Session.TTL > 0 && s.cfg.Session.SweepInterval > 0 {
		go s.sweeper.Run(sweepCtx, s.cfg.Session.SweepInterval)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := s.backend.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	logger.Infof("server stopped")
	return runErr
}
