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

// go/src/http/server.go
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sphinx-core/qvault/src/common"
	"github.com/sphinx-core/qvault/src/core/vault"
	logger "github.com/sphinx-core/qvault/src/log"
	"github.com/sphinx-core/qvault/src/transport"
)

// NewServer creates a new HTTP server. hub and metrics may be nil.
func NewServer(address string, manager *vault.Manager, registry Registrar, hub *transport.Hub, metrics *Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Server{
		address:  address,
		router:   r,
		manager:  manager,
		registry: registry,
		hub:      hub,
		metrics:  metrics,
	}
	if metrics != nil {
		r.Use(s.instrument)
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetTLSConfig serves HTTPS with cfg.
func (s *Server) SetTLSConfig(cfg *tls.Config) { s.srv.TLSConfig = cfg }

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes defines HTTP endpoints.
func (s *Server) setupRoutes() {
	v := s.router.Group("/vaults/:id")
	v.GET("", s.handleStatus)
	v.POST("/register", s.handleRegister)
	v.POST("/lock", s.handleIssue(vault.OpLock))
	v.POST("/rechallenge", s.handleIssue(vault.OpRechallenge))
	v.POST("/storage", s.handleStep(s.manager.InitStorage))
	v.PUT("/chunks/:index", s.handleChunk)
	v.POST("/verification", s.handleStep(s.manager.InitVerification))
	v.POST("/fors", s.handleStep(s.manager.StepFORS))
	// The last /wots step fails with kind RootMismatch, a WOTS+ failure.
	v.POST("/wots", s.handleStep(s.manager.StepWOTS))
	v.POST("/finalize", s.handleStep(s.manager.Finalize))
	v.POST("/abort", s.handleAbort)
	if s.hub != nil {
		v.GET("/events", s.handleEvents)
	}
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}
	s.router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
}

// instrument records request counts and latency per route.
func (s *Server) instrument(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.metrics.RequestCount.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	s.metrics.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// handleStatus returns the vault snapshot.
func (s *Server) handleStatus(c *gin.Context) {
	st, err := s.manager.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handleRegister binds a vault. Bindings are write-once: repeating the
// stored binding succeeds, anything else is AlreadyRegistered.
func (s *Server) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pk, err := common.DecodeBytes(req.PublicKey)
	if err != nil {
		badRequest(c, fmt.Errorf("public_key: %w", err))
		return
	}
	id := c.Param("id")

	b := vault.Binding{Owner: req.Owner, PublicKey: pk}
	if err := b.Validate(); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.registry.Register(c.Request.Context(), id, b); err != nil {
		if errors.Is(err, vault.ErrAlreadyRegistered) {
			logger.Warnf("vault %s: refused rebinding to %s (%s)", id, req.Owner, common.Fingerprint(pk))
		}
		writeError(c, err)
		return
	}
	logger.Infof("vault %s: registered to %s (%s)", id, req.Owner, common.Fingerprint(pk))
	c.JSON(http.StatusCreated, RegisterResponse{VaultID: id, Owner: req.Owner, Fingerprint: common.Fingerprint(pk)})
}

// handleIssue serves lock and rechallenge.
func (s *Server) handleIssue(op string) gin.HandlerFunc {
	issue := s.manager.Lock
	if op == vault.OpRechallenge {
		issue = s.manager.Rechallenge
	}
	return func(c *gin.Context) {
		var req OwnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		id := c.Param("id")
		challenge, err := issue(c.Request.Context(), id, req.Owner)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ChallengeResponse{VaultID: id, Challenge: challenge, Display: common.EncodeBase58(challenge)})
	}
}

// handleStep serves the body-less session steps.
func (s *Server) handleStep(step func(ctx context.Context, id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := step(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		s.respondStep(c)
	}
}

// handleChunk stores one signature chunk.
func (s *Server) handleChunk(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid chunk index %q", c.Param("index")))
		return
	}
	var req ChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.manager.UploadChunk(c.Request.Context(), c.Param("id"), index, req.Data); err != nil {
		writeError(c, err)
		return
	}
	s.respondStep(c)
}

// handleAbort aborts the in-flight session.
func (s *Server) handleAbort(c *gin.Context) {
	var req AbortRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.Reason == "" {
		req.Reason = "aborted by client"
	}
	if err := s.manager.Abort(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		writeError(c, err)
		return
	}
	s.respondStep(c)
}

// handleEvents streams the vault's events over a websocket.
func (s *Server) handleEvents(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request, c.Param("id"))
}

func (s *Server) respondStep(c *gin.Context) {
	st, err := s.manager.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StepResponse{Phase: st.Phase, Lock: st.Lock, RemainingSteps: st.RemainingSteps})
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	var err error
	if s.srv.TLSConfig != nil {
		logger.Infof("HTTPS server listening on %s", s.address)
		err = s.srv.ListenAndServeTLS("", "")
	} else {
		logger.Infof("HTTP server listening on %s", s.address)
		err = s.srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
