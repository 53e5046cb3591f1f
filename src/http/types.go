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

// go/src/http/types.go
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphinx-core/qvault/src/core/vault"
	"github.com/sphinx-core/qvault/src/transport"
)

// Registrar stores vault bindings and reads them back.
type Registrar interface {
	vault.Registry
	Register(ctx context.Context, id string, b vault.Binding) error
}

// Server serves the vault API over HTTP.
type Server struct {
	address  string
	router   *gin.Engine
	manager  *vault.Manager
	registry Registrar
	hub      *transport.Hub
	metrics  *Metrics
	srv      *http.Server
}

// RegisterRequest binds a vault to an owner and public key. The key may be
// hex (optionally 0x-prefixed) or base58.
type RegisterRequest struct {
	Owner     string `json:"owner" binding:"required"`
	PublicKey string `json:"public_key" binding:"required"`
}

// RegisterResponse echoes the stored binding.
type RegisterResponse struct {
	VaultID     string `json:"vault_id"`
	Owner       string `json:"owner"`
	Fingerprint string `json:"fingerprint"`
}

// OwnerRequest carries the caller identity of lock and rechallenge.
type OwnerRequest struct {
	Owner string `json:"owner" binding:"required"`
}

// ChallengeResponse carries an issued challenge.
type ChallengeResponse struct {
	VaultID   string `json:"vault_id"`
	Challenge []byte `json:"challenge"`
	Display   string `json:"challenge_b58"`
}

// ChunkRequest carries one signature chunk, base64 encoded.
type ChunkRequest struct {
	Data []byte `json:"data"`
}

// AbortRequest carries the abort reason.
type AbortRequest struct {
	Reason string `json:"reason"`
}

// StepResponse reports the session position after a step.
type StepResponse struct {
	Phase          vault.Phase     `json:"phase"`
	Lock           vault.LockState `json:"lock"`
	RemainingSteps int             `json:"remaining_steps"`
}

// ErrorResponse is the body of every failed request. Kind is the exact
// failure kind. A failed final root check on /wots reports "RootMismatch",
// which belongs to the WOTS+ failure class: clients that only test for
// "WOTSVerificationFailed" must accept both. Errors decoded by Client
// match vault.ErrWOTSVerificationFailed in either case.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Op     string `json:"op,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Step   int    `json:"step"`
	Detail string `json:"detail,omitempty"`
}
