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

// go/src/http/errors.go
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sphinx-core/qvault/src/core/vault"
	logger "github.com/sphinx-core/qvault/src/log"
)

// StatusCode maps a vault error kind to its HTTP status.
func StatusCode(kind vault.Kind) int {
	switch kind {
	case vault.KindUnknownVault:
		return http.StatusNotFound
	case vault.KindNotOwner:
		return http.StatusForbidden
	case vault.KindAlreadyLocked, vault.KindNoActiveChallenge, vault.KindPhaseMismatch,
		vault.KindChunkAlreadySet, vault.KindIncompleteUpload, vault.KindNoPendingFinalization,
		vault.KindAlreadyRegistered:
		return http.StatusConflict
	case vault.KindMalformedSignatureLength, vault.KindFORSVerificationFailed,
		vault.KindWOTSVerificationFailed, vault.KindRootMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an ErrorResponse.
func writeError(c *gin.Context, err error) {
	var verr *vault.Error
	if !errors.As(err, &verr) {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := ErrorResponse{
		Error:  verr.Error(),
		Kind:   verr.Kind.String(),
		Op:     verr.Op,
		Step:   verr.Step,
		Detail: verr.Detail,
	}
	if verr.Op != "" {
		resp.Phase = verr.Phase.String()
	}
	c.JSON(StatusCode(verr.Kind), resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// decodeError turns an error body back into an error. Bodies that carry a
// kind become *vault.Error so callers can match the vault sentinels.
func decodeError(status int, body ErrorResponse) error {
	kind, ok := vault.ParseKind(body.Kind)
	if !ok || kind == vault.KindNone {
		if body.Error == "" {
			body.Error = http.StatusText(status)
		}
		return &StatusError{Code: status, Message: body.Error}
	}
	e := &vault.Error{Kind: kind, Op: body.Op, Step: body.Step, Detail: body.Detail}
	if body.Phase != "" {
		if err := e.Phase.UnmarshalText([]byte(body.Phase)); err != nil {
			return &StatusError{Code: status, Message: body.Error}
		}
	}
	return e
}

// StatusError is a non-vault failure reported by the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return "http " + http.StatusText(e.Code) + ": " + e.Message
}
