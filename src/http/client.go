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

// go/src/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sphinx-core/qvault/src/common"
	"github.com/sphinx-core/qvault/src/core/vault"
)

// Client drives a remote vault server. It implements vault.Stepper, so
// vault.Drive can run an unlock over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ vault.Stepper = (*Client)(nil)

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) path(id string, parts ...string) string {
	p := c.baseURL + "/vaults/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// do sends body as JSON and decodes a 2xx reply into out.
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			return &StatusError{Code: resp.StatusCode, Message: resp.Status}
		}
		return decodeError(resp.StatusCode, e)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Register binds a vault to owner and pk. It returns the key fingerprint.
func (c *Client) Register(ctx context.Context, id, owner string, pk []byte) (string, error) {
	var resp RegisterResponse
	req := RegisterRequest{Owner: owner, PublicKey: common.Bytes2Hex(pk)}
	if err := c.do(ctx, http.MethodPost, c.path(id, "register"), req, &resp); err != nil {
		return "", err
	}
	return resp.Fingerprint, nil
}

// Lock locks the vault and returns the challenge to sign.
func (c *Client) Lock(ctx context.Context, id, owner string) ([]byte, error) {
	return c.issue(ctx, id, "lock", owner)
}

// Rechallenge replaces the challenge of a locked vault.
func (c *Client) Rechallenge(ctx context.Context, id, owner string) ([]byte, error) {
	return c.issue(ctx, id, "rechallenge", owner)
}

func (c *Client) issue(ctx context.Context, id, op, owner string) ([]byte, error) {
	var resp ChallengeResponse
	if err := c.do(ctx, http.MethodPost, c.path(id, op), OwnerRequest{Owner: owner}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Challenge) != vault.ChallengeSize {
		return nil, fmt.Errorf("server returned a %d-byte challenge", len(resp.Challenge))
	}
	return resp.Challenge, nil
}

// Status fetches the vault snapshot.
func (c *Client) Status(ctx context.Context, id string) (*vault.Status, error) {
	var st vault.Status
	if err := c.do(ctx, http.MethodGet, c.path(id), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Abort aborts the in-flight session.
func (c *Client) Abort(ctx context.Context, id, reason string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "abort"), AbortRequest{Reason: reason}, nil)
}

// InitStorage implements vault.Stepper.
func (c *Client) InitStorage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "storage"), nil, nil)
}

// UploadChunk implements vault.Stepper.
func (c *Client) UploadChunk(ctx context.Context, id string, index int, data []byte) error {
	return c.do(ctx, http.MethodPut, c.path(id, "chunks", strconv.Itoa(index)), ChunkRequest{Data: data}, nil)
}

// InitVerification implements vault.Stepper.
func (c *Client) InitVerification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "verification"), nil, nil)
}

// StepFORS implements vault.Stepper.
func (c *Client) StepFORS(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "fors"), nil, nil)
}

// StepWOTS implements vault.Stepper.
func (c *Client) StepWOTS(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "wots"), nil, nil)
}

// Finalize implements vault.Stepper.
func (c *Client) Finalize(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.path(id, "finalize"), nil, nil)
}
