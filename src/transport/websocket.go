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

// go/src/transport/websocket.go
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sphinx-core/qvault/src/core/vault"
	logger "github.com/sphinx-core/qvault/src/log"
)

var _ vault.Observer = (*Hub)(nil)

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Observe implements vault.Observer. Slow subscribers lose events rather
// than stall the vault operation that produced them.
func (h *Hub) Observe(ev vault.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.vaultID != "" && s.vaultID != ev.VaultID {
			continue
		}
		select {
		case s.send <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeWS upgrades the request and streams events of vaultID (all vaults
// when empty) until the peer disconnects or the hub closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, vaultID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	s := &subscriber{conn: conn, vaultID: vaultID, send: make(chan vault.Event, sendBuffer)}
	if !h.add(s) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	logger.Debugf("WebSocket subscriber %s for vault %q", conn.RemoteAddr(), vaultID)

	go h.readLoop(s)
	h.writeLoop(s)
}

func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	return true
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if ok {
		if n := s.dropped.Load(); n > 0 {
			logger.Warnf("WebSocket subscriber %s dropped %d events", s.conn.RemoteAddr(), n)
		}
		s.close()
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// readLoop discards client messages and detects disconnects.
func (h *Hub) readLoop(s *subscriber) {
	defer h.remove(s)
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				logger.Debugf("WebSocket write error: %v", err)
				h.remove(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()
	for s := range subs {
		s.close()
	}
}

// DialEvents connects to an event endpoint such as
// ws://host/vaults/<id>/events.
func DialEvents(ctx context.Context, url string) (*EventStream, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks for the next event.
func (e *EventStream) Next() (vault.Event, error) {
	var ev vault.Event
	if err := e.conn.ReadJSON(&ev); err != nil {
		return vault.Event{}, err
	}
	return ev, nil
}

// SetDeadline bounds the next reads.
func (e *EventStream) SetDeadline(t time.Time) error {
	return e.conn.SetReadDeadline(t)
}

// Close closes the connection.
func (e *EventStream) Close() error {
	e.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return e.conn.Close()
}
