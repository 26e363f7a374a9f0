/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

const (
	writeTimeout = 5 * time.Second
	closeTimeout = time.Second
)

// WebSocketSource reads deltas from the controller's websocket and writes
// commands back on the same connection.
type WebSocketSource struct {
	url    string
	dialer *websocket.Dialer
	logger logger.Logger

	mu        sync.Mutex // serializes writes and guards conn
	conn      *websocket.Conn
	connected atomic.Bool
	closed    atomic.Bool
}

// NewWebSocketSource creates a source for the controller at url.
func NewWebSocketSource(url string, handshakeTimeout time.Duration, log logger.Logger) *WebSocketSource {
	return &WebSocketSource{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: log,
	}
}

// Run dials the controller and delivers every inbound message until the
// connection closes or ctx is canceled.
func (w *WebSocketSource) Run(ctx context.Context, gen uint64, sink Sink) error {
	w.logger.Info().Str("url", w.url).Uint64("generation", gen).Msg("Connecting to controller")

	conn, resp, err := w.dialer.DialContext(ctx, w.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		if resp != nil {
			w.logger.Warn().Str("status", resp.Status).Msg("Unexpected handshake response")
		}

		w.logger.Warn().Err(err).Str("url", w.url).Msg("Controller unreachable")

		_ = sink.ConnectionChanged(ctx, gen, models.Disconnected)

		return fmt.Errorf("%w: %w", ErrDial, err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if w.closed.Load() {
		_ = conn.Close()

		return nil
	}

	w.connected.Store(true)

	if err := sink.ConnectionChanged(ctx, gen, models.Connected); err != nil {
		_ = w.Close()

		return err
	}

	w.logger.Info().Str("url", w.url).Msg("Connected to controller")

	stop := context.AfterFunc(ctx, func() { _ = w.Close() })
	defer stop()

	defer func() {
		w.connected.Store(false)
		_ = conn.Close()
		_ = sink.ConnectionChanged(ctx, gen, models.Disconnected)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || w.closed.Load() {
				return nil
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Info().Msg("Controller closed the connection")

				return nil
			}

			w.logger.Warn().Err(err).Msg("Controller connection lost")

			return fmt.Errorf("read from controller: %w", err)
		}

		if err := sink.Deliver(ctx, gen, data); err != nil {
			return err
		}
	}
}

// Send writes {"command": cmd} to the controller.
func (w *WebSocketSource) Send(cmd models.Command) error {
	if !w.connected.Load() {
		return ErrNotConnected
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return ErrNotConnected
	}

	if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return w.conn.WriteJSON(models.OutboundCommand{Command: cmd})
}

// Connected reports whether the socket is open.
func (w *WebSocketSource) Connected() bool {
	return w.connected.Load()
}

// Close sends a close frame and tears down the connection. Safe to call
// more than once and from any goroutine.
func (w *WebSocketSource) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	w.connected.Store(false)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}

	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout))

	return w.conn.Close()
}
