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

// Package ingest runs the channel that feeds controller deltas into the
// dashboard store: a websocket to the controller in live mode, a local
// simulator otherwise. The Supervisor guarantees that only one source is
// current at a time.
package ingest

import (
	"context"
	"errors"

	"github.com/carverauto/signalradar/pkg/models"
)

var (
	ErrNotConnected = errors.New("ingestion channel not connected")
	ErrSimulated    = errors.New("commands are not sent in simulation")
	ErrDial         = errors.New("failed to open ingestion channel")
	ErrNotRunning   = errors.New("supervisor not running")
)

// Sink receives everything a source produces. gen is the generation the
// source was started with; the sink discards events from retired generations.
type Sink interface {
	Deliver(ctx context.Context, gen uint64, payload []byte) error
	ConnectionChanged(ctx context.Context, gen uint64, state models.ConnectionState) error
}

// GenerationSink is a Sink that can retire all current sources.
type GenerationSink interface {
	Sink
	NextGeneration(ctx context.Context, mode models.OperatingMode) (uint64, error)
}

// Source is one ingestion channel.
type Source interface {
	// Run blocks, delivering payloads to sink until ctx is canceled or the
	// channel fails.
	Run(ctx context.Context, gen uint64, sink Sink) error
	// Send writes a command to the controller.
	Send(cmd models.Command) error
	// Connected reports whether Send can currently succeed.
	Connected() bool
	Close() error
}

// Factory builds the source for an operating mode.
type Factory func(mode models.OperatingMode) Source
