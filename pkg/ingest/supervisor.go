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
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

const (
	instrumentationName = "github.com/carverauto/signalradar/pkg/ingest"
	stopTimeout         = 3 * time.Second
)

// running is a started source and the means to stop it.
type running struct {
	src    Source
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns the current ingestion channel and replaces it when the
// operating mode changes.
type Supervisor struct {
	sink    GenerationSink
	factory Factory
	logger  logger.Logger
	tracer  trace.Tracer

	commandsSent    metric.Int64Counter
	commandsDropped metric.Int64Counter

	// mu serializes mode switches and may be held while a source stops.
	mu     sync.Mutex
	runCtx context.Context
	mode   models.OperatingMode

	// curMu guards current only and is never held across blocking calls.
	curMu   sync.Mutex
	current *running
}

// NewSupervisor creates a supervisor that starts in mode once Run is called.
func NewSupervisor(sink GenerationSink, factory Factory, mode models.OperatingMode, log logger.Logger) *Supervisor {
	s := &Supervisor{
		sink:    sink,
		factory: factory,
		logger:  log,
		tracer:  otel.Tracer(instrumentationName),
		mode:    mode,
	}

	meter := otel.Meter(instrumentationName)

	var err error

	if s.commandsSent, err = meter.Int64Counter("signalradar.commands.sent"); err != nil {
		log.Warn().Err(err).Msg("Failed to create commands.sent counter")
	}

	if s.commandsDropped, err = meter.Int64Counter("signalradar.commands.dropped"); err != nil {
		log.Warn().Err(err).Msg("Failed to create commands.dropped counter")
	}

	return s
}

// Run starts the source for the initial mode and blocks until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	mode := s.mode
	s.mu.Unlock()

	if err := s.SetMode(ctx, mode); err != nil {
		return err
	}

	<-ctx.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	return nil
}

// Mode returns the current operating mode.
func (s *Supervisor) Mode() models.OperatingMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

// ToggleMode flips between live and simulated operation.
func (s *Supervisor) ToggleMode(ctx context.Context) error {
	return s.SetMode(ctx, s.Mode().Toggle())
}

// SetMode retires the current source and starts a new one for mode. The
// generation advances before the old source is closed, so nothing the old
// source delivers afterwards reaches the store.
func (s *Supervisor) SetMode(ctx context.Context, mode models.OperatingMode) error {
	ctx, span := s.tracer.Start(ctx, "ingest.SetMode",
		trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runCtx == nil {
		return ErrNotRunning
	}

	gen, err := s.sink.NextGeneration(ctx, mode)
	if err != nil {
		span.RecordError(err)

		// The generation may already have advanced, so the old source is
		// retired either way.
		s.stopLocked()

		return err
	}

	span.SetAttributes(attribute.Int64("generation", int64(gen)))

	s.stopLocked()

	s.mode = mode
	r := s.startLocked(mode, gen)

	s.curMu.Lock()
	s.current = r
	s.curMu.Unlock()

	s.logger.Info().Str("mode", string(mode)).Uint64("generation", gen).Msg("Ingestion channel started")

	return nil
}

// Send forwards cmd when the current channel is connected. Otherwise the
// command is dropped and Send returns false.
func (s *Supervisor) Send(cmd models.Command) bool {
	s.curMu.Lock()
	cur := s.current
	s.curMu.Unlock()

	ctx := context.Background()

	if cur == nil || !cur.src.Connected() {
		s.countCommand(ctx, s.commandsDropped, cmd)
		s.logger.Debug().Str("command", string(cmd)).Msg("Dropping command, channel not connected")

		return false
	}

	if err := cur.src.Send(cmd); err != nil {
		s.countCommand(ctx, s.commandsDropped, cmd)
		s.logger.Warn().Err(err).Str("command", string(cmd)).Msg("Failed to send command")

		return false
	}

	s.countCommand(ctx, s.commandsSent, cmd)
	s.logger.Info().Str("command", string(cmd)).Msg("Command sent")

	return true
}

func (s *Supervisor) countCommand(ctx context.Context, c metric.Int64Counter, cmd models.Command) {
	if c == nil {
		return
	}

	c.Add(ctx, 1, metric.WithAttributes(attribute.String("command", string(cmd))))
}

func (s *Supervisor) startLocked(mode models.OperatingMode, gen uint64) *running {
	src := s.factory(mode)
	ctx, cancel := context.WithCancel(s.runCtx)

	r := &running{src: src, gen: gen, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)

		err := src.Run(ctx, gen, s.sink)
		if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
			s.logger.Warn().Err(err).Str("mode", string(mode)).Uint64("generation", gen).
				Msg("Ingestion channel ended")
		}
	}()

	return r
}

func (s *Supervisor) stopLocked() {
	s.curMu.Lock()
	r := s.current
	s.current = nil
	s.curMu.Unlock()

	if r == nil {
		return
	}

	r.cancel()

	if err := r.src.Close(); err != nil {
		s.logger.Debug().Err(err).Uint64("generation", r.gen).Msg("Error closing ingestion channel")
	}

	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		s.logger.Warn().Uint64("generation", r.gen).Msg("Ingestion channel did not stop in time")
	}
}
