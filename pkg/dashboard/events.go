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

package dashboard

import "github.com/carverauto/signalradar/pkg/models"

// event is one unit of work for the store loop.
type event interface {
	apply(s *Store)
}

// deltaEvent carries a raw inbound payload from a source of generation gen.
type deltaEvent struct {
	gen     uint64
	payload []byte
}

type connectionEvent struct {
	gen   uint64
	state models.ConnectionState
}

// resetEvent marks the start of a new source generation.
type resetEvent struct {
	gen  uint64
	mode models.OperatingMode
}

type toggleEvent struct{}

type seekEvent struct {
	index    int
	relative bool
}

type alertEvent struct {
	alert models.Alert
}

type flushEvent struct {
	done chan struct{}
}

func (e deltaEvent) apply(s *Store) {
	if e.gen != s.gen.Load() {
		s.metrics.stale(s.ctx)
		s.logger.Debug().Uint64("generation", e.gen).Msg("Dropping delta from retired source")

		return
	}

	s.applyDelta(e.payload)
}

func (e connectionEvent) apply(s *Store) {
	if e.gen != s.gen.Load() {
		s.logger.Debug().Uint64("generation", e.gen).Str("state", e.state.String()).
			Msg("Dropping connection change from retired source")

		return
	}

	if s.conn != e.state {
		s.logger.Info().Str("state", e.state.String()).Str("mode", string(s.mode)).Msg("Connection state changed")
	}

	s.conn = e.state
}

func (e resetEvent) apply(s *Store) {
	s.conn = models.Disconnected
	s.mode = e.mode
	s.viewGen = e.gen
}

func (toggleEvent) apply(s *Store) {
	if !s.playback.Toggle(s.history.Len()) {
		s.logger.Debug().Msg("Playback unavailable with empty history")
	}
}

func (e seekEvent) apply(s *Store) {
	index := e.index
	if e.relative {
		index += s.playback.Cursor().Index
	}

	s.playback.Seek(index, s.history.Len())
}

func (e alertEvent) apply(s *Store) {
	s.pushAlert(e.alert)
}

func (e flushEvent) apply(_ *Store) {
	close(e.done)
}
