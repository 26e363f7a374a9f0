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
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

const (
	simPhaseTicks      = 10
	simYellowTicks     = 2
	simMaxQueue        = 15
	simViolationChance = 0.04
)

// simClasses fixes the order in which analytics classes draw from the RNG.
//
//nolint:gochecknoglobals // fixed lookup table
var simClasses = [...]string{"car", "bike", "bus", "truck"}

// simFrame is the synthetic delta emitted on each tick.
type simFrame struct {
	Counts    models.Counts     `json:"counts"`
	Logic     models.Logic      `json:"logic"`
	Analytics models.Analytics  `json:"analytics"`
	Env       models.Env        `json:"env"`
	Violation *models.Violation `json:"violation,omitempty"`
}

// Simulator produces synthetic controller deltas on a ticker. It never
// reports Connected, so commands are dropped while it runs.
type Simulator struct {
	interval  time.Duration
	clock     replay.Clock
	rng       *rand.Rand
	logger    logger.Logger
	tick      int
	analytics models.Analytics
}

// NewSimulator creates a simulator emitting one delta per interval. seed
// makes the sequence reproducible.
func NewSimulator(interval time.Duration, clock replay.Clock, seed uint64, log logger.Logger) *Simulator {
	if clock == nil {
		clock = replay.RealClock()
	}

	return &Simulator{
		interval:  interval,
		clock:     clock,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:    log,
		analytics: make(models.Analytics, len(simClasses)),
	}
}

// Run emits a delta on every tick until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, gen uint64, sink Sink) error {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Uint64("generation", gen).Msg("Simulation started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Simulation stopped")

			return nil
		case <-ticker.Chan():
			payload, err := json.Marshal(s.next())
			if err != nil {
				return err
			}

			if err := sink.Deliver(ctx, gen, payload); err != nil {
				return err
			}
		}
	}
}

// Send always fails; the simulator has no controller to command.
func (*Simulator) Send(_ models.Command) error {
	return ErrSimulated
}

// Connected is always false.
func (*Simulator) Connected() bool {
	return false
}

// Close is a no-op; canceling the Run context stops the simulator.
func (*Simulator) Close() error {
	return nil
}

func (s *Simulator) next() simFrame {
	phase := s.tick / simPhaseTicks
	remaining := simPhaseTicks - s.tick%simPhaseTicks
	active := models.Directions[phase%len(models.Directions)]
	nextDir := models.Directions[(phase+1)%len(models.Directions)]

	s.tick++

	state := models.SignalGreen
	if remaining <= simYellowTicks {
		state = models.SignalYellow
	}

	signals := make(map[models.Direction]models.SignalState, len(models.Directions))
	for _, d := range models.Directions {
		signals[d] = models.SignalRed
	}

	signals[active] = state

	counts := models.Counts{
		North: s.rng.IntN(simMaxQueue + 1),
		East:  s.rng.IntN(simMaxQueue + 1),
		South: s.rng.IntN(simMaxQueue + 1),
		West:  s.rng.IntN(simMaxQueue + 1),
	}

	for _, class := range simClasses {
		s.analytics[class] += s.rng.IntN(3)
	}

	tally := make(models.Analytics, len(s.analytics))
	for k, v := range s.analytics {
		tally[k] = v
	}

	frame := simFrame{
		Counts: counts,
		Logic: models.Logic{
			ActiveDir: active,
			State:     state,
			Mode:      models.ControlAuto,
			SignalMap: signals,
			Timer:     float64(remaining),
			NextDir:   nextDir,
			Status:    "SIMULATION",
		},
		Analytics: tally,
		Env:       models.Env{WeatherMode: models.WeatherClear},
	}

	if s.rng.Float64() < simViolationChance {
		dir := models.Directions[s.rng.IntN(len(models.Directions))]
		if dir != active {
			now := s.clock.Now()
			frame.Violation = &models.Violation{
				ID:   models.EventID(strconv.FormatInt(now.UnixMilli(), 10)),
				Dir:  dir,
				Time: now.Format("15:04:05"),
			}
		}
	}

	return frame
}
