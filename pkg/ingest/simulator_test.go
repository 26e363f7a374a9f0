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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

func TestSimulatorEmitsDeltas(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := replay.NewMockClock(ctrl)
	ticker := replay.NewMockTicker(ctrl)

	ticks := make(chan time.Time)
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	clock.EXPECT().Ticker(500 * time.Millisecond).Return(ticker)
	clock.EXPECT().Now().Return(now).AnyTimes()
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop()

	sim := NewSimulator(500*time.Millisecond, clock, 42, logger.NewTestLogger())
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- sim.Run(ctx, 2, sink) }()

	for i := 0; i < 12; i++ {
		ticks <- now
	}

	require.Eventually(t, func() bool { return len(sink.Payloads()) == 12 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	payloads := sink.Payloads()

	logicAt := func(i int) models.Logic {
		d, err := models.ParseDelta([]byte(payloads[i]))
		require.NoError(t, err)

		logic, err := models.Snapshot(d).Logic()
		require.NoError(t, err)

		return logic
	}

	first := logicAt(0)
	assert.Equal(t, models.North, first.ActiveDir)
	assert.Equal(t, models.SignalGreen, first.State)
	assert.Equal(t, models.SignalGreen, first.SignalMap[models.North])
	assert.Equal(t, models.SignalRed, first.SignalMap[models.East])
	assert.InDelta(t, 10.0, first.Timer, 0.001)

	assert.Equal(t, models.SignalYellow, logicAt(8).State)
	assert.Equal(t, models.East, logicAt(10).ActiveDir)

	d, err := models.ParseDelta([]byte(payloads[0]))
	require.NoError(t, err)

	counts, err := models.Snapshot(d).Counts()
	require.NoError(t, err)
	assert.LessOrEqual(t, counts.North, simMaxQueue)

	assert.Empty(t, sink.States(), "the simulator never reports a connection")
}

func TestSimulatorDropsCommands(t *testing.T) {
	sim := NewSimulator(time.Second, nil, 1, logger.NewTestLogger())

	assert.False(t, sim.Connected())
	require.ErrorIs(t, sim.Send(models.CommandForceEast), ErrSimulated)
	require.NoError(t, sim.Close())
}

func TestSimulatorSeedIsReproducible(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := replay.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)).AnyTimes()

	a := NewSimulator(time.Second, clock, 42, logger.NewTestLogger())
	b := NewSimulator(time.Second, clock, 42, logger.NewTestLogger())

	for i := 0; i < 25; i++ {
		require.Equal(t, a.next(), b.next(), "frame %d", i)
	}

	c := NewSimulator(time.Second, clock, 7, logger.NewTestLogger())
	d := NewSimulator(time.Second, clock, 42, logger.NewTestLogger())

	var differs bool

	for i := 0; i < 25; i++ {
		if !assert.ObjectsAreEqual(c.next(), d.next()) {
			differs = true
		}
	}

	assert.True(t, differs, "different seeds should diverge")
}
