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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/signalradar/pkg/dashboard"
	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

// fakeSource connects immediately and lets the test push payloads, even
// after it has been torn down.
type fakeSource struct {
	mu      sync.Mutex
	gen     uint64
	sink    Sink
	started chan struct{}
	online  bool

	connected atomic.Bool
	closed    atomic.Bool
	sent      chan models.Command

	// closeGate, when set, holds Close until it is closed. closing is
	// closed when Close is entered.
	closeGate chan struct{}
	closing   chan struct{}
}

func newFakeSource(online bool) *fakeSource {
	return &fakeSource{
		started: make(chan struct{}),
		online:  online,
		sent:    make(chan models.Command, 8),
		closing: make(chan struct{}),
	}
}

func (f *fakeSource) Run(ctx context.Context, gen uint64, sink Sink) error {
	f.mu.Lock()
	f.gen, f.sink = gen, sink
	f.mu.Unlock()

	if f.online {
		f.connected.Store(true)
		_ = sink.ConnectionChanged(ctx, gen, models.Connected)
	}

	close(f.started)
	<-ctx.Done()
	f.connected.Store(false)

	return nil
}

func (f *fakeSource) emit(t *testing.T, payload string) {
	t.Helper()

	f.mu.Lock()
	gen, sink := f.gen, f.sink
	f.mu.Unlock()

	require.NoError(t, sink.Deliver(context.Background(), gen, []byte(payload)))
}

func (f *fakeSource) Send(cmd models.Command) error {
	f.sent <- cmd
	return nil
}

func (f *fakeSource) Connected() bool { return f.connected.Load() }

func (f *fakeSource) Close() error {
	if f.closed.Swap(true) {
		return nil
	}

	close(f.closing)

	f.mu.Lock()
	gate := f.closeGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	return nil
}

type harness struct {
	store   *dashboard.Store
	sup     *Supervisor
	sources map[models.OperatingMode][]*fakeSource
	mu      sync.Mutex
}

func newHarness(t *testing.T, mode models.OperatingMode) *harness {
	t.Helper()

	h := &harness{sources: make(map[models.OperatingMode][]*fakeSource)}
	log := logger.NewTestLogger()

	h.store = dashboard.NewStore(nil, replay.RealClock(), nil, log)
	h.sup = NewSupervisor(h.store, func(m models.OperatingMode) Source {
		src := newFakeSource(m == models.ModeLive)

		h.mu.Lock()
		h.sources[m] = append(h.sources[m], src)
		h.mu.Unlock()

		return src
	}, mode, log)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = h.store.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		_ = h.sup.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return h
}

func (h *harness) source(t *testing.T, mode models.OperatingMode, i int) *fakeSource {
	t.Helper()

	var src *fakeSource

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()

		if len(h.sources[mode]) <= i {
			return false
		}

		src = h.sources[mode][i]

		return true
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("source never started")
	}

	return src
}

func (h *harness) view(t *testing.T) *dashboard.View {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, h.store.Flush(ctx))

	return h.store.View()
}

func northCount(t *testing.T, v *dashboard.View) int {
	t.Helper()

	c, err := v.Snapshot.Counts()
	require.NoError(t, err)

	return c.North
}

func TestSupervisorModeSwitchRetiresOldSource(t *testing.T) {
	h := newHarness(t, models.ModeLive)
	ctx := context.Background()

	a := h.source(t, models.ModeLive, 0)
	a.emit(t, `{"counts":{"north":1}}`)

	v := h.view(t)
	require.Equal(t, models.Connected, v.Connection)
	require.Equal(t, 1, northCount(t, v))

	require.NoError(t, h.sup.SetMode(ctx, models.ModeSimulated))
	assert.True(t, a.closed.Load(), "old channel is closed during the switch")

	b := h.source(t, models.ModeSimulated, 0)

	a.emit(t, `{"counts":{"north":99}}`)
	b.emit(t, `{"counts":{"north":2}}`)

	v = h.view(t)
	assert.Equal(t, 2, northCount(t, v))
	assert.Equal(t, models.ModeSimulated, v.Mode)
	assert.Equal(t, models.Disconnected, v.Connection)
	assert.Equal(t, models.ModeSimulated, h.sup.Mode())
}

func TestSupervisorSendOnlyWhenConnected(t *testing.T) {
	h := newHarness(t, models.ModeLive)
	ctx := context.Background()

	live := h.source(t, models.ModeLive, 0)

	require.True(t, h.sup.Send(models.CommandForceNorth))
	assert.Equal(t, models.CommandForceNorth, <-live.sent)

	require.NoError(t, h.sup.ToggleMode(ctx))
	sim := h.source(t, models.ModeSimulated, 0)

	assert.False(t, h.sup.Send(models.CommandStopAll))
	assert.Empty(t, sim.sent)

	require.NoError(t, h.sup.ToggleMode(ctx))
	again := h.source(t, models.ModeLive, 1)

	require.Eventually(t, again.Connected, time.Second, 5*time.Millisecond)
	assert.True(t, h.sup.Send(models.CommandAuto))
}

func TestSupervisorRequiresRun(t *testing.T) {
	store := dashboard.NewStore(nil, replay.RealClock(), nil, logger.NewTestLogger())
	sup := NewSupervisor(store, func(models.OperatingMode) Source { return newFakeSource(true) },
		models.ModeLive, logger.NewTestLogger())

	require.ErrorIs(t, sup.SetMode(context.Background(), models.ModeSimulated), ErrNotRunning)
	assert.False(t, sup.Send(models.CommandAuto))
}

func TestSupervisorSendDoesNotWaitForModeSwitch(t *testing.T) {
	h := newHarness(t, models.ModeLive)

	live := h.source(t, models.ModeLive, 0)

	gate := make(chan struct{})
	live.mu.Lock()
	live.closeGate = gate
	live.mu.Unlock()

	switched := make(chan error, 1)

	go func() { switched <- h.sup.SetMode(context.Background(), models.ModeSimulated) }()

	select {
	case <-live.closing:
	case <-time.After(2 * time.Second):
		t.Fatal("old source was never closed")
	}

	sent := make(chan bool, 1)

	go func() { sent <- h.sup.Send(models.CommandStopAll) }()

	select {
	case ok := <-sent:
		assert.False(t, ok, "commands are dropped while the channel is being replaced")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Send blocked behind the mode switch")
	}

	close(gate)
	require.NoError(t, <-switched)

	h.source(t, models.ModeSimulated, 0)
	assert.Equal(t, models.ModeSimulated, h.sup.Mode())
}

func TestSupervisorRetiresSourceWhenResetFails(t *testing.T) {
	cfg := models.DefaultDashboardConfig()
	cfg.EventQueueSize = 1

	// The store is never run, so its one-slot queue fills with the first reset.
	store := dashboard.NewStore(cfg, replay.RealClock(), nil, logger.NewTestLogger())

	sources := make(chan *fakeSource, 2)
	sup := NewSupervisor(store, func(models.OperatingMode) Source {
		src := newFakeSource(false)
		src.connected.Store(true)
		sources <- src

		return src
	}, models.ModeLive, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- sup.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	var first *fakeSource

	select {
	case first = <-sources:
	case <-time.After(2 * time.Second):
		t.Fatal("initial source never created")
	}

	<-first.started
	require.True(t, sup.Send(models.CommandAuto))
	assert.Equal(t, models.CommandAuto, <-first.sent)

	switchCtx, switchCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer switchCancel()

	err := sup.SetMode(switchCtx, models.ModeSimulated)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.True(t, first.closed.Load(), "old source is closed when the reset cannot be queued")
	assert.False(t, sup.Send(models.CommandStopAll))
	assert.Empty(t, sources, "no replacement source is started")
	assert.Equal(t, models.ModeLive, sup.Mode())
}
