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

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

var (
	// ErrStoreStopped is returned when an event is submitted after Run has returned.
	ErrStoreStopped = errors.New("dashboard store stopped")
)

// Store is the single owner of the live snapshot, the replay history, the
// event logs and the playback cursor.
type Store struct {
	events  chan event
	stopped chan struct{}
	gen     atomic.Uint64
	view    atomic.Pointer[View]
	logger  logger.Logger
	metrics *storeMetrics
	sink    EventSink

	subMu  sync.Mutex
	subs   map[int]chan *View
	nextID int

	// Owned by the loop goroutine.
	ctx        context.Context
	live       models.Snapshot
	history    *replay.Recorder
	violations *replay.EventLog[models.Violation]
	alerts     *replay.EventLog[models.Alert]
	playback   *replay.Controller
	conn       models.ConnectionState
	mode       models.OperatingMode
	viewGen    uint64
	version    uint64
	emergency  bool
	obstacle   string
}

// NewStore builds a store sized by cfg. sink may be nil.
func NewStore(cfg *models.DashboardConfig, clock replay.Clock, sink EventSink, log logger.Logger) *Store {
	if cfg == nil {
		cfg = models.DefaultDashboardConfig()
	}

	historyCap := cfg.HistoryCapacity
	if historyCap <= 0 {
		historyCap = models.DefaultHistoryCapacity
	}

	logCap := cfg.EventLogCapacity
	if logCap <= 0 {
		logCap = models.DefaultEventLogCapacity
	}

	queue := cfg.EventQueueSize
	if queue <= 0 {
		queue = models.DefaultEventQueueSize
	}

	s := &Store{
		events:     make(chan event, queue),
		stopped:    make(chan struct{}),
		logger:     log,
		metrics:    newStoreMetrics(log),
		sink:       sink,
		subs:       make(map[int]chan *View),
		ctx:        context.Background(),
		live:       models.DefaultSnapshot(),
		history:    replay.NewRecorder(historyCap, clock),
		violations: replay.NewEventLog[models.Violation](logCap),
		alerts:     replay.NewEventLog[models.Alert](logCap),
		playback:   replay.NewController(),
		mode:       cfg.Mode,
	}

	s.publish()

	return s
}

// Run drains the event queue until ctx is canceled.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.stopped)

	s.ctx = ctx

	s.logger.Info().Int("history_capacity", s.history.Cap()).Msg("Dashboard store started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Dashboard store stopped")

			return ctx.Err()
		case ev := <-s.events:
			ev.apply(s)
			s.publish()
		}
	}
}

// Generation returns the generation a new source must be started with.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// NextGeneration retires every source started so far. Events tagged with an
// older generation are dropped from the moment this returns, even if they
// are already queued. The connection resets to Disconnected.
func (s *Store) NextGeneration(ctx context.Context, mode models.OperatingMode) (uint64, error) {
	gen := s.gen.Add(1)

	return gen, s.enqueue(ctx, resetEvent{gen: gen, mode: mode})
}

// Deliver queues a raw payload received by the source of generation gen.
func (s *Store) Deliver(ctx context.Context, gen uint64, payload []byte) error {
	return s.enqueue(ctx, deltaEvent{gen: gen, payload: payload})
}

// ConnectionChanged queues a connection state change from the source of generation gen.
func (s *Store) ConnectionChanged(ctx context.Context, gen uint64, state models.ConnectionState) error {
	return s.enqueue(ctx, connectionEvent{gen: gen, state: state})
}

// TogglePlayback switches between live tracking and history playback.
func (s *Store) TogglePlayback(ctx context.Context) error {
	return s.enqueue(ctx, toggleEvent{})
}

// Seek moves the playback index to i.
func (s *Store) Seek(ctx context.Context, i int) error {
	return s.enqueue(ctx, seekEvent{index: i})
}

// Step moves the playback index by n entries.
func (s *Store) Step(ctx context.Context, n int) error {
	return s.enqueue(ctx, seekEvent{index: n, relative: true})
}

// PushAlert adds an operator-facing alert to the alert log.
func (s *Store) PushAlert(ctx context.Context, a models.Alert) error {
	return s.enqueue(ctx, alertEvent{alert: a})
}

// Flush waits until every event queued before the call has been applied.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.enqueue(ctx, flushEvent{done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStoreStopped
	}
}

// View returns the most recently published view.
func (s *Store) View() *View {
	return s.view.Load()
}

// Subscribe returns a channel that receives the latest view after each
// change. Slow readers only see the newest view. The returned function
// unsubscribes.
func (s *Store) Subscribe() (<-chan *View, func()) {
	ch := make(chan *View, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	ch <- s.view.Load()
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) enqueue(ctx context.Context, ev event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStoreStopped
	}
}

func (s *Store) applyDelta(payload []byte) {
	delta, err := models.ParseDelta(payload)
	if err != nil {
		s.metrics.malformed.Add(s.ctx, 1)
		s.logger.Debug().Err(err).Int("bytes", len(payload)).Msg("Ignoring malformed payload")

		return
	}

	s.live = replay.Merge(s.live, delta)
	s.metrics.applied.Add(s.ctx, 1)

	if !s.playback.Cursor().Playback {
		if _, evicted := s.history.Record(s.live); evicted {
			s.metrics.evictions.Add(s.ctx, 1)
		}

		s.metrics.historyLen.Store(int64(s.history.Len()))
	}

	if v, ok := delta.Violation(); ok {
		s.violations.Push(v)

		if s.sink != nil {
			s.sink.ViolationRecorded(v)
		}
	}

	if a, ok := delta.Alert(); ok {
		s.pushAlert(a)
	}

	s.deriveAlerts(delta)
}

// deriveAlerts raises an alert when the signal logic enters emergency
// override or an obstacle zone appears.
func (s *Store) deriveAlerts(delta models.Delta) {
	if _, ok := delta[models.KeyLogic]; ok {
		if logic, err := s.live.Logic(); err == nil {
			emergency := logic.State == models.SignalEmergency
			if emergency && !s.emergency {
				s.pushAlert(models.Alert{
					ID:      models.EventID(uuid.NewString()),
					Message: fmt.Sprintf("Emergency override on %s approach", logic.ActiveDir),
				})
			}

			s.emergency = emergency
		}
	}

	if _, ok := delta[models.KeyEnv]; ok {
		if env, err := s.live.Env(); err == nil {
			zone := env.Obstacle()
			if zone != "" && s.obstacle == "" {
				s.pushAlert(models.Alert{
					ID:      models.EventID(uuid.NewString()),
					Message: fmt.Sprintf("Obstacle in zone: %s", zone),
				})
			}

			s.obstacle = zone
		}
	}
}

func (s *Store) pushAlert(a models.Alert) {
	if a.ID == "" {
		a.ID = models.EventID(uuid.NewString())
	}

	s.alerts.Push(a)
	s.metrics.alerts.Add(s.ctx, 1)

	if s.sink != nil {
		s.sink.AlertRaised(a)
	}
}

func (s *Store) publish() {
	s.version++

	cur := s.playback.Cursor()
	v := &View{
		Snapshot:   replay.Resolve(s.live, cur, s.history),
		Live:       s.live,
		Cursor:     cur,
		HistoryLen: s.history.Len(),
		HistoryCap: s.history.Cap(),
		Violations: s.violations.Items(),
		Alerts:     s.alerts.Items(),
		Connection: s.conn,
		Mode:       s.mode,
		Generation: s.viewGen,
		Version:    s.version,
	}

	if cur.Playback {
		if entry, ok := s.history.At(cur.Index); ok {
			v.PlaybackTime = entry.Timestamp
		}
	}

	s.view.Store(v)

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// replace the unread view with the newer one
			select {
			case <-ch:
			default:
			}

			select {
			case ch <- v:
			default:
			}
		}
	}
}
