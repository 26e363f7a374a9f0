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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

func startStore(t *testing.T, cfg *models.DashboardConfig, sink EventSink) *Store {
	t.Helper()

	s := NewStore(cfg, replay.RealClock(), sink, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return s
}

func deliver(t *testing.T, s *Store, gen uint64, payload string) {
	t.Helper()
	require.NoError(t, s.Deliver(context.Background(), gen, []byte(payload)))
}

func flush(t *testing.T, s *Store) *View {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Flush(ctx))

	return s.View()
}

func north(t *testing.T, snap models.Snapshot) int {
	t.Helper()

	c, err := snap.Counts()
	require.NoError(t, err)

	return c.North
}

func TestStoreMergesAndRecords(t *testing.T) {
	s := startStore(t, nil, nil)

	deliver(t, s, 0, `{"counts":{"north":5},"feeds":{"north":"aW1n"}}`)
	deliver(t, s, 0, `{"logic":{"active_dir":"east","state":"GREEN"}}`)

	v := flush(t, s)

	assert.Equal(t, 5, north(t, v.Snapshot))
	assert.Equal(t, 2, v.HistoryLen)
	assert.Equal(t, models.DefaultHistoryCapacity, v.HistoryCap)

	feeds, err := v.Live.Feeds()
	require.NoError(t, err)
	assert.Equal(t, "aW1n", feeds[models.North], "live feeds are kept")

	logic, err := v.Snapshot.Logic()
	require.NoError(t, err)
	assert.Equal(t, models.East, logic.ActiveDir)
}

func TestStoreIgnoresMalformedPayload(t *testing.T) {
	s := startStore(t, nil, nil)

	deliver(t, s, 0, `{"counts":{"north":2}}`)
	deliver(t, s, 0, `{"counts":`)
	deliver(t, s, 0, `[1,2,3]`)

	v := flush(t, s)

	assert.Equal(t, 2, north(t, v.Snapshot))
	assert.Equal(t, 1, v.HistoryLen)
}

func TestStoreHistoryIsBounded(t *testing.T) {
	s := startStore(t, nil, nil)

	for i := 1; i <= 45; i++ {
		deliver(t, s, 0, fmt.Sprintf(`{"counts":{"north":%d}}`, i))
	}

	v := flush(t, s)
	require.Equal(t, 40, v.HistoryLen)

	require.NoError(t, s.TogglePlayback(context.Background()))
	require.NoError(t, s.Seek(context.Background(), 0))

	v = flush(t, s)
	assert.Equal(t, 6, north(t, v.Snapshot))
	assert.False(t, v.PlaybackTime.IsZero())
}

func TestStorePlaybackFreezesHistory(t *testing.T) {
	s := startStore(t, nil, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		deliver(t, s, 0, fmt.Sprintf(`{"counts":{"north":%d}}`, i))
	}

	require.NoError(t, s.TogglePlayback(ctx))
	require.NoError(t, s.Seek(ctx, 1))

	deliver(t, s, 0, `{"counts":{"north":4}}`)
	deliver(t, s, 0, `{"counts":{"north":5}}`)

	v := flush(t, s)
	assert.True(t, v.InPlayback())
	assert.Equal(t, 3, v.HistoryLen, "merging in playback must not record")
	assert.Equal(t, 2, north(t, v.Snapshot))
	assert.Equal(t, 5, north(t, v.Live), "merging continues underneath")

	require.NoError(t, s.TogglePlayback(ctx))
	v = flush(t, s)
	assert.False(t, v.Cursor.Playback)
	assert.Equal(t, 5, north(t, v.Snapshot))
	assert.Equal(t, 3, v.HistoryLen)

	deliver(t, s, 0, `{"counts":{"north":6}}`)
	v = flush(t, s)
	assert.Equal(t, 4, v.HistoryLen)
}

func TestStoreToggleWithEmptyHistory(t *testing.T) {
	s := startStore(t, nil, nil)

	require.NoError(t, s.TogglePlayback(context.Background()))

	v := flush(t, s)
	assert.False(t, v.Cursor.Playback)
}

func TestStoreSeekClampsAndSteps(t *testing.T) {
	s := startStore(t, nil, nil)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		deliver(t, s, 0, fmt.Sprintf(`{"counts":{"north":%d}}`, i))
	}

	require.NoError(t, s.TogglePlayback(ctx))
	require.NoError(t, s.Seek(ctx, 99))

	v := flush(t, s)
	assert.Equal(t, 3, v.Cursor.Index)

	require.NoError(t, s.Step(ctx, -2))

	v = flush(t, s)
	assert.Equal(t, 1, v.Cursor.Index)
	assert.Equal(t, 2, north(t, v.Snapshot))

	require.NoError(t, s.Step(ctx, -5))

	v = flush(t, s)
	assert.Equal(t, 0, v.Cursor.Index)
}

func TestStoreDropsRetiredGeneration(t *testing.T) {
	s := startStore(t, nil, nil)
	ctx := context.Background()

	genA := s.Generation()
	require.NoError(t, s.ConnectionChanged(ctx, genA, models.Connected))
	deliver(t, s, genA, `{"counts":{"north":1}}`)

	v := flush(t, s)
	require.Equal(t, models.Connected, v.Connection)

	genB, err := s.NextGeneration(ctx, models.ModeSimulated)
	require.NoError(t, err)
	require.NotEqual(t, genA, genB)

	// A's late traffic arrives after the switch began.
	deliver(t, s, genA, `{"counts":{"north":99}}`)
	require.NoError(t, s.ConnectionChanged(ctx, genA, models.Connected))

	deliver(t, s, genB, `{"counts":{"north":7}}`)

	v = flush(t, s)
	assert.Equal(t, 7, north(t, v.Snapshot))
	assert.Equal(t, models.Disconnected, v.Connection)
	assert.Equal(t, models.ModeSimulated, v.Mode)
	assert.Equal(t, genB, v.Generation)
	assert.Equal(t, 2, v.HistoryLen)
}

func TestStoreViolationLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockEventSink(ctrl)
	sink.EXPECT().ViolationRecorded(gomock.Any()).Times(12)

	s := startStore(t, nil, sink)

	for i := 1; i <= 12; i++ {
		deliver(t, s, 0, fmt.Sprintf(`{"violation":{"id":%d,"dir":"south","time":"10:00:%02d"}}`, i, i))
	}

	v := flush(t, s)
	require.Len(t, v.Violations, 10)
	assert.Equal(t, models.EventID("12"), v.Violations[0].ID)
	assert.Equal(t, models.EventID("3"), v.Violations[9].ID)
	assert.Empty(t, v.Alerts)
}

func TestStoreAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockEventSink(ctrl)

	var raised []models.Alert
	sink.EXPECT().AlertRaised(gomock.Any()).Do(func(a models.Alert) {
		raised = append(raised, a)
	}).Times(4)

	s := startStore(t, nil, sink)
	ctx := context.Background()

	deliver(t, s, 0, `{"alert":{"id":"a1","message":"Camera west offline"}}`)
	deliver(t, s, 0, `{"logic":{"active_dir":"north","state":"EMERGENCY"}}`)
	deliver(t, s, 0, `{"logic":{"active_dir":"north","state":"EMERGENCY"}}`)
	deliver(t, s, 0, `{"env":{"obstacle_zone":"east"}}`)
	deliver(t, s, 0, `{"env":{"obstacle_zone":"east"}}`)
	require.NoError(t, s.PushAlert(ctx, models.Alert{Message: "Reconnect requested"}))

	v := flush(t, s)
	require.Len(t, v.Alerts, 4)
	assert.Equal(t, "Reconnect requested", v.Alerts[0].Message)
	assert.NotEmpty(t, v.Alerts[0].ID)
	assert.Contains(t, v.Alerts[1].Message, "east")
	assert.Contains(t, v.Alerts[2].Message, "Emergency")
	assert.Equal(t, models.EventID("a1"), v.Alerts[3].ID)

	require.Len(t, raised, 4)
}

func TestStoreSubscribe(t *testing.T) {
	s := startStore(t, nil, nil)

	views, cancel := s.Subscribe()
	defer cancel()

	initial := <-views
	require.NotNil(t, initial)

	deliver(t, s, 0, `{"counts":{"north":3}}`)

	require.Eventually(t, func() bool {
		select {
		case v := <-views:
			c, err := v.Snapshot.Counts()
			return err == nil && c.North == 3
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreStopped(t *testing.T) {
	s := NewStore(nil, replay.RealClock(), nil, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Run(ctx), context.Canceled)

	err := s.Flush(context.Background())
	require.ErrorIs(t, err, ErrStoreStopped)
}
