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

package replay

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/signalradar/pkg/models"
)

func countsSnapshot(north int) models.Snapshot {
	return models.Snapshot{
		models.KeyCounts: json.RawMessage(fmt.Sprintf(`{"north":%d}`, north)),
	}
}

func northOf(t *testing.T, s models.Snapshot) int {
	t.Helper()

	c, err := s.Counts()
	require.NoError(t, err)

	return c.North
}

func TestMergeReplacesTopLevelKeys(t *testing.T) {
	prev := models.Snapshot{
		models.KeyCounts: json.RawMessage(`{"north":1,"east":2}`),
		models.KeyLogic:  json.RawMessage(`{"active_dir":"north","state":"GREEN"}`),
	}

	delta, err := models.ParseDelta([]byte(`{"counts":{"north":5},"wait_times":{"north":3}}`))
	require.NoError(t, err)

	next := Merge(prev, delta)

	assert.JSONEq(t, `{"north":5}`, string(next[models.KeyCounts]))
	assert.JSONEq(t, `{"active_dir":"north","state":"GREEN"}`, string(next[models.KeyLogic]))
	assert.JSONEq(t, `{"north":3}`, string(next["wait_times"]))

	c, err := next.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, c.East, "merge is not deep")

	assert.JSONEq(t, `{"north":1,"east":2}`, string(prev[models.KeyCounts]), "prev must not change")
}

func TestMergeCarriesMalformedSection(t *testing.T) {
	delta, err := models.ParseDelta([]byte(`{"counts":"not-an-object"}`))
	require.NoError(t, err)

	next := Merge(models.DefaultSnapshot(), delta)

	_, err = next.Counts()
	require.ErrorIs(t, err, models.ErrMalformedSection)

	_, err = next.Logic()
	assert.NoError(t, err)
}

func TestMergeEmptyDelta(t *testing.T) {
	prev := countsSnapshot(7)

	next := Merge(prev, models.Delta{})

	assert.Equal(t, 7, northOf(t, next))
}

func TestRecorderKeepsLastEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock.EXPECT().Now().DoAndReturn(func() time.Time {
		calls++

		return base.Add(time.Duration(calls) * time.Second)
	}).Times(45)

	r := NewRecorder(40, clock)

	evictions := 0
	for i := 1; i <= 45; i++ {
		if _, evicted := r.Record(countsSnapshot(i)); evicted {
			evictions++
		}

		assert.LessOrEqual(t, r.Len(), r.Cap())
	}

	require.Equal(t, 40, r.Len())
	assert.Equal(t, 5, evictions)
	assert.Equal(t, uint64(45), r.Recorded())

	first, ok := r.At(0)
	require.True(t, ok)
	assert.Equal(t, 6, northOf(t, first.Snapshot))
	assert.Equal(t, uint64(6), first.Seq)
	assert.Equal(t, base.Add(6*time.Second), first.Timestamp)

	last, ok := r.At(39)
	require.True(t, ok)
	assert.Equal(t, 45, northOf(t, last.Snapshot))

	entries := r.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Seq, entries[i-1].Seq)
	}
}

func TestRecorderStripsFeeds(t *testing.T) {
	r := NewRecorder(5, RealClock())

	live := models.Snapshot{
		models.KeyFeeds:  json.RawMessage(`{"north":"aGVsbG8="}`),
		models.KeyCounts: json.RawMessage(`{"north":2}`),
	}

	entry, _ := r.Record(live)

	assert.JSONEq(t, `{}`, string(entry.Snapshot[models.KeyFeeds]))
	assert.JSONEq(t, `{"north":"aGVsbG8="}`, string(live[models.KeyFeeds]), "live snapshot keeps its feeds")

	for _, e := range r.Entries() {
		feeds, err := e.Snapshot.Feeds()
		require.NoError(t, err)
		assert.Empty(t, feeds)
	}
}

func TestEventLogNewestFirst(t *testing.T) {
	log := NewEventLog[models.Violation](10)

	for i := 1; i <= 12; i++ {
		log.Push(models.Violation{ID: models.EventID(fmt.Sprint(i)), Dir: models.North})
	}

	items := log.Items()
	require.Len(t, items, 10)
	assert.Equal(t, models.EventID("12"), items[0].ID)
	assert.Equal(t, models.EventID("3"), items[9].ID)
}

func TestEventLogsAreIndependent(t *testing.T) {
	violations := NewEventLog[models.Violation](10)
	alerts := NewEventLog[models.Alert](10)

	alerts.Push(models.Alert{ID: "a1", Message: "Obstacle detected"})

	assert.Equal(t, 0, violations.Len())
	assert.Equal(t, 1, alerts.Len())
}

func TestControllerToggle(t *testing.T) {
	c := NewController()

	assert.False(t, c.Toggle(0), "empty history refuses playback")
	assert.False(t, c.Cursor().Playback)

	assert.True(t, c.Toggle(3))
	assert.True(t, c.Cursor().Playback)

	assert.True(t, c.Toggle(0), "leaving playback is always allowed")
	assert.False(t, c.Cursor().Playback)
}

func TestControllerSeek(t *testing.T) {
	c := NewController()

	assert.False(t, c.Seek(2, 5), "seek is ignored while live")
	assert.Equal(t, 0, c.Cursor().Index)

	require.True(t, c.Toggle(5))

	assert.True(t, c.Seek(3, 5))
	assert.Equal(t, 3, c.Cursor().Index)

	c.Seek(10, 5)
	assert.Equal(t, 4, c.Cursor().Index)

	c.Seek(-3, 5)
	assert.Equal(t, 0, c.Cursor().Index)

	assert.False(t, c.Seek(1, 0))
}

func TestControllerKeepsIndexAcrossToggles(t *testing.T) {
	c := NewController()

	require.True(t, c.Toggle(5))
	c.Seek(2, 5)
	c.Toggle(5)
	c.Toggle(5)

	assert.Equal(t, Cursor{Playback: true, Index: 2}, c.Cursor())
}

func TestResolve(t *testing.T) {
	live := countsSnapshot(5)
	history := EntryList{
		{Seq: 1, Snapshot: countsSnapshot(1)},
		{Seq: 2, Snapshot: countsSnapshot(3)},
	}

	got := Resolve(live, Cursor{Playback: true, Index: 1}, history)
	assert.Equal(t, 3, northOf(t, got))

	got = Resolve(live, Cursor{Playback: false, Index: 1}, history)
	assert.Equal(t, 5, northOf(t, got))

	got = Resolve(live, Cursor{Playback: true, Index: 7}, history)
	assert.Equal(t, 5, northOf(t, got), "out of range falls back to live")

	got = Resolve(live, Cursor{Playback: true}, EntryList{})
	assert.Equal(t, 5, northOf(t, got))

	got = Resolve(live, Cursor{Playback: true}, nil)
	assert.Equal(t, 5, northOf(t, got))
}
