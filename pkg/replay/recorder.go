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
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/ring"
)

// Recorder keeps a bounded, chronological history of feed-stripped snapshots.
type Recorder struct {
	buf   *ring.Buffer[models.HistoryEntry]
	clock Clock
	seq   uint64
}

// NewRecorder creates a recorder holding at most capacity entries.
func NewRecorder(capacity int, clock Clock) *Recorder {
	if clock == nil {
		clock = realClock{}
	}

	return &Recorder{
		buf:   ring.New[models.HistoryEntry](capacity),
		clock: clock,
	}
}

// Record stores a copy of s without its camera feeds. It reports whether the
// oldest entry was evicted to make room.
func (r *Recorder) Record(s models.Snapshot) (models.HistoryEntry, bool) {
	r.seq++

	entry := models.HistoryEntry{
		Timestamp: r.clock.Now(),
		Seq:       r.seq,
		Snapshot:  s.WithoutFeeds(),
	}

	_, evicted := r.buf.Push(entry)

	return entry, evicted
}

// At returns the i-th entry, oldest first.
func (r *Recorder) At(i int) (models.HistoryEntry, bool) {
	return r.buf.At(i)
}

// Len returns the number of entries held.
func (r *Recorder) Len() int {
	return r.buf.Len()
}

// Cap returns the maximum number of entries.
func (r *Recorder) Cap() int {
	return r.buf.Cap()
}

// Recorded returns the number of entries ever recorded, evicted ones included.
func (r *Recorder) Recorded() uint64 {
	return r.seq
}

// Entries returns a copy of the history, oldest first.
func (r *Recorder) Entries() EntryList {
	return r.buf.Slice()
}

// EntryList is a frozen, oldest-first copy of the history.
type EntryList []models.HistoryEntry

// At returns the i-th entry.
func (l EntryList) At(i int) (models.HistoryEntry, bool) {
	if i < 0 || i >= len(l) {
		return models.HistoryEntry{}, false
	}

	return l[i], true
}

// Len returns the number of entries.
func (l EntryList) Len() int {
	return len(l)
}
