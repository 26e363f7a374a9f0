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

import "github.com/carverauto/signalradar/pkg/models"

// Cursor selects what the dashboard displays: the live snapshot, or the
// history entry at Index while Playback is set.
type Cursor struct {
	Playback bool
	Index    int
}

// Controller owns the playback cursor.
type Controller struct {
	cur Cursor
}

// NewController returns a controller in live mode.
func NewController() *Controller {
	return &Controller{}
}

// Cursor returns the current cursor.
func (c *Controller) Cursor() Cursor {
	return c.cur
}

// Toggle flips between live and playback. Entering playback with an empty
// history is refused. The index is kept from its last value.
func (c *Controller) Toggle(historyLen int) bool {
	if !c.cur.Playback && historyLen == 0 {
		return false
	}

	c.cur.Playback = !c.cur.Playback

	return true
}

// Seek moves the playback index, clamped to [0, historyLen-1]. It is ignored
// outside playback or with an empty history.
func (c *Controller) Seek(i, historyLen int) bool {
	if !c.cur.Playback || historyLen == 0 {
		return false
	}

	switch {
	case i < 0:
		i = 0
	case i >= historyLen:
		i = historyLen - 1
	}

	c.cur.Index = i

	return true
}

// Resolve picks the snapshot to display: the history entry under the cursor
// while in playback, the live snapshot otherwise or when the index has no entry.
func Resolve(live models.Snapshot, cur Cursor, history History) models.Snapshot {
	if !cur.Playback || history == nil {
		return live
	}

	entry, ok := history.At(cur.Index)
	if !ok {
		return live
	}

	return entry.Snapshot
}
