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
	"time"

	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

// View is a read-only picture of the store after one event. Consumers must
// not modify any of its fields.
type View struct {
	// Snapshot is the resolved snapshot: live, or the history entry under the cursor.
	Snapshot models.Snapshot
	// Live is the latest merged snapshot regardless of playback.
	Live         models.Snapshot
	Cursor       replay.Cursor
	HistoryLen   int
	HistoryCap   int
	PlaybackTime time.Time
	Violations   []models.Violation
	Alerts       []models.Alert
	Connection   models.ConnectionState
	Mode         models.OperatingMode
	Generation   uint64
	Version      uint64
}

// InPlayback reports whether the resolved snapshot comes from history.
func (v *View) InPlayback() bool {
	return v.Cursor.Playback && v.HistoryLen > 0
}
