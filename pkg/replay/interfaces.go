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

// Package replay holds the pure state-keeping pieces of the dashboard: the
// snapshot merge, the bounded history recorder, the event logs, the playback
// cursor and the view resolver. Nothing here is safe for concurrent use; the
// dashboard store owns every instance from a single goroutine.
package replay

//go:generate mockgen -destination=mock_replay.go -package=replay github.com/carverauto/signalradar/pkg/replay Clock,Ticker

import (
	"time"

	"github.com/carverauto/signalradar/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// History gives indexed, oldest-first access to recorded entries.
type History interface {
	At(i int) (models.HistoryEntry, bool)
	Len() int
}
