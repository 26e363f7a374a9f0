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

// Package dashboard owns the canonical controller state. A single goroutine
// drains a FIFO of events (inbound deltas, connection changes, playback
// commands) and publishes an immutable View after each one.
package dashboard

//go:generate mockgen -destination=mock_dashboard.go -package=dashboard github.com/carverauto/signalradar/pkg/dashboard EventSink

import "github.com/carverauto/signalradar/pkg/models"

// EventSink receives violations and alerts as the store records them.
// Calls are made from the store loop and must not block.
type EventSink interface {
	ViolationRecorded(v models.Violation)
	AlertRaised(a models.Alert)
}
