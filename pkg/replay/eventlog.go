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

import "github.com/carverauto/signalradar/pkg/ring"

// EventLog is a bounded queue that keeps the most recent items and lists
// them newest first.
type EventLog[T any] struct {
	buf *ring.Buffer[T]
}

// NewEventLog creates a log holding at most capacity items.
func NewEventLog[T any](capacity int) *EventLog[T] {
	return &EventLog[T]{buf: ring.New[T](capacity)}
}

// Push adds item as the newest entry, dropping the oldest when full.
func (l *EventLog[T]) Push(item T) {
	l.buf.Push(item)
}

// Items returns a copy of the log, newest first.
func (l *EventLog[T]) Items() []T {
	return l.buf.Newest(l.buf.Len())
}

// Len returns the number of items held.
func (l *EventLog[T]) Len() int {
	return l.buf.Len()
}
