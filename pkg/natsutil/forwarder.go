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

package natsutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
)

const publishTimeout = 5 * time.Second

// Publisher is the outbound side of the Forwarder.
type Publisher interface {
	PublishViolation(ctx context.Context, v models.Violation) error
	PublishAlert(ctx context.Context, a models.Alert) error
}

type forwardItem struct {
	violation *models.Violation
	alert     *models.Alert
}

// Forwarder hands violations and alerts from the dashboard store to a
// Publisher. Enqueueing never blocks; items are dropped when the queue is full.
type Forwarder struct {
	pub     Publisher
	queue   chan forwardItem
	logger  logger.Logger
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewForwarder creates a forwarder with room for size pending items.
func NewForwarder(pub Publisher, size int, log logger.Logger) *Forwarder {
	if size <= 0 {
		size = 1
	}

	return &Forwarder{
		pub:    pub,
		queue:  make(chan forwardItem, size),
		logger: log,
	}
}

func (f *Forwarder) ViolationRecorded(v models.Violation) {
	f.enqueue(forwardItem{violation: &v})
}

func (f *Forwarder) AlertRaised(a models.Alert) {
	f.enqueue(forwardItem{alert: &a})
}

// Dropped returns the number of items discarded because the queue was full.
func (f *Forwarder) Dropped() uint64 {
	return f.dropped.Load()
}

// Failed returns the number of items the publisher rejected.
func (f *Forwarder) Failed() uint64 {
	return f.failed.Load()
}

func (f *Forwarder) enqueue(item forwardItem) {
	select {
	case f.queue <- item:
	default:
		if f.dropped.Add(1) == 1 {
			f.logger.Warn().Msg("Event forwarding queue full, dropping events")
		}
	}
}

// Run publishes queued items until ctx is canceled.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-f.queue:
			f.forward(ctx, item)
		}
	}
}

func (f *Forwarder) forward(ctx context.Context, item forwardItem) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error

	switch {
	case item.violation != nil:
		err = f.pub.PublishViolation(ctx, *item.violation)
	case item.alert != nil:
		err = f.pub.PublishAlert(ctx, *item.alert)
	}

	if err != nil {
		f.failed.Add(1)
		f.logger.Warn().Err(err).Msg("Failed to forward event")
	}
}
