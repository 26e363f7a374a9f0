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
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/carverauto/signalradar/pkg/logger"
)

const meterName = "github.com/carverauto/signalradar/pkg/dashboard"

type storeMetrics struct {
	applied    metric.Int64Counter
	staleDrops metric.Int64Counter
	malformed  metric.Int64Counter
	evictions  metric.Int64Counter
	alerts     metric.Int64Counter

	historyLen atomic.Int64
}

func newStoreMetrics(log logger.Logger) *storeMetrics {
	m, err := buildStoreMetrics(otel.Meter(meterName))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create store instruments, metrics disabled")

		m, _ = buildStoreMetrics(noop.NewMeterProvider().Meter(meterName))
	}

	return m
}

func buildStoreMetrics(meter metric.Meter) (*storeMetrics, error) {
	m := &storeMetrics{}

	var err error

	if m.applied, err = meter.Int64Counter("signalradar.deltas.applied",
		metric.WithDescription("Deltas merged into the live snapshot")); err != nil {
		return nil, err
	}

	if m.staleDrops, err = meter.Int64Counter("signalradar.deltas.stale",
		metric.WithDescription("Deltas dropped because their source was retired")); err != nil {
		return nil, err
	}

	if m.malformed, err = meter.Int64Counter("signalradar.deltas.malformed",
		metric.WithDescription("Inbound payloads that were not JSON objects")); err != nil {
		return nil, err
	}

	if m.evictions, err = meter.Int64Counter("signalradar.history.evictions",
		metric.WithDescription("History entries evicted to stay within capacity")); err != nil {
		return nil, err
	}

	if m.alerts, err = meter.Int64Counter("signalradar.alerts.raised",
		metric.WithDescription("Alerts pushed to the alert log")); err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("signalradar.history.length",
		metric.WithDescription("Entries currently held in the replay history"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.historyLen.Load())
			return nil
		}))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *storeMetrics) stale(ctx context.Context) {
	m.staleDrops.Add(ctx, 1)
}
