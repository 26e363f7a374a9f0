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

// Package poller talks to the controller's plain HTTP endpoints: the status
// endpoint polled for the status widget and the camera reconnect trigger.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

const (
	defaultRequestTimeout = 2 * time.Second
	maxErrorBody          = 512
)

// StatusPoller fetches the controller status on a fixed interval and hands
// each report to a callback. Reports are not buffered or merged.
type StatusPoller struct {
	url      string
	interval time.Duration
	clock    replay.Clock
	client   *http.Client
	onReport func(models.StatusReport)
	logger   logger.Logger
}

// NewStatusPoller creates a poller for url. A nil client gets a short timeout.
func NewStatusPoller(
	url string,
	interval time.Duration,
	clock replay.Clock,
	client *http.Client,
	onReport func(models.StatusReport),
	log logger.Logger,
) *StatusPoller {
	if clock == nil {
		clock = replay.RealClock()
	}

	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &StatusPoller{
		url:      url,
		interval: interval,
		clock:    clock,
		client:   client,
		onReport: onReport,
		logger:   log,
	}
}

// Run polls immediately and then on every tick until ctx is canceled.
// Failed polls are logged and leave the last report in place.
func (p *StatusPoller) Run(ctx context.Context) error {
	if p.url == "" {
		return ErrNoEndpoint
	}

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			p.pollOnce(ctx)
		}
	}
}

func (p *StatusPoller) pollOnce(ctx context.Context) {
	report, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug().Err(err).Str("url", p.url).Msg("Status poll failed")
		}

		return
	}

	if p.onReport != nil {
		p.onReport(report)
	}
}

// Poll performs a single status request.
func (p *StatusPoller) Poll(ctx context.Context) (models.StatusReport, error) {
	var report models.StatusReport

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return report, fmt.Errorf("create status request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return report, fmt.Errorf("request status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return report, fmt.Errorf("%w: %s %s", ErrUnexpectedStatus, resp.Status, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return report, fmt.Errorf("decode status response: %w", err)
	}

	return report, nil
}
