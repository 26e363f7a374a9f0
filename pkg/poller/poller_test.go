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

package poller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/signalradar/pkg/logger"
	"github.com/carverauto/signalradar/pkg/models"
	"github.com/carverauto/signalradar/pkg/replay"
)

func TestStatusPollerPollsOnEveryTick(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)

		n := hits.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"mode":"AUTO","arduino":true,"current_direction":"east","remaining_time":%d,"counts":{"east":4}}`, 10-n)
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	clock := replay.NewMockClock(ctrl)
	ticker := replay.NewMockTicker(ctrl)
	ticks := make(chan time.Time)

	clock.EXPECT().Ticker(time.Second).Return(ticker)
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop()

	var (
		mu      sync.Mutex
		reports []models.StatusReport
	)

	p := NewStatusPoller(srv.URL+"/api/status", time.Second, clock, nil, func(r models.StatusReport) {
		mu.Lock()
		defer mu.Unlock()

		reports = append(reports, r)
	}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- p.Run(ctx) }()

	ticks <- time.Now()
	ticks <- time.Now()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(reports) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()

	assert.True(t, reports[0].Arduino)
	assert.Equal(t, models.East, reports[0].CurrentDirection)
	assert.Equal(t, 4, reports[0].Counts.East)
	assert.InDelta(t, 7.0, reports[2].RemainingTime, 0.001)
}

func TestStatusPollerPollErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "controller offline", http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	p := NewStatusPoller(srv.URL+"/broken", time.Second, nil, nil, nil, logger.NewTestLogger())

	_, err := p.Poll(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "controller offline")

	p = NewStatusPoller(srv.URL+"/garbage", time.Second, nil, nil, nil, logger.NewTestLogger())

	_, err = p.Poll(context.Background())
	require.Error(t, err)
}

func TestStatusPollerRequiresURL(t *testing.T) {
	p := NewStatusPoller("", time.Second, nil, nil, nil, logger.NewTestLogger())

	require.ErrorIs(t, p.Run(context.Background()), ErrNoEndpoint)
}

func TestReconnector(t *testing.T) {
	got := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.Path + "?" + r.URL.RawQuery
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewReconnector(srv.URL+"/reconnect", nil, logger.NewTestLogger())

	require.NoError(t, r.Reconnect(context.Background(), models.West), "response status is ignored")
	assert.Equal(t, "/reconnect?dir=west", <-got)
}

func TestReconnectorTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	r := NewReconnector(base+"/reconnect", nil, logger.NewTestLogger())
	require.Error(t, r.Reconnect(context.Background(), models.North))

	require.ErrorIs(t, NewReconnector("", nil, logger.NewTestLogger()).Reconnect(context.Background(), models.North), ErrNoEndpoint)
}
