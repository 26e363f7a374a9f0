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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/carverauto/signalradar/pkg/logger"
)

var (
	errInvalidDuration     = errors.New("invalid duration")
	errStreamURLRequired   = errors.New("stream_url is required")
	errStreamURLScheme     = errors.New("stream_url must use ws or wss")
	errHTTPURLScheme       = errors.New("url must use http or https")
	errCapacityNotPositive = errors.New("capacity must be positive")
)

const (
	defaultStreamURL          = "ws://localhost:5500"
	defaultReconnectURL       = "http://localhost:5501/reconnect"
	defaultStatusURL          = "http://localhost:5000/api/status"
	defaultStatusInterval     = time.Second
	defaultSimulationInterval = 500 * time.Millisecond
	defaultHandshakeTimeout   = 5 * time.Second

	// DefaultHistoryCapacity bounds the replay history.
	DefaultHistoryCapacity = 40
	// DefaultEventLogCapacity bounds each of the violation and alert logs.
	DefaultEventLogCapacity = 10
	// DefaultEventQueueSize is the depth of the store's event queue.
	DefaultEventQueueSize = 256
)

// Duration is a time.Duration that reads "1s" style strings or nanoseconds from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DashboardConfig is the configuration of the signal dashboard.
type DashboardConfig struct {
	StreamURL          string             `json:"stream_url"`
	ReconnectURL       string             `json:"reconnect_url"`
	StatusURL          string             `json:"status_url"`
	StatusInterval     Duration           `json:"status_interval"`
	Mode               OperatingMode      `json:"mode"`
	SimulationInterval Duration           `json:"simulation_interval"`
	HandshakeTimeout   Duration           `json:"handshake_timeout"`
	HistoryCapacity    int                `json:"history_capacity"`
	EventLogCapacity   int                `json:"event_log_capacity"`
	EventQueueSize     int                `json:"event_queue_size"`
	NATS               *NATSConfig        `json:"nats,omitempty"`
	Logging            *logger.Config     `json:"logging,omitempty"`
	Telemetry          *logger.OTelConfig `json:"telemetry,omitempty"`
}

// DefaultDashboardConfig returns a configuration pointing at a controller on localhost.
func DefaultDashboardConfig() *DashboardConfig {
	return &DashboardConfig{
		StreamURL:          defaultStreamURL,
		ReconnectURL:       defaultReconnectURL,
		StatusURL:          defaultStatusURL,
		StatusInterval:     Duration(defaultStatusInterval),
		Mode:               ModeLive,
		SimulationInterval: Duration(defaultSimulationInterval),
		HandshakeTimeout:   Duration(defaultHandshakeTimeout),
		HistoryCapacity:    DefaultHistoryCapacity,
		EventLogCapacity:   DefaultEventLogCapacity,
		EventQueueSize:     DefaultEventQueueSize,
	}
}

// Validate fills zero values with defaults and rejects unusable settings.
func (c *DashboardConfig) Validate() error {
	c.applyDefaults()

	if c.StreamURL == "" {
		return errStreamURLRequired
	}

	u, err := url.Parse(c.StreamURL)
	if err != nil {
		return fmt.Errorf("invalid stream_url: %w", err)
	}

	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: %q", errStreamURLScheme, c.StreamURL)
	}

	for name, raw := range map[string]string{"reconnect_url": c.ReconnectURL, "status_url": c.StatusURL} {
		if raw == "" {
			continue
		}

		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	mode, err := ParseOperatingMode(string(c.Mode))
	if err != nil {
		return err
	}

	c.Mode = mode

	if c.HistoryCapacity <= 0 || c.EventLogCapacity <= 0 || c.EventQueueSize <= 0 {
		return errCapacityNotPositive
	}

	if c.NATS.Enabled() {
		if err := c.NATS.Validate(); err != nil {
			return fmt.Errorf("invalid nats config: %w", err)
		}
	}

	return nil
}

func (c *DashboardConfig) applyDefaults() {
	def := DefaultDashboardConfig()

	if c.StatusInterval <= 0 {
		c.StatusInterval = def.StatusInterval
	}

	if c.SimulationInterval <= 0 {
		c.SimulationInterval = def.SimulationInterval
	}

	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}

	if c.Mode == "" {
		c.Mode = def.Mode
	}

	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = def.HistoryCapacity
	}

	if c.EventLogCapacity == 0 {
		c.EventLogCapacity = def.EventLogCapacity
	}

	if c.EventQueueSize == 0 {
		c.EventQueueSize = def.EventQueueSize
	}
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", errHTTPURLScheme, raw)
	}

	return nil
}
