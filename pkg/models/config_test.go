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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardConfigDefaults(t *testing.T) {
	cfg := &DashboardConfig{StreamURL: "ws://controller:5500"}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultHistoryCapacity, cfg.HistoryCapacity)
	assert.Equal(t, DefaultEventLogCapacity, cfg.EventLogCapacity)
	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, Duration(time.Second), cfg.StatusInterval)
}

func TestDashboardConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DashboardConfig)
		wantErr bool
	}{
		{"defaults", func(*DashboardConfig) {}, false},
		{"empty stream", func(c *DashboardConfig) { c.StreamURL = "" }, true},
		{"http stream", func(c *DashboardConfig) { c.StreamURL = "http://localhost:5500" }, true},
		{"bad reconnect", func(c *DashboardConfig) { c.ReconnectURL = "ftp://x" }, true},
		{"bad mode", func(c *DashboardConfig) { c.Mode = "replay" }, true},
		{"upper mode", func(c *DashboardConfig) { c.Mode = "SIMULATED" }, false},
		{"negative history", func(c *DashboardConfig) { c.HistoryCapacity = -1 }, true},
		{"nats without url", func(c *DashboardConfig) { c.NATS = &NATSConfig{StreamName: "x"} }, false},
		{"nats", func(c *DashboardConfig) { c.NATS = &NATSConfig{URL: "nats://localhost:4222"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDashboardConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestNATSConfigDefaults(t *testing.T) {
	cfg := &NATSConfig{URL: "nats://localhost:4222"}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "signalradar", cfg.StreamName)
	assert.Equal(t, "signalradar.events", cfg.SubjectPrefix)
	assert.Equal(t, 64, cfg.QueueSize)

	var disabled *NATSConfig
	assert.False(t, disabled.Enabled())
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":"250ms","b":1000000000}`), &cfg))
	assert.Equal(t, Duration(250*time.Millisecond), cfg.A)
	assert.Equal(t, Duration(time.Second), cfg.B)

	out, err := json.Marshal(cfg.A)
	require.NoError(t, err)
	assert.JSONEq(t, `"250ms"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &cfg))
}

func TestOperatingMode(t *testing.T) {
	m, err := ParseOperatingMode(" Live ")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, m)
	assert.Equal(t, ModeSimulated, m.Toggle())
	assert.Equal(t, ModeLive, ModeSimulated.Toggle())

	_, err = ParseOperatingMode("paused")
	assert.Error(t, err)
}
