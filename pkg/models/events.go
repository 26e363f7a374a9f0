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
	"strings"
	"time"
)

var (
	errInvalidEventID     = errors.New("event id must be a string or a number")
	errUnknownMode        = errors.New("unknown operating mode")
	errNATSURLRequired    = errors.New("nats url is required")
	errSubjectPrefixEmpty = errors.New("nats subject prefix is required")
)

// EventID identifies a violation or alert. The controller sends numeric ids
// (epoch milliseconds) while locally raised alerts use UUIDs, so both forms decode.
type EventID string

// UnmarshalJSON accepts a JSON string or number.
func (id *EventID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = EventID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errInvalidEventID
	}

	*id = EventID(n.String())

	return nil
}

// Violation is a red-light violation reported by the controller.
type Violation struct {
	ID   EventID   `json:"id"`
	Dir  Direction `json:"dir"`
	Time string    `json:"time"`
	Img  string    `json:"img,omitempty"`
}

// Alert is an operator-facing warning.
type Alert struct {
	ID      EventID `json:"id"`
	Message string  `json:"message"`
}

// HistoryEntry is one recorded snapshot. The snapshot never carries feed images.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// ConnectionState reports whether the ingestion channel is open.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

func (c ConnectionState) String() string {
	if c == Connected {
		return "connected"
	}

	return "disconnected"
}

// OperatingMode selects which ingestion channel feeds the dashboard.
type OperatingMode string

const (
	ModeLive      OperatingMode = "live"
	ModeSimulated OperatingMode = "simulated"
)

// ParseOperatingMode parses "live" or "simulated" (case-insensitive).
func ParseOperatingMode(s string) (OperatingMode, error) {
	switch OperatingMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, nil
	case ModeSimulated:
		return ModeSimulated, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownMode, s)
	}
}

// Toggle returns the other operating mode.
func (m OperatingMode) Toggle() OperatingMode {
	if m == ModeSimulated {
		return ModeLive
	}

	return ModeSimulated
}

// NATSConfig configures forwarding of violations and alerts to JetStream.
type NATSConfig struct {
	URL           string         `json:"url"`
	StreamName    string         `json:"stream_name"`
	SubjectPrefix string         `json:"subject_prefix"`
	QueueSize     int            `json:"queue_size"`
	TLS           *NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig holds the client certificate material for mTLS to NATS.
type NATSTLSConfig struct {
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	CAFile     string `json:"ca_file"`
	ServerName string `json:"server_name,omitempty"`
}

// Enabled reports whether forwarding is configured.
func (c *NATSConfig) Enabled() bool {
	return c != nil && c.URL != ""
}

// Validate fills defaults and checks the forwarding configuration.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return errNATSURLRequired
	}

	if c.StreamName == "" {
		c.StreamName = "signalradar"
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "signalradar.events"
	}

	if strings.Trim(c.SubjectPrefix, ". ") == "" {
		return errSubjectPrefixEmpty
	}

	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
