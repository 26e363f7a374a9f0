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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedSection is returned when a snapshot section cannot be decoded into its typed form.
	ErrMalformedSection = errors.New("malformed snapshot section")
	// ErrMalformedDelta is returned when an inbound payload is not a JSON object.
	ErrMalformedDelta = errors.New("malformed delta")
)

// Top-level snapshot keys understood by the dashboard.
const (
	KeyFeeds     = "feeds"
	KeyCounts    = "counts"
	KeyLogic     = "logic"
	KeyAnalytics = "analytics"
	KeyEnv       = "env"
	KeyViolation = "violation"
	KeyAlert     = "alert"
)

// Direction identifies one approach of the intersection.
type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
	South Direction = "south"
	West  Direction = "west"
)

// Directions lists the four approaches in display order.
//
//nolint:gochecknoglobals // fixed lookup table
var Directions = [...]Direction{North, East, South, West}

// SignalState is the color (or override) shown on a signal head.
type SignalState string

const (
	SignalRed       SignalState = "RED"
	SignalYellow    SignalState = "YELLOW"
	SignalGreen     SignalState = "GREEN"
	SignalEmergency SignalState = "EMERGENCY"
)

// ControlMode is the controller's operating strategy.
type ControlMode string

const (
	ControlAuto     ControlMode = "AUTO"
	ControlManual   ControlMode = "MANUAL"
	ControlEco      ControlMode = "ECO"
	ControlPriority ControlMode = "PRIORITY"
)

// WeatherMode is the environment classification reported by the controller.
type WeatherMode string

const (
	WeatherClear WeatherMode = "CLEAR"
	WeatherRain  WeatherMode = "RAIN"
	WeatherNight WeatherMode = "NIGHT"
)

// Snapshot is the canonical controller state, keyed by top-level section.
//
// Section values are kept as raw JSON so that a section with an unexpected
// shape is carried through merging untouched and only fails when a renderer
// asks for the typed form. A Snapshot is never mutated once built; every
// transformation returns a new map.
type Snapshot map[string]json.RawMessage

// Counts holds per-direction vehicle counts.
type Counts struct {
	North       int `json:"north"`
	East        int `json:"east"`
	South       int `json:"south"`
	West        int `json:"west"`
	RainTrigger int `json:"rain_trigger"`
}

// For returns the count for a single direction.
func (c Counts) For(d Direction) int {
	switch d {
	case North:
		return c.North
	case East:
		return c.East
	case South:
		return c.South
	case West:
		return c.West
	default:
		return 0
	}
}

// Logic is the signal-logic block.
type Logic struct {
	ActiveDir             Direction                 `json:"active_dir"`
	State                 SignalState               `json:"state"`
	Mode                  ControlMode               `json:"mode"`
	SignalMap             map[Direction]SignalState `json:"signal_map"`
	Timer                 float64                   `json:"timer,omitempty"`
	NextDir               Direction                 `json:"next_dir,omitempty"`
	Status                string                    `json:"status,omitempty"`
	PredictedViolationDir Direction                 `json:"predicted_violation_dir,omitempty"`
}

// Env is the environment block.
type Env struct {
	IsNight      bool            `json:"is_night"`
	WeatherMode  WeatherMode     `json:"weather_mode"`
	ObstacleZone json.RawMessage `json:"obstacle_zone,omitempty"`
}

// Obstacle returns the obstacle zone label, or "" when none is reported.
// The controller sends either a zone name, a boolean, or null.
func (e Env) Obstacle() string {
	if len(e.ObstacleZone) == 0 {
		return ""
	}

	var zone string
	if err := json.Unmarshal(e.ObstacleZone, &zone); err == nil {
		return zone
	}

	var flagged bool
	if err := json.Unmarshal(e.ObstacleZone, &flagged); err == nil && flagged {
		return "detected"
	}

	return ""
}

// Analytics is the vehicle-class tally.
type Analytics map[string]int

// Feeds maps a direction to its base64 encoded camera frame.
type Feeds map[Direction]string

// DefaultSnapshot is the state shown before the first delta arrives.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		KeyFeeds:  mustRaw(Feeds{}),
		KeyCounts: mustRaw(Counts{}),
		KeyLogic: mustRaw(Logic{
			ActiveDir: North,
			State:     SignalRed,
			Mode:      ControlAuto,
			SignalMap: redSignals(),
		}),
		KeyAnalytics: mustRaw(Analytics{"car": 0, "bike": 0, "bus": 0, "truck": 0}),
		KeyEnv:       mustRaw(Env{WeatherMode: WeatherClear}),
	}
}

// Raw returns the raw value stored under key.
func (s Snapshot) Raw(key string) (json.RawMessage, bool) {
	v, ok := s[key]

	return v, ok
}

// Clone returns a shallow copy. Raw values are shared since they are never written to.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}

	return out
}

// WithoutFeeds returns a copy whose feeds section is an empty mapping.
func (s Snapshot) WithoutFeeds() Snapshot {
	out := s.Clone()
	out[KeyFeeds] = json.RawMessage(`{}`)

	return out
}

// Counts decodes the counts section. Missing directions read as zero.
func (s Snapshot) Counts() (Counts, error) {
	var c Counts
	err := s.decode(KeyCounts, &c)

	return c, err
}

// Logic decodes the logic block. Directions missing from the signal map read as RED.
func (s Snapshot) Logic() (Logic, error) {
	var l Logic
	if err := s.decode(KeyLogic, &l); err != nil {
		return Logic{SignalMap: redSignals()}, err
	}

	if l.SignalMap == nil {
		l.SignalMap = make(map[Direction]SignalState, len(Directions))
	}

	for _, d := range Directions {
		if _, ok := l.SignalMap[d]; !ok {
			l.SignalMap[d] = SignalRed
		}
	}

	return l, nil
}

// Env decodes the environment block.
func (s Snapshot) Env() (Env, error) {
	var e Env
	err := s.decode(KeyEnv, &e)

	return e, err
}

// Analytics decodes the vehicle-class tally.
func (s Snapshot) Analytics() (Analytics, error) {
	a := Analytics{}
	err := s.decode(KeyAnalytics, &a)

	return a, err
}

// Feeds decodes the camera feed section.
func (s Snapshot) Feeds() (Feeds, error) {
	f := Feeds{}
	err := s.decode(KeyFeeds, &f)

	return f, err
}

func (s Snapshot) decode(key string, dst interface{}) error {
	raw, ok := s[key]
	if !ok || isNull(raw) {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w %q: %w", ErrMalformedSection, key, err)
	}

	return nil
}

// Delta is a partial update carrying any subset of the snapshot's top-level keys.
type Delta map[string]json.RawMessage

// ParseDelta decodes an inbound payload. Anything other than a JSON object
// (or null, which is an empty delta) is rejected.
func ParseDelta(payload []byte) (Delta, error) {
	var d Delta
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDelta, err)
	}

	if d == nil {
		d = Delta{}
	}

	return d, nil
}

// Violation returns the violation record carried by the delta, if any.
func (d Delta) Violation() (Violation, bool) {
	var v Violation

	raw, ok := d[KeyViolation]
	if !ok || isNull(raw) {
		return v, false
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}

	return v, true
}

// Alert returns the alert record carried by the delta, if any.
func (d Delta) Alert() (Alert, bool) {
	var a Alert

	raw, ok := d[KeyAlert]
	if !ok || isNull(raw) {
		return a, false
	}

	if err := json.Unmarshal(raw, &a); err != nil || a.Message == "" {
		return a, false
	}

	return a, true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func redSignals() map[Direction]SignalState {
	m := make(map[Direction]SignalState, len(Directions))
	for _, d := range Directions {
		m[d] = SignalRed
	}

	return m
}

func mustRaw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}
