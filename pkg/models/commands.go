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

import "strings"

// Command is an operator instruction forwarded to the controller.
type Command string

const (
	CommandForceNorth Command = "FORCE_NORTH"
	CommandForceEast  Command = "FORCE_EAST"
	CommandForceSouth Command = "FORCE_SOUTH"
	CommandForceWest  Command = "FORCE_WEST"
	CommandStopAll    Command = "STOP_ALL"
	CommandAuto       Command = "AUTO"
)

// ForceCommand returns the command that forces a green on d.
func ForceCommand(d Direction) Command {
	return Command("FORCE_" + strings.ToUpper(string(d)))
}

// OutboundCommand is the wire form of a command.
type OutboundCommand struct {
	Command Command `json:"command"`
}

// StatusReport is the payload of the controller's polling status endpoint.
type StatusReport struct {
	Mode             string    `json:"mode,omitempty"`
	Arduino          bool      `json:"arduino"`
	CurrentDirection Direction `json:"current_direction"`
	RemainingTime    float64   `json:"remaining_time"`
	Counts           Counts    `json:"counts"`
}
