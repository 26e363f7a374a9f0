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

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Playback  key.Binding
	Back      key.Binding
	Forward   key.Binding
	Force     key.Binding
	StopAll   key.Binding
	Auto      key.Binding
	Mode      key.Binding
	Reconnect key.Binding
	Select    key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Playback: key.NewBinding(
			key.WithKeys("p", " ", "space"),
			key.WithHelp("p/space", "live/replay"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "older"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "newer"),
		),
		Force: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "force N/E/S/W"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop all"),
		),
		Auto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "live/simulate"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect camera"),
		),
		Select: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "select camera"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy snapshot"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Playback, k.Back, k.Forward, k.Force, k.Mode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Playback, k.Back, k.Forward},
		{k.Force, k.StopAll, k.Auto},
		{k.Mode, k.Reconnect, k.Select},
		{k.Copy, k.Help, k.Quit},
	}
}
