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

// Package tui is the terminal rendering layer of the dashboard. It draws the
// resolved view published by the store and turns key presses into playback
// controls and controller commands.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/carverauto/signalradar/pkg/dashboard"
	"github.com/carverauto/signalradar/pkg/models"
)

const actionTimeout = 5 * time.Second

// Store is the part of the dashboard store the TUI reads and drives.
type Store interface {
	View() *dashboard.View
	Subscribe() (<-chan *dashboard.View, func())
	TogglePlayback(ctx context.Context) error
	Step(ctx context.Context, n int) error
	PushAlert(ctx context.Context, a models.Alert) error
}

// Channel sends commands and switches the operating mode.
type Channel interface {
	Send(cmd models.Command) bool
	ToggleMode(ctx context.Context) error
}

// Reconnector asks the controller to reopen a camera.
type Reconnector interface {
	Reconnect(ctx context.Context, dir models.Direction) error
}

// StatusMsg carries a polled controller status report into the program.
type StatusMsg models.StatusReport

type viewMsg struct {
	view *dashboard.View
}

type noticeMsg struct {
	text string
	err  bool
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx         context.Context
	store       Store
	channel     Channel
	reconnector Reconnector
	copyFn      func(string) error

	views       <-chan *dashboard.View
	unsubscribe func()

	view     *dashboard.View
	status   *models.StatusReport
	selected int
	notice   noticeMsg
	width    int

	keys   keyMap
	help   help.Model
	styles styles
}

// New creates the model. reconnector may be nil.
func New(ctx context.Context, store Store, channel Channel, reconnector Reconnector) *Model {
	views, unsubscribe := store.Subscribe()

	return &Model{
		ctx:         ctx,
		store:       store,
		channel:     channel,
		reconnector: reconnector,
		copyFn:      clipboard.WriteAll,
		views:       views,
		unsubscribe: unsubscribe,
		view:        store.View(),
		keys:        newKeyMap(),
		help:        help.New(),
		styles:      newStyles(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForView()
}

func (m *Model) waitForView() tea.Cmd {
	views := m.views

	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return nil
		}

		return viewMsg{view: v}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = msg.view

		return m, m.waitForView()
	case StatusMsg:
		report := models.StatusReport(msg)
		m.status = &report
	case noticeMsg:
		m.notice = msg
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unsubscribe()

		return m, tea.Quit
	case key.Matches(msg, m.keys.Playback):
		m.report(m.store.TogglePlayback(m.ctx))
	case key.Matches(msg, m.keys.Back):
		m.report(m.store.Step(m.ctx, -1))
	case key.Matches(msg, m.keys.Forward):
		m.report(m.store.Step(m.ctx, 1))
	case key.Matches(msg, m.keys.Force):
		dir := models.Directions[int(msg.String()[0]-'1')]
		m.send(models.ForceCommand(dir))
	case key.Matches(msg, m.keys.StopAll):
		m.send(models.CommandStopAll)
	case key.Matches(msg, m.keys.Auto):
		m.send(models.CommandAuto)
	case key.Matches(msg, m.keys.Mode):
		return m, m.toggleMode()
	case key.Matches(msg, m.keys.Reconnect):
		return m, m.reconnect(models.Directions[m.selected])
	case key.Matches(msg, m.keys.Select):
		m.selected = (m.selected + 1) % len(models.Directions)
	case key.Matches(msg, m.keys.Copy):
		m.copySnapshot()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.notice = noticeMsg{text: err.Error(), err: true}
	}
}

func (m *Model) send(cmd models.Command) {
	if m.channel.Send(cmd) {
		m.notice = noticeMsg{text: fmt.Sprintf("Sent %s", cmd)}
		return
	}

	m.notice = noticeMsg{text: fmt.Sprintf("%s dropped: controller not connected", cmd), err: true}
}

func (m *Model) toggleMode() tea.Cmd {
	ctx, channel := m.ctx, m.channel

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := channel.ToggleMode(ctx); err != nil {
			return noticeMsg{text: fmt.Sprintf("Mode switch failed: %v", err), err: true}
		}

		return noticeMsg{text: "Operating mode switched"}
	}
}

func (m *Model) reconnect(dir models.Direction) tea.Cmd {
	if m.reconnector == nil {
		m.notice = noticeMsg{text: "Camera reconnect not configured", err: true}
		return nil
	}

	ctx, r, store := m.ctx, m.reconnector, m.store

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := r.Reconnect(ctx, dir); err != nil {
			return noticeMsg{text: fmt.Sprintf("Reconnect %s failed: %v", dir, err), err: true}
		}

		_ = store.PushAlert(ctx, models.Alert{Message: fmt.Sprintf("Reconnect requested for %s camera", dir)})

		return noticeMsg{text: fmt.Sprintf("Reconnect requested for %s camera", dir)}
	}
}

// copySnapshot puts the displayed snapshot, without camera frames, on the clipboard.
func (m *Model) copySnapshot() {
	if m.view == nil {
		return
	}

	snap := m.view.Snapshot.Clone()
	delete(snap, models.KeyFeeds)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		m.notice = noticeMsg{text: fmt.Sprintf("Copy failed: %v", err), err: true}
		return
	}

	if err := m.copyFn(string(data)); err != nil {
		m.notice = noticeMsg{text: "Failed to copy to clipboard", err: true}
		return
	}

	m.notice = noticeMsg{text: "Snapshot copied to clipboard"}
}
