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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/signalradar/pkg/dashboard"
	"github.com/carverauto/signalradar/pkg/models"
)

const timeLayout = "15:04:05"

func (m *Model) View() string {
	if m.view == nil {
		return m.styles.muted.Render("Waiting for controller state...")
	}

	v := m.view
	snap := v.Snapshot

	var warnings []string

	counts, err := snap.Counts()
	if err != nil {
		warnings = append(warnings, "counts")
	}

	logic, err := snap.Logic()
	if err != nil {
		warnings = append(warnings, "logic")
	}

	env, err := snap.Env()
	if err != nil {
		warnings = append(warnings, "env")
	}

	analytics, err := snap.Analytics()
	if err != nil {
		warnings = append(warnings, "analytics")
	}

	feeds, err := snap.Feeds()
	if err != nil {
		warnings = append(warnings, "feeds")
	}

	sections := []string{
		m.renderHeader(v),
		m.renderLogic(logic, env),
		m.renderGrid(v, counts, logic, feeds),
		m.renderPlayback(v),
		m.renderAnalytics(analytics),
		m.renderEvents(v),
		m.renderStatus(),
	}

	if len(warnings) > 0 {
		sections = append(sections, m.styles.warn.Render("Malformed sections shown as defaults: "+strings.Join(warnings, ", ")))
	}

	if m.notice.text != "" {
		style := m.styles.muted
		if m.notice.err {
			style = m.styles.errorText
		}

		sections = append(sections, style.Render(m.notice.text))
	}

	sections = append(sections, m.help.View(m.keys))

	return m.styles.app.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader(v *dashboard.View) string {
	var badge string

	switch {
	case v.Mode == models.ModeSimulated:
		badge = m.styles.badgeSim.Render("SIMULATION")
	case v.Connection == models.Connected:
		badge = m.styles.badgeLive.Render("LIVE")
	default:
		badge = m.styles.badgeOffline.Render("OFFLINE")
	}

	parts := []string{m.styles.title.Render("SignalRadar Intersection"), badge}

	if v.InPlayback() {
		parts = append(parts, m.styles.badgeReplay.Render("REPLAY"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (m *Model) renderLogic(logic models.Logic, env models.Env) string {
	line := fmt.Sprintf("%s %s  %s %s  %s %s  %s %.0fs",
		m.styles.label.Render("active"), strings.ToUpper(string(logic.ActiveDir)),
		m.styles.label.Render("state"), signalStyle(logic.State).Render(string(logic.State)),
		m.styles.label.Render("mode"), logic.Mode,
		m.styles.label.Render("timer"), logic.Timer)

	if logic.NextDir != "" {
		line += fmt.Sprintf("  %s %s", m.styles.label.Render("next"), strings.ToUpper(string(logic.NextDir)))
	}

	if logic.Status != "" {
		line += "  " + m.styles.muted.Render(logic.Status)
	}

	envLine := fmt.Sprintf("%s %s", m.styles.label.Render("weather"), env.WeatherMode)
	if env.IsNight {
		envLine += "  night"
	}

	if zone := env.Obstacle(); zone != "" {
		envLine += "  " + m.styles.warn.Render("obstacle: "+zone)
	}

	if logic.PredictedViolationDir != "" {
		envLine += "  " + m.styles.errorText.Render("violation risk: "+strings.ToUpper(string(logic.PredictedViolationDir)))
	}

	return line + "\n" + envLine
}

func (m *Model) renderGrid(v *dashboard.View, counts models.Counts, logic models.Logic, feeds models.Feeds) string {
	cells := make([]string, 0, len(models.Directions))

	for i, d := range models.Directions {
		state := logic.SignalMap[d]

		feed := m.styles.muted.Render("no feed")
		if v.InPlayback() {
			feed = m.styles.muted.Render("feed not recorded")
		} else if frame := feeds[d]; frame != "" {
			feed = fmt.Sprintf("feed %s", formatBytes(len(frame)*3/4))
		}

		body := lipgloss.JoinVertical(lipgloss.Left,
			strings.ToUpper(string(d)),
			signalStyle(state).Render("● "+string(state)),
			fmt.Sprintf("queue %d", counts.For(d)),
			feed,
		)

		style := m.styles.cell
		if i == m.selected {
			style = m.styles.selectedCell
		}

		cells = append(cells, style.Render(body))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) renderPlayback(v *dashboard.View) string {
	if !v.InPlayback() {
		return fmt.Sprintf("%s  history %d/%d", m.styles.badgeLive.Render("● LIVE"), v.HistoryLen, v.HistoryCap)
	}

	ts := "--:--:--"
	if !v.PlaybackTime.IsZero() {
		ts = v.PlaybackTime.Format(timeLayout)
	}

	return fmt.Sprintf("%s  ◀ %d/%d ▶  %s",
		m.styles.badgeReplay.Render("❚❚ REPLAY"), v.Cursor.Index+1, v.HistoryLen, ts)
}

func (m *Model) renderAnalytics(a models.Analytics) string {
	classes := make([]string, 0, len(a))
	for class := range a {
		classes = append(classes, class)
	}

	sort.Strings(classes)

	parts := make([]string, 0, len(classes))
	for _, class := range classes {
		parts = append(parts, fmt.Sprintf("%s %d", class, a[class]))
	}

	return m.styles.label.Render("vehicles") + " " + strings.Join(parts, "  ")
}

func (m *Model) renderEvents(v *dashboard.View) string {
	var b strings.Builder

	b.WriteString(m.styles.label.Render("violations"))
	b.WriteString("\n")

	if len(v.Violations) == 0 {
		b.WriteString(m.styles.muted.Render("  none"))
		b.WriteString("\n")
	}

	for _, vi := range v.Violations {
		fmt.Fprintf(&b, "  %s %s %s\n", vi.Time, strings.ToUpper(string(vi.Dir)), m.styles.muted.Render("#"+string(vi.ID)))
	}

	b.WriteString(m.styles.label.Render("alerts"))
	b.WriteString("\n")

	if len(v.Alerts) == 0 {
		b.WriteString(m.styles.muted.Render("  none"))
	}

	for i, a := range v.Alerts {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString("  " + m.styles.warn.Render(a.Message))
	}

	return b.String()
}

func (m *Model) renderStatus() string {
	if m.status == nil {
		return m.styles.muted.Render("controller status unavailable")
	}

	s := m.status

	arduino := m.styles.badgeOffline.Render("arduino offline")
	if s.Arduino {
		arduino = m.styles.badgeLive.Render("arduino online")
	}

	return fmt.Sprintf("%s %s %s  dir %s  remaining %.0fs",
		m.styles.label.Render("controller"), s.Mode, arduino,
		strings.ToUpper(string(s.CurrentDirection)), s.RemainingTime)
}

func formatBytes(n int) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	return fmt.Sprintf("%.1f KB", float64(n)/unit)
}
