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
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/signalradar/pkg/models"
)

const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaYellow     = "#F1FA8C"
	draculaComment    = "#6272A4"

	appPadding = 2
	cellWidth  = 24
)

type styles struct {
	title, label, muted, warn, errorText lipgloss.Style

	badgeLive, badgeSim, badgeOffline, badgeReplay lipgloss.Style

	cell, selectedCell, app lipgloss.Style
}

func newStyles() styles {
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	cell := lipgloss.NewStyle().
		Width(cellWidth).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(draculaComment))

	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		warn: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		errorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		badgeLive:    badge.Foreground(lipgloss.Color(draculaGreen)),
		badgeSim:     badge.Foreground(lipgloss.Color(draculaYellow)),
		badgeOffline: badge.Foreground(lipgloss.Color(draculaRed)),
		badgeReplay:  badge.Foreground(lipgloss.Color(draculaPurple)),
		cell:         cell,
		selectedCell: cell.BorderForeground(lipgloss.Color(draculaPink)),
		app: lipgloss.NewStyle().
			Padding(1, appPadding).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)).
			Foreground(lipgloss.Color(draculaForeground)),
	}
}

func signalStyle(s models.SignalState) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch s {
	case models.SignalGreen:
		return base.Foreground(lipgloss.Color(draculaGreen))
	case models.SignalYellow:
		return base.Foreground(lipgloss.Color(draculaYellow))
	case models.SignalEmergency:
		return base.Foreground(lipgloss.Color(draculaPurple)).Blink(true)
	default:
		return base.Foreground(lipgloss.Color(draculaRed))
	}
}
