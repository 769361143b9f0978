// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// Theme defines the color palette for the board UI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected ticket card.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Status column accents, one per pipeline stage.
	StatusProposed   lipgloss.Color
	StatusTodo       lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusDone       lipgloss.Color
	StatusDeployed   lipgloss.Color

	// Pending mutations render dimmed until the server confirms.
	PendingText lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color

	// Elevated-mode and degraded-sync badges in the status bar.
	SuperBadge    lipgloss.Color
	DegradedBadge lipgloss.Color
}

// StatusColor returns the accent color for a pipeline stage. Unknown
// values return FaintText.
func (theme Theme) StatusColor(status schema.Status) lipgloss.Color {
	switch status {
	case schema.StatusProposed:
		return theme.StatusProposed
	case schema.StatusTodo:
		return theme.StatusTodo
	case schema.StatusInProgress:
		return theme.StatusInProgress
	case schema.StatusDone:
		return theme.StatusDone
	case schema.StatusDeployed:
		return theme.StatusDeployed
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusProposed:   lipgloss.Color("141"), // light purple
	StatusTodo:       lipgloss.Color("75"),  // blue
	StatusInProgress: lipgloss.Color("220"), // yellow/amber
	StatusDone:       lipgloss.Color("114"), // green
	StatusDeployed:   lipgloss.Color("245"), // gray

	PendingText: lipgloss.Color("240"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("196"),

	SuperBadge:    lipgloss.Color("208"), // orange
	DegradedBadge: lipgloss.Color("196"), // red
}
