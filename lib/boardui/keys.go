// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board UI.
type KeyMap struct {
	// Navigation within and across status columns.
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Mutations.
	MoveBack    key.Binding // Move the selected ticket one stage back.
	MoveForward key.Binding // Move the selected ticket one stage forward.
	NewTicket   key.Binding
	Edit        key.Binding // Edit the selected ticket's description.

	// Panels.
	Activity key.Binding // Toggle the activity feed panel.
	Super    key.Binding // Toggle elevated mode (prompts for the credential).

	Select  key.Binding
	Back    key.Binding
	Refresh key.Binding
	Logout  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (h/j/k/l) alongside standard arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "left column"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "right column"),
	),
	MoveBack: key.NewBinding(
		key.WithKeys("H", "shift+left"),
		key.WithHelp("H", "move back"),
	),
	MoveForward: key.NewBinding(
		key.WithKeys("L", "shift+right"),
		key.WithHelp("L", "move forward"),
	),
	NewTicket: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new ticket"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Activity: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "activity"),
	),
	Super: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "super mode"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "log out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
