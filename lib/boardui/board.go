// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// inputMode is which modal input, if any, the board view is showing.
type inputMode int

const (
	inputNone inputMode = iota
	inputCreate
	inputEdit
	inputSuper
)

type boardState struct {
	// column indexes schema.Statuses(); rows holds the per-column
	// cursor so switching columns keeps each column's position.
	column int
	rows   map[schema.Status]int

	mode         inputMode
	input        textinput.Model
	editTicketID int64

	activityOpen bool
	activities   []schema.Activity
	unread       int

	degraded bool
}

func newBoardState() boardState {
	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60
	return boardState{rows: map[schema.Status]int{}, input: input}
}

// columnsFor groups the merged ticket list into board columns,
// preserving the store's ordering within each column.
func columnsFor(tickets []schema.Ticket) map[schema.Status][]schema.Ticket {
	columns := make(map[schema.Status][]schema.Ticket, len(schema.Statuses()))
	for _, ticket := range tickets {
		columns[ticket.Status] = append(columns[ticket.Status], ticket)
	}
	return columns
}

// clampCursors keeps the cursors inside the columns after the ticket
// list changes under them.
func (state *boardState) clampCursors(tickets []schema.Ticket) {
	columns := columnsFor(tickets)
	for _, status := range schema.Statuses() {
		row := state.rows[status]
		if count := len(columns[status]); row >= count {
			row = count - 1
		}
		if row < 0 {
			row = 0
		}
		state.rows[status] = row
	}
}

// selectedTicket returns the ticket under the cursor.
func (model Model) selectedTicket() (schema.Ticket, bool) {
	status := schema.Statuses()[model.board.column]
	column := columnsFor(model.store.Tickets())[status]
	row := model.board.rows[status]
	if row >= len(column) {
		return schema.Ticket{}, false
	}
	return column[row], true
}

func (model Model) updateBoard(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.board.mode != inputNone {
		return model.updateBoardInput(message)
	}

	statuses := schema.Statuses()
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Back):
		model.stream.Unsubscribe()
		model.view = viewProjects
		model.projects.loading = true
		return model, model.loadProjects()

	case key.Matches(message, model.keys.Logout):
		return model.logout()

	case key.Matches(message, model.keys.Refresh):
		store := model.store
		model.board.degraded = false
		return model, func() tea.Msg {
			if err := store.Reconcile(context.Background()); err != nil {
				return mutationSettledMsg{err: err}
			}
			return nil
		}

	case key.Matches(message, model.keys.Left):
		if model.board.column > 0 {
			model.board.column--
		}

	case key.Matches(message, model.keys.Right):
		if model.board.column < len(statuses)-1 {
			model.board.column++
		}

	case key.Matches(message, model.keys.Up):
		status := statuses[model.board.column]
		if model.board.rows[status] > 0 {
			model.board.rows[status]--
		}

	case key.Matches(message, model.keys.Down):
		status := statuses[model.board.column]
		count := len(columnsFor(model.store.Tickets())[status])
		if model.board.rows[status] < count-1 {
			model.board.rows[status]++
		}

	case key.Matches(message, model.keys.MoveForward):
		if ticket, ok := model.selectedTicket(); ok {
			return model.moveTicket(ticket, ticket.Status.Next())
		}

	case key.Matches(message, model.keys.MoveBack):
		if ticket, ok := model.selectedTicket(); ok {
			return model.moveTicket(ticket, ticket.Status.Prev())
		}

	case key.Matches(message, model.keys.NewTicket):
		model.board.mode = inputCreate
		model.board.input.Placeholder = "ticket description"
		model.board.input.SetValue("")
		return model, model.board.input.Focus()

	case key.Matches(message, model.keys.Edit):
		ticket, ok := model.selectedTicket()
		if !ok {
			return model, nil
		}
		if model.store.Pending(ticket.ID) {
			return model.showError("a change for this ticket is still in flight, retry shortly")
		}
		model.board.mode = inputEdit
		model.board.editTicketID = ticket.ID
		model.board.input.Placeholder = "ticket description"
		model.board.input.SetValue(ticket.Description)
		return model, model.board.input.Focus()

	case key.Matches(message, model.keys.Super):
		if model.gate.Enabled() {
			gate := model.gate
			return model, func() tea.Msg {
				return toggleSettledMsg{err: gate.Toggle(context.Background(), false, "")}
			}
		}
		model.board.mode = inputSuper
		model.board.input.Placeholder = "super mode password"
		model.board.input.SetValue("")
		model.board.input.EchoMode = textinput.EchoPassword
		return model, model.board.input.Focus()

	case key.Matches(message, model.keys.Activity):
		model.board.activityOpen = !model.board.activityOpen
		if model.board.activityOpen {
			model.board.unread = 0
			return model, model.loadActivities()
		}
	}
	return model, nil
}

// moveTicket applies a status change optimistically. A ticket with a
// mutation already in flight is rejected here, synchronously, before
// anything is shown.
func (model Model) moveTicket(ticket schema.Ticket, to schema.Status) (tea.Model, tea.Cmd) {
	if to == ticket.Status {
		return model, nil
	}
	update := schema.TicketUpdate{Status: &to}
	result, err := model.store.UpdateOptimistic(context.Background(), ticket.ID, update)
	if err != nil {
		return model.showError(mutationErrorText(err))
	}
	// Follow the ticket into its new column.
	for index, moved := range columnsFor(model.store.Tickets())[to] {
		if moved.ID == ticket.ID {
			model.board.rows[to] = index
			break
		}
	}
	return model, waitForMutation(ticket.ID, result)
}

func (model Model) updateBoardInput(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "esc":
		model.board = model.closeInput()
		return model, nil
	case "enter":
		return model.submitBoardInput()
	}
	var cmd tea.Cmd
	model.board.input, cmd = model.board.input.Update(message)
	return model, cmd
}

func (model Model) closeInput() boardState {
	state := model.board
	state.mode = inputNone
	state.editTicketID = 0
	state.input.SetValue("")
	state.input.Blur()
	state.input.EchoMode = textinput.EchoNormal
	return state
}

func (model Model) submitBoardInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(model.board.input.Value())
	mode := model.board.mode
	editTicketID := model.board.editTicketID
	model.board = model.closeInput()

	switch mode {
	case inputCreate:
		if value == "" {
			return model.showError("description cannot be empty")
		}
		placeholder, result, err := model.store.CreateOptimistic(context.Background(), value)
		if err != nil {
			return model.showError(err.Error())
		}
		return model, waitForMutation(placeholder.ID, result)

	case inputEdit:
		if value == "" {
			return model.showError("description cannot be empty")
		}
		update := schema.TicketUpdate{Description: &value}
		result, err := model.store.UpdateOptimistic(context.Background(), editTicketID, update)
		if err != nil {
			return model.showError(mutationErrorText(err))
		}
		return model, waitForMutation(editTicketID, result)

	case inputSuper:
		gate := model.gate
		return model, func() tea.Msg {
			return toggleSettledMsg{err: gate.Toggle(context.Background(), true, value)}
		}
	}
	return model, nil
}

// Rendering.

func (model Model) viewBoard() string {
	var body strings.Builder
	body.WriteString(model.renderBoardHeader() + "\n")
	body.WriteString(model.renderColumns() + "\n")
	if model.board.activityOpen {
		body.WriteString(model.renderActivity() + "\n")
	} else if ticket, ok := model.selectedTicket(); ok {
		body.WriteString(model.renderDetail(ticket) + "\n")
	}
	body.WriteString(model.renderStatusBar())
	return body.String()
}

func (model Model) renderBoardHeader() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)

	name := "board"
	if project, ok := model.store.Project(); ok {
		name = project.Name
	}
	header := titleStyle.Render(name)

	if model.gate.Enabled() {
		badge := lipgloss.NewStyle().Foreground(model.theme.SuperBadge).Bold(true)
		header += "  " + badge.Render("[SUPER]")
	}
	if model.board.degraded || model.stream.Degraded() {
		badge := lipgloss.NewStyle().Foreground(model.theme.DegradedBadge)
		header += "  " + badge.Render("[sync degraded, r to refresh]")
	}
	if model.board.unread > 0 {
		badge := lipgloss.NewStyle().Foreground(model.theme.SuperBadge)
		header += "  " + badge.Render(fmt.Sprintf("(%d new activity)", model.board.unread))
	}
	return header
}

func (model Model) columnWidth() int {
	statuses := schema.Statuses()
	width := (model.width - len(statuses)) / len(statuses)
	if width < 16 {
		width = 16
	}
	return width
}

func (model Model) renderColumns() string {
	statuses := schema.Statuses()
	columns := columnsFor(model.store.Tickets())
	width := model.columnWidth()

	rendered := make([]string, 0, len(statuses))
	for index, status := range statuses {
		rendered = append(rendered, model.renderColumn(status, columns[status], width, index == model.board.column))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (model Model) renderColumn(status schema.Status, tickets []schema.Ticket, width int, active bool) string {
	headingStyle := lipgloss.NewStyle().
		Foreground(model.theme.StatusColor(status)).
		Bold(active).
		Width(width)

	var column strings.Builder
	column.WriteString(headingStyle.Render(fmt.Sprintf("%s (%d)", status.Label(), len(tickets))) + "\n")

	row := model.board.rows[status]
	for index, ticket := range tickets {
		column.WriteString(model.renderCard(ticket, width, active && index == row) + "\n")
	}

	borderColor := model.theme.BorderColor
	if active {
		borderColor = model.theme.StatusColor(status)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Width(width).
		Render(column.String())
}

func (model Model) renderCard(ticket schema.Ticket, width int, selected bool) string {
	style := lipgloss.NewStyle().Foreground(model.theme.NormalText).Width(width)
	if model.store.Pending(ticket.ID) {
		style = style.Foreground(model.theme.PendingText).Italic(true)
	}
	if selected {
		style = style.
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground)
	}

	// Cell-width truncation; byte slicing would split multibyte runes.
	description := ticket.Description
	if maxWidth := width - 2; maxWidth > 3 {
		description = ansi.Truncate(description, maxWidth, "…")
	}

	idLine := fmt.Sprintf("#%d", ticket.ID)
	if ticket.ID < 0 {
		idLine = "saving…"
	}
	card := description + "\n" + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(idLine)

	// Attribution lines are privileged; only elevated mode sees them.
	if model.gate.Enabled() && ticket.ID >= 0 {
		faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		creator := ticket.CreatorEmail
		if creator == "" {
			creator = fmt.Sprintf("user %d", ticket.CreatorID)
		}
		card += "\n" + faint.Render("by "+creator)
		if ticket.UpdatedByID != 0 {
			updater := ticket.UpdatedByEmail
			if updater == "" {
				updater = fmt.Sprintf("user %d", ticket.UpdatedByID)
			}
			card += "\n" + faint.Render("upd "+updater)
		}
	}
	return style.Render(card)
}

func (model Model) renderDetail(ticket schema.Ticket) string {
	width := model.width - 4
	if width < 20 {
		width = 76
	}
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var detail strings.Builder
	detail.WriteString(renderTerminalMarkdown(ticket.Description, model.theme, width))
	detail.WriteString("\n\n")
	detail.WriteString(faint.Render(fmt.Sprintf("status: %s", ticket.Status.Label())))
	if ticket.UpdatedAt != "" {
		detail.WriteString(faint.Render("  updated: " + ticket.UpdatedAt))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Width(model.width - 2).
		Render(detail.String())
}

func (model Model) renderActivity() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	titleStyle := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true)

	var pane strings.Builder
	pane.WriteString(titleStyle.Render("Activity") + "\n")
	if len(model.board.activities) == 0 {
		pane.WriteString(faint.Render("nothing yet") + "\n")
	}
	for _, activity := range model.board.activities {
		line := fmt.Sprintf("%s  %s", activity.Message, faint.Render(activity.ActorEmail))
		pane.WriteString(line + "\n")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Width(model.width - 2).
		Render(strings.TrimRight(pane.String(), "\n"))
}

func (model Model) renderStatusBar() string {
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	if model.board.mode != inputNone {
		label := map[inputMode]string{
			inputCreate: "New ticket: ",
			inputEdit:   "Edit description: ",
			inputSuper:  "Password: ",
		}[model.board.mode]
		return label + model.board.input.View() + "\n" +
			helpStyle.Render("Enter to confirm, Esc to cancel")
	}

	bar := helpStyle.Render("h/l column · j/k ticket · H/L move · n new · e edit · a activity · s super · r refresh · Esc projects · q quit")
	if model.errorText != "" {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		bar += "\n" + errorStyle.Render(model.errorText)
	}
	return bar
}
