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

	"github.com/corkboard-dev/corkboard/lib/schema"
)

type projectsState struct {
	list    []schema.Project
	cursor  int
	loading bool

	creating  bool
	nameInput textinput.Model
}

func newProjectsState() projectsState {
	nameInput := textinput.New()
	nameInput.Placeholder = "project name"
	nameInput.CharLimit = 120
	nameInput.Width = 40
	return projectsState{loading: true, nameInput: nameInput}
}

func (state *projectsState) clampCursor() {
	if state.cursor >= len(state.list) {
		state.cursor = len(state.list) - 1
	}
	if state.cursor < 0 {
		state.cursor = 0
	}
}

type projectCreatedMsg struct {
	project schema.Project
	err     error
}

func (model Model) updateProjects(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.projects.creating {
		return model.updateProjectCreate(message)
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Up):
		if model.projects.cursor > 0 {
			model.projects.cursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.projects.cursor < len(model.projects.list)-1 {
			model.projects.cursor++
		}
	case key.Matches(message, model.keys.Select):
		if len(model.projects.list) > 0 {
			project := model.projects.list[model.projects.cursor]
			return model, model.openProject(project.ID)
		}
	case key.Matches(message, model.keys.NewTicket):
		model.projects.creating = true
		return model, model.projects.nameInput.Focus()
	case key.Matches(message, model.keys.Refresh):
		model.projects.loading = true
		return model, model.loadProjects()
	case key.Matches(message, model.keys.Logout):
		return model.logout()
	}
	return model, nil
}

func (model Model) updateProjectCreate(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "esc":
		model.projects.creating = false
		model.projects.nameInput.SetValue("")
		model.projects.nameInput.Blur()
		return model, nil
	case "enter":
		name := strings.TrimSpace(model.projects.nameInput.Value())
		if name == "" {
			return model.showError("project name cannot be empty")
		}
		model.projects.creating = false
		model.projects.nameInput.SetValue("")
		model.projects.nameInput.Blur()
		directory := model.directory
		return model, func() tea.Msg {
			project, err := directory.CreateProject(context.Background(), name)
			return projectCreatedMsg{project: project, err: err}
		}
	}
	var cmd tea.Cmd
	model.projects.nameInput, cmd = model.projects.nameInput.Update(message)
	return model, cmd
}

func (model Model) handleProjectCreated(message projectCreatedMsg) (tea.Model, tea.Cmd) {
	if message.err != nil {
		return model.showError("creating project: " + message.err.Error())
	}
	model.projects.list = append(model.projects.list, message.project)
	model.projects.cursor = len(model.projects.list) - 1
	return model, nil
}

func (model Model) logout() (tea.Model, tea.Cmd) {
	auth := model.auth
	model.stream.Unsubscribe()
	model.view = viewLogin
	model.login = newLoginState()
	model.projects = newProjectsState()
	model.board = newBoardState()
	return model, tea.Batch(
		func() tea.Msg {
			auth.Logout(context.Background())
			return nil
		},
		model.login.email.Focus(),
	)
}

func (model Model) viewProjects() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	selectedStyle := lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)
	faintStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var body strings.Builder
	header := "Projects"
	if user, ok := model.auth.User(); ok {
		header += faintStyle.Render("  " + user.Email)
	}
	body.WriteString(titleStyle.Render(header) + "\n\n")

	switch {
	case model.projects.loading:
		body.WriteString(faintStyle.Render("loading...") + "\n")
	case len(model.projects.list) == 0:
		body.WriteString(faintStyle.Render("no projects yet, press n to create one") + "\n")
	default:
		for index, project := range model.projects.list {
			line := fmt.Sprintf("%-40s %s", project.Name, faintStyle.Render(fmt.Sprintf("#%d", project.ID)))
			if index == model.projects.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			body.WriteString(line + "\n")
		}
	}

	if model.projects.creating {
		body.WriteString("\nNew project: " + model.projects.nameInput.View() + "\n")
		body.WriteString(helpStyle.Render("Enter to create, Esc to cancel") + "\n")
	} else {
		body.WriteString("\n" + helpStyle.Render("Enter open · n new · r refresh · C-l log out · q quit") + "\n")
	}
	if model.errorText != "" {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		body.WriteString(errorStyle.Render(model.errorText) + "\n")
	}
	return body.String()
}
