// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginStage is where the login flow is: entering the email or the
// emailed one-time code.
type loginStage int

const (
	stageEmail loginStage = iota
	stageCode
)

type loginState struct {
	stage loginStage
	email textinput.Model
	code  textinput.Model
	busy  bool
}

func newLoginState() loginState {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40

	code := textinput.New()
	code.Placeholder = "123456"
	code.CharLimit = 6
	code.Width = 10

	return loginState{email: email, code: code}
}

func (model Model) updateLogin(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case codeRequestedMsg:
		model.login.busy = false
		if message.err != nil {
			return model.showError("requesting code: " + message.err.Error())
		}
		model.login.stage = stageCode
		return model, model.login.code.Focus()

	case loginVerifiedMsg:
		model.login.busy = false
		if message.err != nil {
			return model.showError("verifying code: " + message.err.Error())
		}
		model.view = viewProjects
		commands := []tea.Cmd{model.fetchCapability()}
		if model.initialProjectID != 0 {
			commands = append(commands, model.openProject(model.initialProjectID))
		} else {
			commands = append(commands, model.loadProjects())
		}
		return model, tea.Batch(commands...)

	case tea.KeyMsg:
		// Only ctrl+c quits here: every printable rune belongs to the
		// focused text input.
		switch message.String() {
		case "ctrl+c":
			return model, tea.Quit
		case "enter":
			return model.submitLogin()
		case "esc":
			if model.login.stage == stageCode {
				model.login.stage = stageEmail
				model.login.code.SetValue("")
				model.login.code.Blur()
				return model, model.login.email.Focus()
			}
			return model, nil
		}
		var cmd tea.Cmd
		if model.login.stage == stageEmail {
			model.login.email, cmd = model.login.email.Update(message)
		} else {
			model.login.code, cmd = model.login.code.Update(message)
		}
		return model, cmd
	}
	return model, nil
}

func (model Model) submitLogin() (tea.Model, tea.Cmd) {
	if model.login.busy {
		return model, nil
	}
	if model.login.stage == stageEmail {
		email := strings.TrimSpace(model.login.email.Value())
		if email == "" || !strings.Contains(email, "@") {
			return model.showError("enter a valid email address")
		}
		model.login.busy = true
		auth := model.auth
		return model, func() tea.Msg {
			return codeRequestedMsg{err: auth.RequestCode(context.Background(), email)}
		}
	}

	code := strings.TrimSpace(model.login.code.Value())
	if code == "" {
		return model.showError("enter the code from your email")
	}
	model.login.busy = true
	auth := model.auth
	email := strings.TrimSpace(model.login.email.Value())
	return model, func() tea.Msg {
		return loginVerifiedMsg{err: auth.VerifyCode(context.Background(), email, code)}
	}
}

func (model Model) viewLogin() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	var body strings.Builder
	body.WriteString(titleStyle.Render("corkboard") + "\n\n")

	if model.login.stage == stageEmail {
		body.WriteString("Email address:\n")
		body.WriteString(model.login.email.View() + "\n\n")
		body.WriteString(helpStyle.Render("Enter to request a login code"))
	} else {
		body.WriteString("Code sent to " + model.login.email.Value() + "\n")
		body.WriteString(model.login.code.View() + "\n\n")
		body.WriteString(helpStyle.Render("Enter to log in, Esc to change email"))
	}
	if model.login.busy {
		body.WriteString("\n" + helpStyle.Render("waiting for server..."))
	}
	if model.errorText != "" {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		body.WriteString("\n\n" + errorStyle.Render(model.errorText))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(1, 3).
		Render(body.String())

	if model.width == 0 {
		return box
	}
	return lipgloss.Place(model.width, model.height, lipgloss.Center, lipgloss.Center, box)
}
