// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/corkboard-dev/corkboard/lib/board"
	"github.com/corkboard-dev/corkboard/lib/schema"
)

// Auth is the session surface the UI drives.
type Auth interface {
	IsAuthenticated() bool
	User() (schema.User, bool)
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	Logout(ctx context.Context)
}

// Board is the ticket store surface the UI renders from. Satisfied by
// [board.Store].
type Board interface {
	Load(ctx context.Context, projectID int64) error
	Reconcile(ctx context.Context) error
	Project() (schema.Project, bool)
	Tickets() []schema.Ticket
	Pending(ticketID int64) bool
	CreateOptimistic(ctx context.Context, description string) (schema.Ticket, <-chan error, error)
	UpdateOptimistic(ctx context.Context, ticketID int64, update schema.TicketUpdate) (<-chan error, error)
	Subscribe() <-chan board.Event
}

// Stream is the activity subscription surface. Satisfied by
// [board.Manager].
type Stream interface {
	Subscribe(ctx context.Context, projectID int64)
	Unsubscribe()
	Degraded() bool
}

// Capability is the elevated-mode flag surface.
type Capability interface {
	Enabled() bool
	Fetch(ctx context.Context) error
	Toggle(ctx context.Context, wantEnabled bool, credential string) error
}

// Directory lists and creates projects.
type Directory interface {
	Projects(ctx context.Context) ([]schema.Project, error)
	CreateProject(ctx context.Context, name string) (schema.Project, error)
}

// Feed reads the recent activity log.
type Feed interface {
	Activities(ctx context.Context, limit int) ([]schema.Activity, error)
}

// Config wires a Model to its backends.
type Config struct {
	Auth      Auth
	Board     Board
	Stream    Stream
	Gate      Capability
	Directory Directory
	Feed      Feed
	Logger    *slog.Logger

	// InitialProjectID opens this project directly after login or
	// restore. Zero shows the project list.
	InitialProjectID int64

	// ActivityLimit caps the feed fetch.
	ActivityLimit int
}

// viewID identifies which top-level screen the model shows.
type viewID int

const (
	viewLogin viewID = iota
	viewProjects
	viewBoard
)

// Messages delivered from outside the bubbletea loop via Program.Send.
type (
	// SessionExpiredMsg is sent when the server rejects the session
	// token. The UI returns to the login screen.
	SessionExpiredMsg struct{}

	// SyncDegradedMsg is sent when the activity stream gives up. The
	// board shows a stale-data indicator until refresh or resubscribe.
	SyncDegradedMsg struct{}

	// ActivityMsg is sent for every live activity event on the open
	// project. It feeds the unread counter.
	ActivityMsg struct {
		Payload schema.ActivityPayload
	}
)

// Internal messages.
type (
	codeRequestedMsg struct{ err error }
	loginVerifiedMsg struct{ err error }

	projectsLoadedMsg struct {
		projects []schema.Project
		err      error
	}
	projectOpenedMsg struct {
		projectID int64
		err       error
	}

	storeEventMsg struct {
		event board.Event
		ok    bool
	}
	mutationSettledMsg struct {
		ticketID int64
		err      error
	}
	toggleSettledMsg struct{ err error }

	activitiesLoadedMsg struct {
		items []schema.Activity
		err   error
	}

	errorFadeMsg struct{}
)

const errorFadeDelay = 4 * time.Second

// Model is the bubbletea model for the whole client: login, project
// selection, and the status board.
type Model struct {
	auth      Auth
	store     Board
	stream    Stream
	gate      Capability
	directory Directory
	feed      Feed
	logger    *slog.Logger

	keys  KeyMap
	theme Theme

	width  int
	height int

	view viewID

	login    loginState
	projects projectsState
	board    boardState

	eventChannel <-chan board.Event

	initialProjectID int64
	activityLimit    int

	// errorText shows transient failures in the status bar, cleared by
	// errorFadeMsg.
	errorText string
}

// NewModel creates the UI model. The session decides the first screen:
// a restored session skips login.
func NewModel(cfg Config) Model {
	model := Model{
		auth:             cfg.Auth,
		store:            cfg.Board,
		stream:           cfg.Stream,
		gate:             cfg.Gate,
		directory:        cfg.Directory,
		feed:             cfg.Feed,
		logger:           cfg.Logger,
		keys:             DefaultKeyMap,
		theme:            DefaultTheme,
		view:             viewLogin,
		login:            newLoginState(),
		projects:         newProjectsState(),
		board:            newBoardState(),
		eventChannel:     cfg.Board.Subscribe(),
		initialProjectID: cfg.InitialProjectID,
		activityLimit:    cfg.ActivityLimit,
	}
	if cfg.Auth.IsAuthenticated() {
		model.view = viewProjects
	}
	return model
}

func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{listenForStoreEvent(model.eventChannel)}
	if model.view == viewProjects {
		commands = append(commands, model.fetchCapability())
		if model.initialProjectID != 0 {
			commands = append(commands, model.openProject(model.initialProjectID))
		} else {
			commands = append(commands, model.loadProjects())
		}
	} else {
		commands = append(commands, model.login.email.Focus())
	}
	return tea.Batch(commands...)
}

// listenForStoreEvent blocks until the store publishes a change, then
// resubscribes itself from Update.
func listenForStoreEvent(channel <-chan board.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		return storeEventMsg{event: event, ok: ok}
	}
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case SessionExpiredMsg:
		return model.handleSessionExpired()

	case SyncDegradedMsg:
		model.board.degraded = true
		return model, nil

	case ActivityMsg:
		if !model.board.activityOpen {
			model.board.unread++
		}
		return model, nil

	case storeEventMsg:
		if !message.ok {
			return model, nil
		}
		model.board.clampCursors(model.store.Tickets())
		return model, listenForStoreEvent(model.eventChannel)

	case mutationSettledMsg:
		if message.err != nil {
			return model.showError(mutationErrorText(message.err))
		}
		return model, nil

	case toggleSettledMsg:
		if message.err != nil {
			return model.showError("super mode: " + message.err.Error())
		}
		return model, nil

	case activitiesLoadedMsg:
		if message.err != nil {
			return model.showError("loading activity: " + message.err.Error())
		}
		model.board.activities = message.items
		return model, nil

	case errorFadeMsg:
		model.errorText = ""
		return model, nil

	case codeRequestedMsg, loginVerifiedMsg:
		return model.updateLogin(message)

	case projectsLoadedMsg:
		model.projects.loading = false
		if message.err != nil {
			return model.showError("loading projects: " + message.err.Error())
		}
		model.projects.list = message.projects
		model.projects.clampCursor()
		return model, nil

	case projectCreatedMsg:
		return model.handleProjectCreated(message)

	case projectOpenedMsg:
		if message.err != nil {
			return model.showError("opening project: " + message.err.Error())
		}
		model.view = viewBoard
		model.board.degraded = false
		model.board.unread = 0
		return model, model.subscribeStream(message.projectID)

	case tea.KeyMsg:
		switch model.view {
		case viewLogin:
			return model.updateLogin(message)
		case viewProjects:
			return model.updateProjects(message)
		case viewBoard:
			return model.updateBoard(message)
		}
	}
	return model, nil
}

func (model Model) View() string {
	switch model.view {
	case viewLogin:
		return model.viewLogin()
	case viewProjects:
		return model.viewProjects()
	case viewBoard:
		return model.viewBoard()
	}
	return ""
}

// showError surfaces a transient error in the status bar and schedules
// its fade.
func (model Model) showError(text string) (tea.Model, tea.Cmd) {
	model.errorText = text
	return model, tea.Tick(errorFadeDelay, func(time.Time) tea.Msg {
		return errorFadeMsg{}
	})
}

// mutationErrorText folds the mutation error taxonomy into a status
// line.
func mutationErrorText(err error) string {
	if errors.Is(err, board.ErrMutationInFlight) {
		return "a change for this ticket is still in flight, retry shortly"
	}
	var mutationErr *board.MutationError
	if errors.As(err, &mutationErr) {
		return "change rejected: " + mutationErr.Err.Error()
	}
	return err.Error()
}

func (model Model) handleSessionExpired() (tea.Model, tea.Cmd) {
	model.stream.Unsubscribe()
	model.view = viewLogin
	model.login = newLoginState()
	model.board = newBoardState()
	model.projects = newProjectsState()
	model.errorText = "session expired, log in again"
	return model, model.login.email.Focus()
}

// Commands.

func (model Model) fetchCapability() tea.Cmd {
	gate := model.gate
	logger := model.logger
	return func() tea.Msg {
		// Advisory flag only; the board works without it.
		if err := gate.Fetch(context.Background()); err != nil {
			logger.Warn("fetching capability flag failed", "error", err)
		}
		return nil
	}
}

func (model Model) loadProjects() tea.Cmd {
	directory := model.directory
	return func() tea.Msg {
		projects, err := directory.Projects(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (model Model) openProject(projectID int64) tea.Cmd {
	store := model.store
	return func() tea.Msg {
		err := store.Load(context.Background(), projectID)
		return projectOpenedMsg{projectID: projectID, err: err}
	}
}

func (model Model) subscribeStream(projectID int64) tea.Cmd {
	stream := model.stream
	return func() tea.Msg {
		stream.Subscribe(context.Background(), projectID)
		return nil
	}
}

func (model Model) loadActivities() tea.Cmd {
	feed := model.feed
	limit := model.activityLimit
	return func() tea.Msg {
		items, err := feed.Activities(context.Background(), limit)
		return activitiesLoadedMsg{items: items, err: err}
	}
}

// waitForMutation adapts a store result channel into a tea message.
func waitForMutation(ticketID int64, result <-chan error) tea.Cmd {
	return func() tea.Msg {
		return mutationSettledMsg{ticketID: ticketID, err: <-result}
	}
}
