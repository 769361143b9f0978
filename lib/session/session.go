// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// State identifies where the session is in its lifecycle.
type State int

const (
	// StateAnonymous means no token is held. All other components
	// are inert.
	StateAnonymous State = iota
	// StateCodeRequested means a one-time code has been requested
	// and the client is waiting for the user to enter it.
	StateCodeRequested
	// StateAuthenticated means a token is held. The user identity
	// may still be unresolved if a restore probe soft-failed.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateCodeRequested:
		return "code-requested"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// AuthAPI is the subset of the gateway the session consumes.
type AuthAPI interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (schema.AuthResponse, error)
	CurrentUser(ctx context.Context) (schema.User, error)
	Logout(ctx context.Context) error
}

// Session owns the authentication token and user identity. It is safe
// for concurrent use: the gateway reads the token from request
// goroutines while the UI drives state transitions.
type Session struct {
	api      AuthAPI
	filePath string
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	token string
	user  schema.User

	// logoutHooks run on every transition to anonymous, releasing
	// dependent state (capability flag, ticket store).
	logoutHooks []func()
}

// New creates a Session in the anonymous state. filePath is where the
// session persists across runs; pass the config's session file.
func New(api AuthAPI, filePath string, logger *slog.Logger) *Session {
	return &Session{
		api:      api,
		filePath: filePath,
		logger:   logger,
		state:    StateAnonymous,
	}
}

// Token returns the current bearer token, or empty when anonymous.
// Implements the gateway's TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns the resolved user identity. The second return is false
// while anonymous or when a restored session has not yet resolved its
// user.
func (s *Session) User() (schema.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.user.ID != 0
}

// OnLogout registers a hook invoked on every transition to anonymous.
// Hooks run outside the session lock, in registration order. Register
// everything during wiring, before concurrent use begins.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutHooks = append(s.logoutHooks, fn)
}

// RequestCode asks the server to email a one-time code. On success the
// session moves to CodeRequested; on failure it is unchanged and a
// *RequestError is returned.
func (s *Session) RequestCode(ctx context.Context, email string) error {
	if err := s.api.RequestCode(ctx, email); err != nil {
		return &RequestError{Err: err}
	}
	s.mu.Lock()
	s.state = StateCodeRequested
	s.mu.Unlock()
	s.logger.Info("login code requested", "email", email)
	return nil
}

// VerifyCode exchanges the emailed code for a session token. On
// success the session becomes authenticated and is persisted to disk;
// on failure the state is unchanged and a *VerifyError is returned so
// the user can re-enter the code.
func (s *Session) VerifyCode(ctx context.Context, email, code string) error {
	response, err := s.api.VerifyCode(ctx, email, code)
	if err != nil {
		return &VerifyError{Err: err}
	}

	user := schema.User{ID: response.UserID, Email: email}
	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = response.Token
	s.user = user
	s.mu.Unlock()

	if err := writeSessionFile(s.filePath, persistedSession{Token: response.Token, User: user}); err != nil {
		// The in-memory session is fine; only persistence across
		// restarts is lost.
		s.logger.Warn("persisting session failed", "path", s.filePath, "error", err)
	}
	s.logger.Info("authenticated", "user_id", user.ID, "email", user.Email)
	return nil
}

// Restore loads a persisted session from disk, if one exists, and
// probes the server for the identity behind it. No session file is not
// an error; the session simply stays anonymous.
//
// When the probe fails the token is retained and a *RestoreError is
// returned: the failure may be a network blip, and the retained token
// keeps a possibly-valid session alive for retry. The authenticated
// state observed before the call is preserved either way.
func (s *Session) Restore(ctx context.Context) error {
	persisted, found, err := readSessionFile(s.filePath)
	if err != nil {
		s.logger.Warn("reading session file failed", "path", s.filePath, "error", err)
		return &RestoreError{Err: err}
	}
	if !found {
		return nil
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = persisted.Token
	s.user = persisted.User
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("session restore probe failed, retaining token", "error", err)
		return &RestoreError{Err: err}
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.logger.Info("session restored", "user_id", user.ID, "email", user.Email)
	return nil
}

// Logout ends the session. The server is notified best-effort, and a
// notification failure is logged and deliberately swallowed; local
// state, the session file, and all dependent state are cleared
// unconditionally regardless of the server's response.
func (s *Session) Logout(ctx context.Context) {
	if s.IsAuthenticated() {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Debug("server logout notification failed", "error", err)
		}
	}
	s.clear()
	s.logger.Info("logged out")
}

// Invalidate drops the session to anonymous without notifying the
// server. This is the gateway's auth-expiry hook: the server already
// rejected the token, so there is nothing to release remotely.
func (s *Session) Invalidate() {
	s.clear()
	s.logger.Info("session invalidated by server")
}

// clear resets local state to anonymous, removes the session file, and
// runs the logout hooks.
func (s *Session) clear() {
	s.mu.Lock()
	s.state = StateAnonymous
	s.token = ""
	s.user = schema.User{}
	hooks := s.logoutHooks
	s.mu.Unlock()

	if err := removeSessionFile(s.filePath); err != nil {
		s.logger.Warn("removing session file failed", "path", s.filePath, "error", err)
	}
	for _, hook := range hooks {
		hook()
	}
}
