// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability holds the single elevated-mode flag gating which
// ticket fields the presentation layer shows and edits. The flag is
// advisory: the server independently re-checks every privileged
// operation, so a stale or tampered flag can never grant anything.
package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// API is the subset of the gateway the gate consumes.
type API interface {
	SuperToggle(ctx context.Context) (bool, error)
	SetSuperToggle(ctx context.Context, enable bool, password string) (bool, error)
}

// ToggleError reports a rejected toggle call (bad credential or
// server-side policy). The local flag is unchanged.
type ToggleError struct {
	Err error
}

func (e *ToggleError) Error() string { return fmt.Sprintf("capability: toggling: %v", e.Err) }
func (e *ToggleError) Unwrap() error { return e.Err }

// Gate is the process-wide elevated-mode flag. Register Reset as a
// session logout hook so the flag drops whenever the session goes
// anonymous.
type Gate struct {
	api    API
	logger *slog.Logger

	mu      sync.Mutex
	enabled bool
}

// NewGate creates a Gate with the flag down.
func NewGate(api API, logger *slog.Logger) *Gate {
	return &Gate{api: api, logger: logger}
}

// Enabled reports the current flag value.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Fetch reads the flag from the server. Called on login and on session
// restore. On failure the local flag is unchanged.
func (g *Gate) Fetch(ctx context.Context) error {
	enabled, err := g.api.SuperToggle(ctx)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
	return nil
}

// Toggle asks the server to change the flag. The credential is
// validated server-side only when enabling; disabling never requires
// it. On success the local flag takes the server's returned value,
// not the requested one, in case the server enforces additional
// policy. On failure the flag is unchanged and a *ToggleError is
// returned.
func (g *Gate) Toggle(ctx context.Context, wantEnabled bool, credential string) error {
	enabled, err := g.api.SetSuperToggle(ctx, wantEnabled, credential)
	if err != nil {
		return &ToggleError{Err: err}
	}
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
	g.logger.Info("elevated mode changed", "enabled", enabled)
	return nil
}

// Reset drops the flag. Wired as a session logout hook.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.enabled = false
	g.mu.Unlock()
}
