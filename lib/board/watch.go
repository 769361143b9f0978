// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/corkboard-dev/corkboard/lib/clock"
	"github.com/corkboard-dev/corkboard/lib/schema"
)

// Reconciler is what the watch drives when remote activity arrives.
// Satisfied by [Store].
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// defaultPingInterval keeps intermediaries from idling out the
// activity socket.
const defaultPingInterval = 30 * time.Second

// Manager owns the activity stream subscription for the open project.
// It holds one WebSocket at a time; switching projects tears the old
// socket down before dialing the new one. A dropped socket gets a
// single reopen attempt, after which the manager goes degraded and
// stays subscribed-on-paper until the next Subscribe call.
type Manager struct {
	streamURL    func(projectID int64) string
	reconciler   Reconciler
	clk          clock.Clock
	logger       *slog.Logger
	pingInterval time.Duration

	// onDegraded and onActivity are set during wiring, before the
	// first Subscribe.
	onDegraded func()
	onActivity func(schema.ActivityPayload)

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	degraded bool
}

// NewManager creates a Manager. streamURL maps a project id to its
// activity stream endpoint; pass the gateway's ActivityStreamURL.
func NewManager(streamURL func(projectID int64) string, reconciler Reconciler, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		streamURL:    streamURL,
		reconciler:   reconciler,
		clk:          clk,
		logger:       logger,
		pingInterval: defaultPingInterval,
	}
}

// SetDegradedFunc registers the callback fired when the stream is
// given up on. Call before Subscribe.
func (m *Manager) SetDegradedFunc(fn func()) { m.onDegraded = fn }

// SetActivityFunc registers the callback fired for every activity
// event on the subscribed project, degraded transitions aside. Call
// before Subscribe.
func (m *Manager) SetActivityFunc(fn func(schema.ActivityPayload)) { m.onActivity = fn }

// Degraded reports whether live updates have been given up on for the
// current subscription.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Subscribe opens the activity stream for the project, replacing any
// existing subscription. The previous stream is fully torn down before
// the new one dials, so events can never arrive for a project the
// caller has left.
func (m *Manager) Subscribe(ctx context.Context, projectID int64) {
	m.Unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.degraded = false
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.run(runCtx, projectID)
	}()
}

// Unsubscribe tears down the current subscription, if any, and waits
// for its goroutine to exit. Safe to call when not subscribed.
func (m *Manager) Unsubscribe() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// run serves one subscription: the initial connection plus at most one
// reopen. More than one consecutive failure means the network or the
// server is genuinely unhappy and periodic dial retries would just
// flap the UI, so the manager goes degraded instead. The store still
// reconciles on the user's own mutations; only remote edits stop
// arriving until resubscribe.
func (m *Manager) run(ctx context.Context, projectID int64) {
	for attempt := 0; attempt < 2; attempt++ {
		err := m.connectAndServe(ctx, projectID)
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("activity stream dropped",
			"project_id", projectID, "attempt", attempt+1, "error", err)
	}

	m.mu.Lock()
	m.degraded = true
	m.mu.Unlock()
	m.logger.Warn("activity stream degraded, live updates suspended", "project_id", projectID)
	if m.onDegraded != nil {
		m.onDegraded()
	}
}

// connectAndServe dials the stream and reads events until the
// connection drops or ctx is cancelled.
func (m *Manager) connectAndServe(ctx context.Context, projectID int64) error {
	url := m.streamURL(projectID)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dialing activity stream: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "unsubscribing")

	m.logger.Info("activity stream open", "project_id", projectID)

	pingCtx, stopPings := context.WithCancel(ctx)
	defer stopPings()
	go m.keepAlive(pingCtx, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("reading activity stream: %w", err)
		}

		var event schema.ActivityEvent
		if err := json.Unmarshal(data, &event); err != nil {
			m.logger.Warn("unparseable activity event", "error", err)
			continue
		}
		if event.Event != "activity" {
			continue
		}
		// The server scopes the socket by project, but a defective
		// frame for another project must not trigger a refetch here.
		if event.Data.ProjectID != projectID {
			continue
		}

		if m.onActivity != nil {
			m.onActivity(event.Data)
		}
		if err := m.reconciler.Reconcile(ctx); err != nil {
			m.logger.Warn("reconcile after activity failed", "error", err)
		}
	}
}

// keepAlive sends a periodic text ping so idle connections survive
// proxies with short timeouts. The server also uses inbound frames to
// track client presence, which a control-frame ping would bypass.
func (m *Manager) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ping := []byte(`{"event":"ping"}`)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clk.After(m.pingInterval):
			if err := conn.Write(ctx, websocket.MessageText, ping); err != nil {
				return
			}
		}
	}
}
