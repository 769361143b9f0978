// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/corkboard-dev/corkboard/lib/clock"
	"github.com/corkboard-dev/corkboard/lib/schema"
	"github.com/corkboard-dev/corkboard/lib/testutil"
)

type recordingReconciler struct {
	calls chan struct{}
}

func (r *recordingReconciler) Reconcile(ctx context.Context) error {
	r.calls <- struct{}{}
	return nil
}

// streamServer is a test activity endpoint: it accepts one WebSocket
// at a time and relays frames pushed into the frames channel.
func streamServer(t *testing.T, frames <-chan []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for frame := range frames {
			if err := conn.Write(r.Context(), websocket.MessageText, frame); err != nil {
				return
			}
		}
		// Hold the socket open until the client goes away.
		conn.Read(r.Context())
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) func(int64) string {
	return func(int64) string {
		return "ws" + strings.TrimPrefix(server.URL, "http")
	}
}

func activityFrame(t *testing.T, projectID int64, message string) []byte {
	t.Helper()
	data, err := json.Marshal(schema.ActivityEvent{
		Event: "activity",
		Data:  schema.ActivityPayload{ProjectID: projectID, Message: message},
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newTestManager(streamURL func(int64) string, reconciler Reconciler) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(streamURL, reconciler, clock.Real(), logger)
}

func TestActivityTriggersReconcile(t *testing.T) {
	frames := make(chan []byte)
	server := streamServer(t, frames)
	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	manager := newTestManager(wsURL(server), reconciler)

	payloads := make(chan schema.ActivityPayload, 8)
	manager.SetActivityFunc(func(p schema.ActivityPayload) { payloads <- p })

	manager.Subscribe(context.Background(), 7)
	defer manager.Unsubscribe()

	frames <- activityFrame(t, 7, "alice moved a ticket")
	close(frames)

	testutil.RequireReceive(t, reconciler.calls, time.Second, "reconcile after activity")
	payload := testutil.RequireReceive(t, payloads, time.Second, "activity callback")
	if payload.ProjectID != 7 || payload.Message != "alice moved a ticket" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestActivityForOtherProjectIgnored(t *testing.T) {
	frames := make(chan []byte)
	server := streamServer(t, frames)
	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	manager := newTestManager(wsURL(server), reconciler)

	manager.Subscribe(context.Background(), 7)
	defer manager.Unsubscribe()

	frames <- activityFrame(t, 8, "unrelated project")
	testutil.RequireNoReceive(t, reconciler.calls, 100*time.Millisecond, "foreign activity must not reconcile")

	frames <- activityFrame(t, 7, "our project")
	close(frames)
	testutil.RequireReceive(t, reconciler.calls, time.Second, "reconcile for matching project")
}

func TestSingleReopenThenDegraded(t *testing.T) {
	dials := make(chan struct{}, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Close(websocket.StatusInternalError, "going away")
	}))
	t.Cleanup(server.Close)

	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	manager := newTestManager(wsURL(server), reconciler)

	degraded := make(chan struct{}, 1)
	manager.SetDegradedFunc(func() { degraded <- struct{}{} })

	manager.Subscribe(context.Background(), 7)
	defer manager.Unsubscribe()

	testutil.RequireReceive(t, degraded, 2*time.Second, "degraded callback")
	if !manager.Degraded() {
		t.Error("manager should report degraded")
	}

	// Initial dial plus exactly one reopen.
	testutil.RequireReceive(t, dials, time.Second, "first dial")
	testutil.RequireReceive(t, dials, time.Second, "reopen dial")
	testutil.RequireNoReceive(t, dials, 100*time.Millisecond, "no further dials after degrading")
}

func TestUnsubscribeStopsStreamWithoutDegrading(t *testing.T) {
	frames := make(chan []byte)
	server := streamServer(t, frames)
	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	manager := newTestManager(wsURL(server), reconciler)

	degraded := make(chan struct{}, 1)
	manager.SetDegradedFunc(func() { degraded <- struct{}{} })

	manager.Subscribe(context.Background(), 7)
	manager.Unsubscribe()
	close(frames)

	testutil.RequireNoReceive(t, degraded, 100*time.Millisecond, "clean unsubscribe must not degrade")
	if manager.Degraded() {
		t.Error("manager should not report degraded after Unsubscribe")
	}
}

func TestKeepAliveSendsTextPing(t *testing.T) {
	inbound := make(chan []byte, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			inbound <- data
		}
	}))
	t.Cleanup(server.Close)

	fake := clock.Fake(time.Now())
	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewManager(wsURL(server), reconciler, fake, logger)

	manager.Subscribe(context.Background(), 7)
	defer manager.Unsubscribe()

	// Wait for the keep-alive loop to arm its timer before advancing
	// past the ping interval.
	deadline := time.Now().Add(2 * time.Second)
	for fake.PendingCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("keep-alive timer never armed")
		}
		time.Sleep(time.Millisecond)
	}
	fake.Advance(defaultPingInterval)

	frame := testutil.RequireReceive(t, inbound, time.Second, "keep-alive frame")
	if string(frame) != `{"event":"ping"}` {
		t.Errorf("keep-alive frame = %s", frame)
	}
}

func TestResubscribeClearsDegraded(t *testing.T) {
	refuse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	t.Cleanup(refuse.Close)

	reconciler := &recordingReconciler{calls: make(chan struct{}, 8)}
	manager := newTestManager(wsURL(refuse), reconciler)

	degraded := make(chan struct{}, 1)
	manager.SetDegradedFunc(func() { degraded <- struct{}{} })

	manager.Subscribe(context.Background(), 7)
	testutil.RequireReceive(t, degraded, 2*time.Second, "degraded callback")

	frames := make(chan []byte)
	healthy := streamServer(t, frames)
	manager.streamURL = wsURL(healthy)
	manager.Subscribe(context.Background(), 7)
	defer manager.Unsubscribe()
	defer close(frames)

	if manager.Degraded() {
		t.Error("resubscribing should clear the degraded flag")
	}
}
