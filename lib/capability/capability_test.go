// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeToggleAPI struct {
	fetchValue bool
	fetchErr   error

	setValue bool
	setErr   error

	lastEnable   bool
	lastPassword string
}

func (f *fakeToggleAPI) SuperToggle(ctx context.Context) (bool, error) {
	return f.fetchValue, f.fetchErr
}

func (f *fakeToggleAPI) SetSuperToggle(ctx context.Context, enable bool, password string) (bool, error) {
	f.lastEnable = enable
	f.lastPassword = password
	return f.setValue, f.setErr
}

func newTestGate(api API) *Gate {
	return NewGate(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchAdoptsServerValue(t *testing.T) {
	api := &fakeToggleAPI{fetchValue: true}
	gate := newTestGate(api)

	if gate.Enabled() {
		t.Fatal("flag should start down")
	}
	if err := gate.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !gate.Enabled() {
		t.Error("flag should adopt the server value")
	}
}

func TestToggleRejectionLeavesFlagUnchanged(t *testing.T) {
	api := &fakeToggleAPI{setErr: errors.New("invalid password")}
	gate := newTestGate(api)

	err := gate.Toggle(context.Background(), true, "wrongpass")
	var toggleErr *ToggleError
	if !errors.As(err, &toggleErr) {
		t.Fatalf("expected *ToggleError, got %v", err)
	}
	if gate.Enabled() {
		t.Error("flag must stay false after a rejected toggle")
	}
}

func TestToggleAdoptsServerValueNotRequest(t *testing.T) {
	// Server policy may override the requested value.
	api := &fakeToggleAPI{setValue: false}
	gate := newTestGate(api)

	if err := gate.Toggle(context.Background(), true, "hunter2"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if gate.Enabled() {
		t.Error("flag should adopt the server's returned value, not the request")
	}
	if !api.lastEnable || api.lastPassword != "hunter2" {
		t.Errorf("request not forwarded: enable=%v password=%q", api.lastEnable, api.lastPassword)
	}
}

func TestResetDropsFlag(t *testing.T) {
	api := &fakeToggleAPI{setValue: true}
	gate := newTestGate(api)
	if err := gate.Toggle(context.Background(), true, "pw"); err != nil {
		t.Fatal(err)
	}
	gate.Reset()
	if gate.Enabled() {
		t.Error("Reset should drop the flag")
	}
}
