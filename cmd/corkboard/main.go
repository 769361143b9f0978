// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// corkboard is a terminal client for the corkboard ticket server:
// log in with an emailed one-time code, pick a project, and work a
// five-column status board that updates live as teammates edit.
//
// Edits apply optimistically: the board shows a change immediately
// and rolls it back if the server rejects it. Remote changes arrive
// over a WebSocket activity stream; when that stream cannot be kept
// open the board flags itself stale instead of silently diverging.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/corkboard-dev/corkboard/lib/board"
	"github.com/corkboard-dev/corkboard/lib/boardui"
	"github.com/corkboard-dev/corkboard/lib/capability"
	"github.com/corkboard-dev/corkboard/lib/clock"
	"github.com/corkboard-dev/corkboard/lib/config"
	"github.com/corkboard-dev/corkboard/lib/gateway"
	"github.com/corkboard-dev/corkboard/lib/schema"
	"github.com/corkboard-dev/corkboard/lib/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// sessionTokens breaks the construction cycle between the gateway
// (which reads the token on every call) and the session (which is
// built on top of the gateway).
type sessionTokens struct {
	session *session.Session
}

func (t *sessionTokens) Token() string {
	if t.session == nil {
		return ""
	}
	return t.session.Token()
}

func run() error {
	var configPath string
	var serverURL string
	var projectID int64
	var logOutput string

	flagSet := pflag.NewFlagSet("corkboard", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $CORKBOARD_CONFIG)")
	flagSet.StringVar(&serverURL, "server", "", "server base URL (overrides config)")
	flagSet.Int64Var(&projectID, "project", 0, "open this project directly, skipping the project list")
	flagSet.StringVar(&logOutput, "log-output", "", "write log records to this file instead of stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := buildLogger(logOutput)
	if err != nil {
		return err
	}
	defer closeLog()

	// Wiring. The session is the gateway's token source, the store and
	// gate hang off the session's logout hooks, and the stream manager
	// drives the store's reconcile.
	tokens := &sessionTokens{}
	client := gateway.New(cfg.ServerURL, cfg.RequestTimeout.Std(), tokens, logger)
	sess := session.New(client, cfg.SessionFile, logger)
	tokens.session = sess

	store := board.NewStore(client, logger)
	stream := board.NewManager(client.ActivityStreamURL, store, clock.Real(), logger)
	gate := capability.NewGate(client, logger)
	sess.OnLogout(gate.Reset)
	sess.OnLogout(store.Reset)
	sess.OnLogout(stream.Unsubscribe)

	// Try to pick up a previous session before the UI starts. A soft
	// failure keeps the token; the first authorized call settles it.
	restoreCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout.Std())
	if err := sess.Restore(restoreCtx); err != nil {
		logger.Warn("session restore incomplete", "error", err)
	}
	cancel()

	model := boardui.NewModel(boardui.Config{
		Auth:             sess,
		Board:            store,
		Stream:           stream,
		Gate:             gate,
		Directory:        client,
		Feed:             client,
		Logger:           logger,
		InitialProjectID: projectID,
		ActivityLimit:    cfg.ActivityLimit,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Cross-cutting signals into the event loop. These fire from
	// gateway and stream goroutines, never during construction.
	client.SetAuthExpiredFunc(func() {
		sess.Invalidate()
		program.Send(boardui.SessionExpiredMsg{})
	})
	stream.SetDegradedFunc(func() {
		program.Send(boardui.SyncDegradedMsg{})
	})
	stream.SetActivityFunc(func(payload schema.ActivityPayload) {
		program.Send(boardui.ActivityMsg{Payload: payload})
	})

	defer stream.Unsubscribe()
	_, err = program.Run()
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// buildLogger returns a text-handler logger on stderr, or on the given
// file when --log-output is set. Stderr logging is warn-level so the
// TUI is not scribbled over; file logging keeps everything.
func buildLogger(logOutput string) (*slog.Logger, func(), error) {
	if logOutput == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		return slog.New(handler), func() {}, nil
	}
	file, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log output: %w", err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), func() { file.Close() }, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `corkboard — terminal client for the corkboard ticket server.

Log in with an emailed one-time code, pick a project, and manage its
tickets on a five-column status board. Sessions persist across runs;
use --project to jump straight to a board.

Usage:
  corkboard [flags]

Flags:
%s`, flagSet.FlagUsages())
}
