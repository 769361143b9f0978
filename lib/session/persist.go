// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// persistedSession is the on-disk session file format. Analogous to
// SSH keys: log in once, then transparent across runs.
type persistedSession struct {
	Token string      `json:"token"`
	User  schema.User `json:"user"`
}

// readSessionFile loads a persisted session. A missing file returns
// found == false with no error.
func readSessionFile(path string) (persistedSession, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return persistedSession{}, false, nil
		}
		return persistedSession{}, false, fmt.Errorf("reading session file %s: %w", path, err)
	}

	var persisted persistedSession
	if err := json.Unmarshal(data, &persisted); err != nil {
		return persistedSession{}, false, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if persisted.Token == "" {
		return persistedSession{}, false, fmt.Errorf("session file %s has no token", path)
	}
	return persisted, true, nil
}

// writeSessionFile persists the session with owner-only permissions.
func writeSessionFile(path string, persisted persistedSession) error {
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %s: %w", path, err)
	}
	return nil
}

// removeSessionFile deletes the persisted session. A missing file is
// not an error.
func removeSessionFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
