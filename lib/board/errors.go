// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
)

// ErrNoProject is returned when an operation needs a loaded project and
// none is.
var ErrNoProject = errors.New("board: no project loaded")

// ErrNotFound is returned when a ticket id is not in the store.
var ErrNotFound = errors.New("board: ticket not found")

// ErrMutationInFlight is returned when a second mutation targets a
// ticket whose previous mutation has not yet resolved. Callers retry
// after the pending mutation settles.
var ErrMutationInFlight = errors.New("board: mutation already in flight for ticket")

// LoadError reports a failed project fetch. The store keeps whatever
// snapshot it had.
type LoadError struct {
	ProjectID int64
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("board: loading project %d: %v", e.ProjectID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MutationError reports a mutation the server rejected or that failed
// in transit. By the time the caller sees it the optimistic overlay has
// already been rolled back.
type MutationError struct {
	TicketID int64
	Op       string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("board: %s ticket %d: %v", e.Op, e.TicketID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
