// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package board holds the client-side ticket state for one project: a
// base snapshot of server truth plus an optimistic overlay of not yet
// acknowledged mutations. Reads merge the two so the UI renders a
// mutation's effect immediately; the overlay entry resolves into the
// base on acknowledgement and rolls back on rejection.
//
// The package also owns the activity stream subscription (see
// [Manager]) that triggers refetches when other users change the
// project.
package board

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// API is the subset of the gateway the store consumes.
type API interface {
	ProjectDetail(ctx context.Context, projectID int64) (schema.ProjectDetail, error)
	CreateTicket(ctx context.Context, create schema.TicketCreate) (schema.Ticket, error)
	UpdateTicket(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error)
}

// EventKind classifies a store change notification.
type EventKind int

const (
	// EventReloaded means the base snapshot was replaced wholesale
	// (initial load or a reconcile refetch). Rebuild everything.
	EventReloaded EventKind = iota
	// EventTicketChanged means a single ticket's merged view changed:
	// an optimistic mutation was applied, resolved, or rolled back.
	EventTicketChanged
)

// Event describes a single change to the merged ticket view, delivered
// via the [Store.Subscribe] channel for live-updating UIs.
type Event struct {
	Kind EventKind
	// TicketID is set for EventTicketChanged. For a resolved create it
	// is the placeholder id the overlay entry was registered under.
	TicketID int64
}

type mutationOp int

const (
	opCreate mutationOp = iota
	opUpdate
)

// pendingMutation is one overlay entry: the optimistic ticket value
// shown while the server round-trip is outstanding.
type pendingMutation struct {
	op        mutationOp
	projectID int64
	ticket    schema.Ticket
}

// Store is the merged ticket state for the currently open project.
// Safe for concurrent use; mutation acknowledgements arrive on their
// own goroutines.
type Store struct {
	api    API
	logger *slog.Logger

	mu        sync.Mutex
	projectID int64
	project   schema.Project
	loaded    bool

	// base is server truth keyed by ticket id. overlay shadows it with
	// optimistic values; a base read goes through the overlay first.
	base    map[int64]schema.Ticket
	overlay map[int64]*pendingMutation

	// nextPlaceholder issues negative ids for optimistic creates so
	// they can never collide with server-assigned ids.
	nextPlaceholder int64

	subscribers []chan Event
}

// NewStore creates an empty store. Load a project before mutating.
func NewStore(api API, logger *slog.Logger) *Store {
	return &Store{
		api:             api,
		logger:          logger,
		base:            map[int64]schema.Ticket{},
		overlay:         map[int64]*pendingMutation{},
		nextPlaceholder: -1,
	}
}

// Load fetches the project and replaces the snapshot. Any overlay
// entries from a previously loaded project are discarded; their
// in-flight acknowledgements will fail the relevance check and be
// dropped. On failure the previous snapshot is kept and a *LoadError
// is returned.
func (s *Store) Load(ctx context.Context, projectID int64) error {
	detail, err := s.api.ProjectDetail(ctx, projectID)
	if err != nil {
		return &LoadError{ProjectID: projectID, Err: err}
	}
	s.replaceSnapshot(detail)
	s.logger.Info("project loaded", "project_id", projectID, "tickets", len(detail.Tickets))
	return nil
}

// Reconcile refetches the currently loaded project to absorb remote
// changes. The overlay is cleared: the refetched snapshot either
// already contains the outcome of an in-flight mutation or will after
// its acknowledgement triggers nothing (the relevance check drops it).
// A transient flicker of the optimistic value is accepted in exchange
// for never merging two divergent histories.
func (s *Store) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNoProject
	}
	projectID := s.projectID
	s.mu.Unlock()

	detail, err := s.api.ProjectDetail(ctx, projectID)
	if err != nil {
		return &LoadError{ProjectID: projectID, Err: err}
	}

	s.mu.Lock()
	// The project may have been switched while the refetch was in
	// flight. The relevance check and the install happen under one lock
	// acquisition so a concurrent Load cannot slip between them and get
	// clobbered by this stale snapshot.
	if !s.loaded || s.projectID != projectID {
		s.mu.Unlock()
		return nil
	}
	s.installSnapshotLocked(detail)
	s.mu.Unlock()
	return nil
}

func (s *Store) replaceSnapshot(detail schema.ProjectDetail) {
	s.mu.Lock()
	s.installSnapshotLocked(detail)
	s.mu.Unlock()
}

func (s *Store) installSnapshotLocked(detail schema.ProjectDetail) {
	s.projectID = detail.Project.ID
	s.project = detail.Project
	s.loaded = true
	s.base = make(map[int64]schema.Ticket, len(detail.Tickets))
	for _, ticket := range detail.Tickets {
		s.base[ticket.ID] = ticket
	}
	s.overlay = map[int64]*pendingMutation{}
	s.notifyLocked(Event{Kind: EventReloaded})
}

// Reset drops all state. Wired as a session logout hook.
func (s *Store) Reset() {
	s.mu.Lock()
	s.loaded = false
	s.projectID = 0
	s.project = schema.Project{}
	s.base = map[int64]schema.Ticket{}
	s.overlay = map[int64]*pendingMutation{}
	s.notifyLocked(Event{Kind: EventReloaded})
	s.mu.Unlock()
}

// Project returns the loaded project, if any.
func (s *Store) Project() (schema.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project, s.loaded
}

// Lookup returns the merged view of one ticket: the optimistic value
// when a mutation is pending, otherwise server truth.
func (s *Store) Lookup(ticketID int64) (schema.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pending, ok := s.overlay[ticketID]; ok {
		return pending.ticket, true
	}
	ticket, ok := s.base[ticketID]
	return ticket, ok
}

// Pending reports whether a mutation is in flight for the ticket.
func (s *Store) Pending(ticketID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.overlay[ticketID]
	return ok
}

// PendingCount returns the number of in-flight mutations.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlay)
}

// Tickets returns the merged ticket list: server tickets in id order
// with pending updates applied, then optimistic creates in the order
// they were issued.
func (s *Store) Tickets() []schema.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.base))
	for id := range s.base {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tickets := make([]schema.Ticket, 0, len(s.base)+len(s.overlay))
	for _, id := range ids {
		if pending, ok := s.overlay[id]; ok {
			tickets = append(tickets, pending.ticket)
			continue
		}
		tickets = append(tickets, s.base[id])
	}

	// Placeholder ids count down from -1, so descending id order is
	// issue order.
	placeholders := make([]int64, 0, len(s.overlay))
	for id, pending := range s.overlay {
		if pending.op == opCreate {
			placeholders = append(placeholders, id)
		}
	}
	sort.Slice(placeholders, func(i, j int) bool { return placeholders[i] > placeholders[j] })
	for _, id := range placeholders {
		tickets = append(tickets, s.overlay[id].ticket)
	}
	return tickets
}

// CreateOptimistic registers a placeholder ticket and sends the create
// to the server. The placeholder is visible immediately under a
// negative id; on acknowledgement it is replaced by the server ticket,
// on rejection it disappears. The result channel delivers exactly one
// value: nil or a *MutationError.
func (s *Store) CreateOptimistic(ctx context.Context, description string) (schema.Ticket, <-chan error, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return schema.Ticket{}, nil, ErrNoProject
	}
	projectID := s.projectID
	placeholder := schema.Ticket{
		ID:          s.nextPlaceholder,
		ProjectID:   projectID,
		Description: description,
		Status:      schema.DefaultStatus,
	}
	s.nextPlaceholder--
	pending := &pendingMutation{op: opCreate, projectID: projectID, ticket: placeholder}
	s.overlay[placeholder.ID] = pending
	s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: placeholder.ID})
	s.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		ticket, err := s.api.CreateTicket(ctx, schema.TicketCreate{
			ProjectID:   projectID,
			Description: description,
		})
		result <- s.resolveCreate(placeholder.ID, pending, ticket, err)
	}()
	return placeholder, result, nil
}

func (s *Store) resolveCreate(placeholderID int64, pending *pendingMutation, ticket schema.Ticket, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The snapshot may have been replaced or the project switched while
	// the request was in flight. The overlay entry is gone in that case
	// and the result no longer applies to anything, success or not.
	if s.overlay[placeholderID] != pending || s.projectID != pending.projectID {
		s.logger.Debug("dropping stale create acknowledgement", "placeholder_id", placeholderID)
		return nil
	}

	delete(s.overlay, placeholderID)
	if err != nil {
		s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: placeholderID})
		s.logger.Warn("ticket create rejected, rolling back", "error", err)
		return &MutationError{TicketID: placeholderID, Op: "creating", Err: err}
	}
	s.base[ticket.ID] = ticket
	s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: placeholderID})
	return nil
}

// UpdateOptimistic applies the update to the merged view immediately
// and sends it to the server. A second mutation on a ticket whose
// first has not resolved returns ErrMutationInFlight synchronously; a
// ticket not in the store returns ErrNotFound. The result channel
// delivers exactly one value: nil or a *MutationError. On rejection
// the merged view reverts to server truth.
func (s *Store) UpdateOptimistic(ctx context.Context, ticketID int64, update schema.TicketUpdate) (<-chan error, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNoProject
	}
	if _, inFlight := s.overlay[ticketID]; inFlight {
		s.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	current, ok := s.base[ticketID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	pending := &pendingMutation{op: opUpdate, projectID: s.projectID, ticket: update.Apply(current)}
	s.overlay[ticketID] = pending
	s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: ticketID})
	s.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		ticket, err := s.api.UpdateTicket(ctx, ticketID, update)
		result <- s.resolveUpdate(ticketID, pending, ticket, err)
	}()
	return result, nil
}

func (s *Store) resolveUpdate(ticketID int64, pending *pendingMutation, ticket schema.Ticket, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay[ticketID] != pending || s.projectID != pending.projectID {
		s.logger.Debug("dropping stale update acknowledgement", "ticket_id", ticketID)
		return nil
	}

	delete(s.overlay, ticketID)
	if err != nil {
		// Base was never touched, so removing the overlay entry is the
		// whole rollback.
		s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: ticketID})
		s.logger.Warn("ticket update rejected, rolling back", "ticket_id", ticketID, "error", err)
		return &MutationError{TicketID: ticketID, Op: "updating", Err: err}
	}
	s.base[ticketID] = ticket
	s.notifyLocked(Event{Kind: EventTicketChanged, TicketID: ticketID})
	return nil
}

// Subscribe returns a channel that receives an Event on every change
// to the merged view. The channel is buffered; if the subscriber falls
// behind, events are dropped rather than blocking mutation paths.
func (s *Store) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel := make(chan Event, 64)
	s.subscribers = append(s.subscribers, channel)
	return channel
}

func (s *Store) notifyLocked(event Event) {
	for _, subscriber := range s.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber buffer full. The next reload event it does
			// receive rebuilds the full view anyway.
		}
	}
}
