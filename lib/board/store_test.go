// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/corkboard-dev/corkboard/lib/schema"
	"github.com/corkboard-dev/corkboard/lib/testutil"
)

// fakeBoardAPI scripts the gateway per call via function fields so
// tests can gate acknowledgements on channels.
type fakeBoardAPI struct {
	detailFn func(ctx context.Context, projectID int64) (schema.ProjectDetail, error)
	createFn func(ctx context.Context, create schema.TicketCreate) (schema.Ticket, error)
	updateFn func(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error)
}

func (f *fakeBoardAPI) ProjectDetail(ctx context.Context, projectID int64) (schema.ProjectDetail, error) {
	return f.detailFn(ctx, projectID)
}

func (f *fakeBoardAPI) CreateTicket(ctx context.Context, create schema.TicketCreate) (schema.Ticket, error) {
	return f.createFn(ctx, create)
}

func (f *fakeBoardAPI) UpdateTicket(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error) {
	return f.updateFn(ctx, ticketID, update)
}

func staticDetail(detail schema.ProjectDetail) func(context.Context, int64) (schema.ProjectDetail, error) {
	return func(context.Context, int64) (schema.ProjectDetail, error) { return detail, nil }
}

func testDetail() schema.ProjectDetail {
	return schema.ProjectDetail{
		Project: schema.Project{ID: 7, Name: "corkboard"},
		Tickets: []schema.Ticket{
			{ID: 2, ProjectID: 7, Description: "write docs", Status: schema.StatusTodo},
			{ID: 1, ProjectID: 7, Description: "fix login", Status: schema.StatusInProgress},
		},
	}
}

func newTestStore(t *testing.T, api API) *Store {
	t.Helper()
	return NewStore(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func loadTestProject(t *testing.T, s *Store) {
	t.Helper()
	if err := s.Load(context.Background(), 7); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadReplacesSnapshot(t *testing.T) {
	api := &fakeBoardAPI{detailFn: staticDetail(testDetail())}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	project, ok := s.Project()
	if !ok || project.ID != 7 {
		t.Fatalf("Project() = %+v, %v", project, ok)
	}
	tickets := s.Tickets()
	if len(tickets) != 2 || tickets[0].ID != 1 || tickets[1].ID != 2 {
		t.Errorf("Tickets() not in id order: %+v", tickets)
	}
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	api := &fakeBoardAPI{detailFn: staticDetail(testDetail())}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	api.detailFn = func(context.Context, int64) (schema.ProjectDetail, error) {
		return schema.ProjectDetail{}, errors.New("boom")
	}
	err := s.Load(context.Background(), 9)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.ProjectID != 9 {
		t.Fatalf("expected *LoadError for project 9, got %v", err)
	}
	if project, ok := s.Project(); !ok || project.ID != 7 {
		t.Error("previous snapshot should survive a failed load")
	}
}

func TestUpdateOptimisticShowsValueImmediately(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		updateFn: func(ctx context.Context, id int64, update schema.TicketUpdate) (schema.Ticket, error) {
			<-release
			ticket := testDetail().Tickets[1]
			ticket.Status = *update.Status
			return ticket, nil
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatalf("UpdateOptimistic: %v", err)
	}

	// Before the server answers, the merged view already shows the
	// mutation and marks it pending.
	ticket, ok := s.Lookup(1)
	if !ok || ticket.Status != schema.StatusDone {
		t.Errorf("optimistic value not visible: %+v", ticket)
	}
	if !s.Pending(1) {
		t.Error("ticket should be pending")
	}

	close(release)
	if err := testutil.RequireReceive(t, result, time.Second, "mutation result"); err != nil {
		t.Fatalf("update should succeed: %v", err)
	}
	if s.Pending(1) {
		t.Error("overlay entry should clear on acknowledgement")
	}
	if ticket, _ := s.Lookup(1); ticket.Status != schema.StatusDone {
		t.Errorf("server value not absorbed: %+v", ticket)
	}
}

func TestUpdateRejectionRollsBack(t *testing.T) {
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		updateFn: func(context.Context, int64, schema.TicketUpdate) (schema.Ticket, error) {
			return schema.Ticket{}, errors.New("not allowed")
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}

	resolveErr := testutil.RequireReceive(t, result, time.Second, "mutation result")
	var mutationErr *MutationError
	if !errors.As(resolveErr, &mutationErr) || mutationErr.TicketID != 1 {
		t.Fatalf("expected *MutationError for ticket 1, got %v", resolveErr)
	}
	ticket, _ := s.Lookup(1)
	if ticket.Status != schema.StatusInProgress {
		t.Errorf("rollback should restore server truth, got %+v", ticket)
	}
	if s.Pending(1) {
		t.Error("overlay entry should clear on rollback")
	}
}

func TestSecondMutationOnSameTicketRejected(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		updateFn: func(ctx context.Context, id int64, update schema.TicketUpdate) (schema.Ticket, error) {
			<-release
			return testDetail().Tickets[1], nil
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done}); !errors.Is(err, ErrMutationInFlight) {
		t.Fatalf("expected ErrMutationInFlight, got %v", err)
	}

	close(release)
	testutil.RequireReceive(t, result, time.Second, "first mutation result")

	// Once the first mutation resolves, the ticket accepts another.
	if _, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done}); err != nil {
		t.Errorf("mutation after resolution should be accepted, got %v", err)
	}
}

func TestUpdateUnknownTicket(t *testing.T) {
	api := &fakeBoardAPI{detailFn: staticDetail(testDetail())}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	if _, err := s.UpdateOptimistic(context.Background(), 99, schema.TicketUpdate{Status: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOptimisticPlaceholderLifecycle(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		createFn: func(ctx context.Context, create schema.TicketCreate) (schema.Ticket, error) {
			<-release
			return schema.Ticket{
				ID:          3,
				ProjectID:   create.ProjectID,
				Description: create.Description,
				Status:      schema.DefaultStatus,
			}, nil
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	placeholder, result, err := s.CreateOptimistic(context.Background(), "new feature")
	if err != nil {
		t.Fatalf("CreateOptimistic: %v", err)
	}
	if placeholder.ID >= 0 {
		t.Fatalf("placeholder id must be negative, got %d", placeholder.ID)
	}
	if placeholder.Status != schema.StatusTodo {
		t.Errorf("placeholder status = %v, want default", placeholder.Status)
	}
	tickets := s.Tickets()
	if len(tickets) != 3 || tickets[2].ID != placeholder.ID {
		t.Errorf("placeholder should append to the list: %+v", tickets)
	}

	close(release)
	if err := testutil.RequireReceive(t, result, time.Second, "create result"); err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
	if _, ok := s.Lookup(placeholder.ID); ok {
		t.Error("placeholder should be gone after acknowledgement")
	}
	if ticket, ok := s.Lookup(3); !ok || ticket.Description != "new feature" {
		t.Errorf("server ticket should replace the placeholder: %+v, %v", ticket, ok)
	}
}

func TestCreateRejectionRemovesPlaceholder(t *testing.T) {
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		createFn: func(context.Context, schema.TicketCreate) (schema.Ticket, error) {
			return schema.Ticket{}, errors.New("validation failed")
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	placeholder, result, err := s.CreateOptimistic(context.Background(), "bad ticket")
	if err != nil {
		t.Fatal(err)
	}
	resolveErr := testutil.RequireReceive(t, result, time.Second, "create result")
	var mutationErr *MutationError
	if !errors.As(resolveErr, &mutationErr) {
		t.Fatalf("expected *MutationError, got %v", resolveErr)
	}
	if _, ok := s.Lookup(placeholder.ID); ok {
		t.Error("placeholder should disappear on rejection")
	}
	if len(s.Tickets()) != 2 {
		t.Errorf("ticket list should revert, got %d tickets", len(s.Tickets()))
	}
}

func TestStaleAcknowledgementDropped(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		updateFn: func(ctx context.Context, id int64, update schema.TicketUpdate) (schema.Ticket, error) {
			<-release
			ticket := testDetail().Tickets[1]
			ticket.Status = schema.StatusDone
			return ticket, nil
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}

	// A reconcile while the mutation is in flight replaces the
	// snapshot. The late acknowledgement must not re-apply on top.
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Pending(1) {
		t.Fatal("reconcile should clear the overlay")
	}

	close(release)
	testutil.RequireReceive(t, result, time.Second, "stale mutation result")
	ticket, _ := s.Lookup(1)
	if ticket.Status != schema.StatusInProgress {
		t.Errorf("stale acknowledgement applied, ticket = %+v", ticket)
	}
}

func TestReconcileDoesNotClobberNewerLoad(t *testing.T) {
	fetching := make(chan struct{})
	release := make(chan struct{})
	detailFor := func(projectID int64) schema.ProjectDetail {
		if projectID == 9 {
			return schema.ProjectDetail{
				Project: schema.Project{ID: 9, Name: "other"},
				Tickets: []schema.Ticket{{ID: 5, ProjectID: 9, Description: "migrate db", Status: schema.StatusTodo}},
			}
		}
		return testDetail()
	}
	api := &fakeBoardAPI{
		detailFn: func(ctx context.Context, projectID int64) (schema.ProjectDetail, error) {
			return detailFor(projectID), nil
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	// Gate only the reconcile refetch so a project switch can complete
	// while it is in flight.
	api.detailFn = func(ctx context.Context, projectID int64) (schema.ProjectDetail, error) {
		if projectID == 7 {
			close(fetching)
			<-release
		}
		return detailFor(projectID), nil
	}

	reconciled := make(chan error, 1)
	go func() { reconciled <- s.Reconcile(context.Background()) }()
	<-fetching

	if err := s.Load(context.Background(), 9); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := testutil.RequireReceive(t, reconciled, time.Second, "reconcile result"); err != nil {
		t.Fatalf("superseded reconcile should report nothing, got %v", err)
	}
	if project, ok := s.Project(); !ok || project.ID != 9 {
		t.Errorf("stale reconcile snapshot clobbered the newer load: %+v", project)
	}
	if tickets := s.Tickets(); len(tickets) != 1 || tickets[0].ID != 5 {
		t.Errorf("tickets = %+v, want the project 9 snapshot", tickets)
	}
}

func TestStaleRejectionReportsNothing(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBoardAPI{
		detailFn: staticDetail(testDetail()),
		updateFn: func(context.Context, int64, schema.TicketUpdate) (schema.Ticket, error) {
			<-release
			return schema.Ticket{}, errors.New("conflict")
		},
	}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	done := schema.StatusDone
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}

	// The reconcile supersedes the mutation; its late rejection applies
	// to a snapshot that no longer exists and must not surface as an
	// error.
	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := testutil.RequireReceive(t, result, time.Second, "stale mutation result"); err != nil {
		t.Errorf("superseded rejection should resolve nil, got %v", err)
	}
}

func TestSubscribeDeliversEvents(t *testing.T) {
	api := &fakeBoardAPI{detailFn: staticDetail(testDetail())}
	s := newTestStore(t, api)
	events := s.Subscribe()

	loadTestProject(t, s)
	event := testutil.RequireReceive(t, events, time.Second, "reload event")
	if event.Kind != EventReloaded {
		t.Errorf("event kind = %v, want reload", event.Kind)
	}

	done := schema.StatusDone
	api.updateFn = func(context.Context, int64, schema.TicketUpdate) (schema.Ticket, error) {
		return testDetail().Tickets[1], nil
	}
	result, err := s.UpdateOptimistic(context.Background(), 1, schema.TicketUpdate{Status: &done})
	if err != nil {
		t.Fatal(err)
	}
	event = testutil.RequireReceive(t, events, time.Second, "optimistic apply event")
	if event.Kind != EventTicketChanged || event.TicketID != 1 {
		t.Errorf("event = %+v", event)
	}
	testutil.RequireReceive(t, result, time.Second, "mutation result")
	event = testutil.RequireReceive(t, events, time.Second, "resolution event")
	if event.Kind != EventTicketChanged || event.TicketID != 1 {
		t.Errorf("event = %+v", event)
	}
}

func TestResetClearsEverything(t *testing.T) {
	api := &fakeBoardAPI{detailFn: staticDetail(testDetail())}
	s := newTestStore(t, api)
	loadTestProject(t, s)

	s.Reset()

	if _, ok := s.Project(); ok {
		t.Error("project should be gone after Reset")
	}
	if len(s.Tickets()) != 0 {
		t.Error("tickets should be gone after Reset")
	}
	if err := s.Reconcile(context.Background()); !errors.Is(err, ErrNoProject) {
		t.Errorf("Reconcile after Reset = %v, want ErrNoProject", err)
	}
}
