// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Status is a ticket's position in the fixed board pipeline. The
// client enforces no ordering between statuses: any transition to any
// other status is permitted, and the server has the final word.
type Status string

const (
	StatusProposed   Status = "proposed"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
	StatusDeployed   Status = "deployed"
)

// DefaultStatus is the status the server assigns to freshly created
// tickets. Optimistic placeholders use it so the ticket appears in the
// column it will land in once confirmed.
const DefaultStatus = StatusTodo

// Statuses returns the pipeline in board-column order.
func Statuses() []Status {
	return []Status{StatusProposed, StatusTodo, StatusInProgress, StatusDone, StatusDeployed}
}

// Valid reports whether s is one of the five pipeline statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusTodo, StatusInProgress, StatusDone, StatusDeployed:
		return true
	}
	return false
}

// Label returns the column heading for a status.
func (s Status) Label() string {
	switch s {
	case StatusProposed:
		return "Proposed"
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	case StatusDeployed:
		return "Deployed"
	}
	return string(s)
}

// Next returns the status one column to the right, or s unchanged when
// already at the end of the pipeline.
func (s Status) Next() Status {
	all := Statuses()
	for i, status := range all {
		if status == s && i < len(all)-1 {
			return all[i+1]
		}
	}
	return s
}

// Prev returns the status one column to the left, or s unchanged when
// already at the start of the pipeline.
func (s Status) Prev() Status {
	all := Statuses()
	for i, status := range all {
		if status == s && i > 0 {
			return all[i-1]
		}
	}
	return s
}

// User is an authenticated identity as issued by the server. Immutable
// once issued; held only by the session.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Project is a named container for tickets. Owned by the server; the
// client holds a read-through cached list plus at most one currently
// viewed project.
type Project struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Ticket is a single unit of work on a project board. ProjectID is
// immutable after creation. The server is authoritative for UpdatedAt
// and UpdatedByID; the client never trusts its own optimistic guess
// for either.
type Ticket struct {
	ID             int64  `json:"id"`
	ProjectID      int64  `json:"project_id"`
	Description    string `json:"description"`
	Status         Status `json:"status"`
	CreatorID      int64  `json:"creator_id"`
	CreatorEmail   string `json:"creator_email,omitempty"`
	UpdatedByID    int64  `json:"updated_by_id"`
	UpdatedByEmail string `json:"updated_by_email,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// Activity is an append-only, server-generated log entry describing a
// project or ticket mutation. Consumed read-only as a notification
// feed; TicketID is zero for project-level entries.
type Activity struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"project_id"`
	TicketID   int64  `json:"ticket_id,omitempty"`
	Message    string `json:"message"`
	ActorEmail string `json:"actor_email"`
	CreatedAt  string `json:"created_at"`
}

// TicketCreate is the payload for creating a ticket.
type TicketCreate struct {
	ProjectID   int64  `json:"project_id"`
	Description string `json:"description"`
}

// TicketUpdate is a partial ticket mutation. Nil fields are left
// untouched by the server.
type TicketUpdate struct {
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Apply merges the update into a copy of t and returns it. This is the
// client's optimistic projection of what the server will produce; the
// server-returned record replaces it on confirmation.
func (u TicketUpdate) Apply(t Ticket) Ticket {
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	return t
}

// AuthResponse is the result of a successful code verification.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// ProjectDetail is a project together with its full ticket list, as
// returned by the get-project call.
type ProjectDetail struct {
	Project Project  `json:"project"`
	Tickets []Ticket `json:"tickets"`
}

// SuperToggle is the server's capability flag state.
type SuperToggle struct {
	Enabled bool `json:"enabled"`
}

// SuperToggleRequest asks the server to change the capability flag.
// Password is validated only when enabling; disabling never requires
// it.
type SuperToggleRequest struct {
	Enable   bool   `json:"enable"`
	Password string `json:"password"`
}

// ActivityEvent is the shape of a push-channel message. Only messages
// with Event == "activity" are meaningful; anything else is ignored.
type ActivityEvent struct {
	Event string          `json:"event"`
	Data  ActivityPayload `json:"data"`
}

// ActivityPayload is the payload of an activity push event. The server
// sends a notification, not a diff, so the client refetches on receipt.
type ActivityPayload struct {
	ProjectID int64  `json:"project_id"`
	TicketID  int64  `json:"ticket_id,omitempty"`
	Message   string `json:"message,omitempty"`
}
