// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corkboard-dev/corkboard/lib/schema"
)

// TokenSource supplies the current session token. An empty string
// means anonymous; authorized calls are sent without an Authorization
// header and the server rejects them.
type TokenSource interface {
	Token() string
}

// Client is the typed HTTP client for the dashboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	// onAuthExpired is invoked when an authorized call returns 401.
	// Set by the wiring code to the session's Invalidate method.
	onAuthExpired func()
}

// New creates a Client for the server at baseURL. Every call is
// bounded by timeout; a timeout surfaces as a transport-level
// *APIError, identical to any other network failure.
func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// NewForTesting creates a Client with a custom http.Client, used by
// tests to point at an httptest.Server without a timeout in the way.
func NewForTesting(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// SetAuthExpiredFunc registers the hook invoked when an authorized
// call returns 401. Must be called before the client is shared across
// goroutines.
func (client *Client) SetAuthExpiredFunc(fn func()) {
	client.onAuthExpired = fn
}

// ActivityStreamURL returns the websocket URL for the push channel
// scoped to the given project, with the current token attached as a
// query parameter (the server's websocket handshake cannot read
// headers from browser clients, so the token travels in the query).
func (client *Client) ActivityStreamURL(projectID int64) string {
	streamURL := client.baseURL + "/ws/activity"
	if strings.HasPrefix(streamURL, "https://") {
		streamURL = "wss://" + strings.TrimPrefix(streamURL, "https://")
	} else {
		streamURL = "ws://" + strings.TrimPrefix(streamURL, "http://")
	}
	query := url.Values{
		"token":      {client.tokens.Token()},
		"project_id": {strconv.FormatInt(projectID, 10)},
	}
	return streamURL + "?" + query.Encode()
}

// --- Authentication calls (no token attached) ---

// RequestCode asks the server to email a one-time login code. Has no
// effect on the current session.
func (client *Client) RequestCode(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return client.call(ctx, http.MethodPost, "/auth/request-otp", body, nil, callAnonymous)
}

// VerifyCode exchanges a one-time code for a session token.
func (client *Client) VerifyCode(ctx context.Context, email, code string) (schema.AuthResponse, error) {
	body := map[string]string{"email": email, "code": code}
	var result schema.AuthResponse
	err := client.call(ctx, http.MethodPost, "/auth/verify-otp", body, &result, callAnonymous)
	return result, err
}

// CurrentUser resolves the identity behind the current token. This is
// the session restore probe: a 401 here does NOT fire the auth-expiry
// hook, because the session's restore policy retains a possibly-valid
// token on soft failure and decides for itself.
func (client *Client) CurrentUser(ctx context.Context) (schema.User, error) {
	var result schema.User
	err := client.call(ctx, http.MethodGet, "/auth/me", nil, &result, callNoExpiryHook)
	return result, err
}

// Logout notifies the server that the session is ending so it can
// release dependent state. Callers treat failure as best-effort.
func (client *Client) Logout(ctx context.Context) error {
	return client.call(ctx, http.MethodPost, "/auth/logout", nil, nil, callAuthorized)
}

// --- Project calls ---

// Projects lists all projects.
func (client *Client) Projects(ctx context.Context) ([]schema.Project, error) {
	var result []schema.Project
	err := client.call(ctx, http.MethodGet, "/api/projects", nil, &result, callAuthorized)
	return result, err
}

// CreateProject creates a project and returns the server's record.
func (client *Client) CreateProject(ctx context.Context, name string) (schema.Project, error) {
	body := map[string]string{"name": name}
	var result struct {
		Message string         `json:"message"`
		Project schema.Project `json:"project"`
	}
	err := client.call(ctx, http.MethodPost, "/api/projects", body, &result, callAuthorized)
	return result.Project, err
}

// ProjectDetail fetches a project together with its full ticket list.
func (client *Client) ProjectDetail(ctx context.Context, projectID int64) (schema.ProjectDetail, error) {
	var result schema.ProjectDetail
	path := fmt.Sprintf("/api/projects/%d", projectID)
	err := client.call(ctx, http.MethodGet, path, nil, &result, callAuthorized)
	return result, err
}

// --- Ticket calls ---

// CreateTicket creates a ticket and returns the server's authoritative
// record (real id, server timestamps, server-assigned status).
func (client *Client) CreateTicket(ctx context.Context, create schema.TicketCreate) (schema.Ticket, error) {
	var result struct {
		Message string        `json:"message"`
		Ticket  schema.Ticket `json:"ticket"`
	}
	err := client.call(ctx, http.MethodPost, "/api/tickets", create, &result, callAuthorized)
	return result.Ticket, err
}

// UpdateTicket applies a partial update and returns the server's
// record. The server is authoritative for updated_at and
// updated_by_id.
func (client *Client) UpdateTicket(ctx context.Context, ticketID int64, update schema.TicketUpdate) (schema.Ticket, error) {
	var result schema.Ticket
	path := fmt.Sprintf("/api/tickets/%d", ticketID)
	err := client.call(ctx, http.MethodPatch, path, update, &result, callAuthorized)
	return result, err
}

// --- Capability flag calls ---

// SuperToggle reads the current elevated-mode flag.
func (client *Client) SuperToggle(ctx context.Context) (bool, error) {
	var result schema.SuperToggle
	err := client.call(ctx, http.MethodGet, "/api/super-toggle", nil, &result, callAuthorized)
	return result.Enabled, err
}

// SetSuperToggle asks the server to change the elevated-mode flag and
// returns the server's resulting value, which may differ from the
// requested one if the server enforces additional policy.
func (client *Client) SetSuperToggle(ctx context.Context, enable bool, password string) (bool, error) {
	body := schema.SuperToggleRequest{Enable: enable, Password: password}
	var result schema.SuperToggle
	err := client.call(ctx, http.MethodPost, "/api/super-toggle", body, &result, callAuthorized)
	return result.Enabled, err
}

// --- Activity feed ---

// Activities lists the most recent activity log entries.
func (client *Client) Activities(ctx context.Context, limit int) ([]schema.Activity, error) {
	var result []schema.Activity
	path := "/api/activities?limit=" + strconv.Itoa(limit)
	err := client.call(ctx, http.MethodGet, path, nil, &result, callAuthorized)
	return result, err
}

// callMode controls token attachment and 401 handling per call.
type callMode int

const (
	// callAuthorized attaches the bearer token and fires the
	// auth-expiry hook on 401.
	callAuthorized callMode = iota
	// callAnonymous sends no token (authentication endpoints).
	callAnonymous
	// callNoExpiryHook attaches the token but suppresses the
	// auth-expiry hook on 401 (the session restore probe).
	callNoExpiryHook
)

// errorBody is the server's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// call performs one HTTP round trip: JSON request body (when body is
// non-nil), JSON response decode (when result is non-nil), and
// conversion of every failure into *APIError.
func (client *Client) call(ctx context.Context, method, path string, body, result any, mode callMode) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Request-ID", uuid.NewString())
	if mode != callAnonymous {
		if token := client.tokens.Token(); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Debug("gateway call failed", "op", op, "error", err)
		return &APIError{Op: op, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized && mode == callAuthorized {
		client.logger.Info("session token rejected by server", "op", op)
		if client.onAuthExpired != nil {
			client.onAuthExpired()
		}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var envelope errorBody
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 64*1024))
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Detail == "" {
			envelope.Detail = strings.TrimSpace(string(raw))
		}
		return &APIError{Op: op, StatusCode: response.StatusCode, Detail: envelope.Detail}
	}

	if result != nil {
		if err := json.NewDecoder(response.Body).Decode(result); err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return nil
}
