// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the sole channel to the dashboard server: a typed
// HTTP client with one method per server operation. It attaches the
// session's bearer token to authorized calls, applies a fixed per-call
// timeout, and converts every transport or HTTP failure into an
// *APIError before it can reach the store or the UI.
//
// Token invalidation is the one cross-cutting concern handled here:
// when any authorized call comes back 401, the client fires the
// auth-expiry hook so the session can drop to anonymous, then
// propagates the error to the caller. The session's own restore probe
// (CurrentUser) is exempt; the session applies its retained-session
// policy to that result itself.
package gateway
