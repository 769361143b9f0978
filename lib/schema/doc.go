// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the wire entities shared between the
// Corkboard client and the dashboard server: users, projects, tickets,
// activity log entries, and the request payloads for mutations. The
// server owns these shapes; the client marshals them verbatim with no
// additional framing.
package schema
