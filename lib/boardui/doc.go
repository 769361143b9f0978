// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardui implements the terminal user interface for the
// corkboard client. Built on bubbletea (Elm architecture), it walks
// the user from login through project selection to a five-column
// status board with optimistic ticket edits and a live activity feed.
//
// The UI never talks to the server directly: it renders from the
// board store's merged view and drives mutations through the narrow
// interfaces declared in this package ([Auth], [Board], [Stream],
// [Capability], [Directory], [Feed]), which the production wiring
// satisfies with the session, board, capability, and gateway
// packages. Tests substitute fakes.
//
// Data flow:
//
//	[server gateway]
//	      | (interfaces)
//	  [Model] <- bubbletea event loop
//	      |
//	[terminal output]
package boardui
