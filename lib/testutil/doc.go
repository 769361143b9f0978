// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides small helpers shared by Corkboard tests:
// channel operations with timeout safety valves so a broken test fails
// fast instead of hanging the suite.
package testutil
