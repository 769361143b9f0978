// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Corkboard's client configuration from a single
// YAML file specified by the CORKBOARD_CONFIG environment variable or
// the --config flag. There is no automatic discovery; absent a config
// file the built-in defaults apply, so a plain "corkboard" invocation
// against a local server works out of the box.
package config
