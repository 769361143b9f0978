// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"fmt"
)

// APIError represents a failed gateway call. StatusCode is the HTTP
// status for server rejections, or zero for transport-level failures
// (connection refused, timeout; the two are deliberately
// indistinguishable to callers). Callers extract it with errors.As:
//
//	var apiErr *gateway.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden { ... }
type APIError struct {
	// Op names the operation that failed (e.g. "update ticket 42").
	Op string
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int
	// Detail is the server's error detail, when one was provided.
	Detail string
	// Err is the underlying cause, when one exists.
	Err error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway: %s failed", e.Op)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an *APIError with the given HTTP
// status code.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}
