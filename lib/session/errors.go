// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "fmt"

// RequestError reports a failed one-time-code request. The session
// state is unchanged; the user may retry.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return fmt.Sprintf("session: requesting code: %v", e.Err) }
func (e *RequestError) Unwrap() error { return e.Err }

// VerifyError reports a rejected one-time code (invalid or expired).
// The session state is unchanged; the user may re-enter the code.
type VerifyError struct {
	Err error
}

func (e *VerifyError) Error() string { return fmt.Sprintf("session: verifying code: %v", e.Err) }
func (e *VerifyError) Unwrap() error { return e.Err }

// RestoreError reports a failed session restore. The persisted token
// is retained; this is a soft error and the caller may retry.
type RestoreError struct {
	Err error
}

func (e *RestoreError) Error() string { return fmt.Sprintf("session: restoring session: %v", e.Err) }
func (e *RestoreError) Unwrap() error { return e.Err }
