// Copyright 2026 The Corkboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds the client's authentication state: the bearer
// token and the user identity behind it. The lifecycle is
//
//	Anonymous → (RequestCode) → CodeRequested → (VerifyCode) → Authenticated → (Logout) → Anonymous
//
// with two deliberate asymmetries: a failed VerifyCode leaves the
// state at CodeRequested so the user can re-enter the code, and a
// failed Restore retains the persisted token rather than forcing
// logout, since the client cannot reliably tell a network blip from a
// revoked token, and evicting a valid session on a blip is the worse
// failure.
//
// All other components are inert while the session is anonymous;
// dependent state (the capability flag, the ticket store) registers a
// hook via OnLogout and is cleared on every transition to anonymous.
package session
