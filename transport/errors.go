// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import "errors"

// Sentinel errors produced by [SyncTransport] implementations when the
// server returns a non-2xx HTTP status. Callers should use [errors.Is].
var (
	// ErrUnauthorized is returned on HTTP 401. The sync engine maps this to
	// a sync-session-invalid event; the auth collaborator is expected to
	// sign the user out.
	ErrUnauthorized = errors.New("transport: unauthorized")

	// ErrBadRequest is returned on HTTP 400.
	ErrBadRequest = errors.New("transport: bad request")

	// ErrServerError is returned for any HTTP 5xx status.
	ErrServerError = errors.New("transport: server error")
)
