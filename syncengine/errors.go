// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import "errors"

// Sentinel errors returned by this package. Callers should use [errors.Is].
var (
	// ErrSyncLocked is returned by [Engine.Sync] when the engine has been
	// locked via [Engine.Lock] — used during sign-out to refuse any further
	// sync activity rather than queue it.
	ErrSyncLocked = errors.New("syncengine: sync is locked")
)
