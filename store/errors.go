// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by this package. Callers should use [errors.Is]
// to match against these values.
var (
	// ErrItemNotFound is returned when an operation addresses an item UUID
	// the store does not hold.
	ErrItemNotFound = errors.New("store: item not found")
)
