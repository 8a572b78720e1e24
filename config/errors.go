// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

var (
	// ErrInvalidSyncEngineConfig is returned when a configured sync-engine
	// override is negative or internally inconsistent (e.g. a watchdog
	// interval longer than its own threshold).
	ErrInvalidSyncEngineConfig = errors.New("config: invalid sync engine configuration")

	// ErrInvalidCryptoConfig is returned when a configured crypto override
	// is negative, or attempts to lower the protocol's own minimum cost
	// floor.
	ErrInvalidCryptoConfig = errors.New("config: invalid crypto configuration")
)
