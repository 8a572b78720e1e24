// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"

	"github.com/MKhiriev/syncvault/crypto"
	"github.com/MKhiriev/syncvault/syncengine"
)

// Config is the top-level configuration container. It aggregates the
// sub-configurations for every package that exposes deployment-tunable
// parameters.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// SyncEngine holds the sync cycle's batching and timing parameters.
	SyncEngine SyncEngine `envPrefix:"SYNC_"`

	// Crypto holds the key-derivation cost floors enforced at login.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// JSONFilePath is the optional path to a JSON configuration file. When
	// non-empty, the file is parsed and merged after the values already
	// loaded from environment variables and flags; its values only fill
	// fields those sources left at their zero value.
	JSONFilePath string `env:"CONFIG"`
}

// SyncEngine mirrors [syncengine.Config] with env/flag/JSON bindings. A zero
// field here means "use the syncengine package's own default" — see
// [SyncEngine.ToEngineConfig].
type SyncEngine struct {
	// BatchCap is the maximum number of dirty items submitted per request.
	// Env: SYNC_BATCH_CAP
	BatchCap int `env:"BATCH_CAP"`

	// PageLimit bounds how many retrieved items come back per page.
	// Env: SYNC_PAGE_LIMIT
	PageLimit int `env:"PAGE_LIMIT"`

	// WatchdogInterval is the in-flight-request watchdog's polling
	// granularity (e.g. "500ms").
	// Env: SYNC_WATCHDOG_INTERVAL
	WatchdogInterval time.Duration `env:"WATCHDOG_INTERVAL"`

	// WatchdogThreshold is how long a request may run before
	// sync:taking-too-long fires once (e.g. "5s").
	// Env: SYNC_WATCHDOG_THRESHOLD
	WatchdogThreshold time.Duration `env:"WATCHDOG_THRESHOLD"`

	// ContinuationDelay is the pause between a multi-round cycle's rounds
	// (e.g. "10ms").
	// Env: SYNC_CONTINUATION_DELAY
	ContinuationDelay time.Duration `env:"CONTINUATION_DELAY"`

	// MajorChangeThreshold is the minimum retrieved/saved/unsaved count that
	// triggers a major-data-change event.
	// Env: SYNC_MAJOR_CHANGE_THRESHOLD
	MajorChangeThreshold int `env:"MAJOR_CHANGE_THRESHOLD"`

	// BulkLoadChunkSize is how many locally persisted records are mapped per
	// pass during a bulk load.
	// Env: SYNC_BULK_LOAD_CHUNK_SIZE
	BulkLoadChunkSize int `env:"BULK_LOAD_CHUNK_SIZE"`
}

// ToEngineConfig converts s into a [syncengine.Config]. Fields left at their
// zero value fall back to [syncengine.DefaultConfig]; the substitution
// happens inside [syncengine.New], not here.
func (s SyncEngine) ToEngineConfig() syncengine.Config {
	return syncengine.Config{
		BatchCap:             s.BatchCap,
		PageLimit:            s.PageLimit,
		WatchdogInterval:     s.WatchdogInterval,
		WatchdogThreshold:    s.WatchdogThreshold,
		ContinuationDelay:    s.ContinuationDelay,
		MajorChangeThreshold: s.MajorChangeThreshold,
		BulkLoadChunkSize:    s.BulkLoadChunkSize,
	}
}

// Crypto holds deployment overrides for the PBKDF2 cost floors [crypto.
// CheckMinimumCost] enforces by default. An override is only useful for
// raising a floor above the package default (e.g. a deployment that wants
// "003" accounts to cost more than the baseline 110,000 iterations);
// overrides below the package default are rejected by [Config.validate] so a
// misconfigured deployment can never weaken the protocol's own floor.
type Crypto struct {
	// MinPwCost003 overrides the minimum PBKDF2 iteration count accepted for
	// protocol version "003". Zero means "use the package default".
	// Env: CRYPTO_MIN_PW_COST_003
	MinPwCost003 int `env:"MIN_PW_COST_003"`
}

// MinimumCost returns the effective minimum cost for version: the configured
// override if one is set and at least as strict as the package default,
// otherwise the package default from [crypto.MinimumCost].
func (c Crypto) MinimumCost(version crypto.ProtocolVersion) int {
	base := crypto.MinimumCost(version)
	if version == crypto.Version003 && c.MinPwCost003 > base {
		return c.MinPwCost003
	}
	return base
}

// Get loads, merges, and validates configuration from all available sources
// in the following order (the first source to set a field to a non-zero
// value wins; later sources only fill fields still at their zero value):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func Get() (*Config, error) {
	return newBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
