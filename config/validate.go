// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "github.com/MKhiriev/syncvault/crypto"

// validate checks that any non-zero override in cfg is internally
// consistent. Zero fields are left alone here — they mean "use the
// package default" and are resolved downstream by [SyncEngine.
// ToEngineConfig]'s caller and by [Crypto.MinimumCost].
func (cfg *Config) validate() error {
	s := cfg.SyncEngine
	if s.BatchCap < 0 || s.PageLimit < 0 || s.MajorChangeThreshold < 0 || s.BulkLoadChunkSize < 0 {
		return ErrInvalidSyncEngineConfig
	}
	if s.WatchdogInterval < 0 || s.WatchdogThreshold < 0 || s.ContinuationDelay < 0 {
		return ErrInvalidSyncEngineConfig
	}
	if s.WatchdogInterval > 0 && s.WatchdogThreshold > 0 && s.WatchdogInterval > s.WatchdogThreshold {
		return ErrInvalidSyncEngineConfig
	}

	if cfg.Crypto.MinPwCost003 < 0 {
		return ErrInvalidCryptoConfig
	}
	if cfg.Crypto.MinPwCost003 > 0 && cfg.Crypto.MinPwCost003 < crypto.MinimumCost(crypto.Version003) {
		return ErrInvalidCryptoConfig
	}

	return nil
}
