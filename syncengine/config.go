// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import (
	"time"

	"github.com/MKhiriev/syncvault/crypto"
)

// Config tunes the sync cycle's batching and timing. [New] replaces every
// zero or negative field (and an empty ProtocolVersion) with its
// [DefaultConfig] value, so a zero Config runs with the defaults.
type Config struct {
	// BatchCap is the maximum number of dirty items submitted in a single
	// request. A larger dirty set is split across multiple cycles.
	BatchCap int

	// PageLimit is the "limit" field sent to the server, bounding how many
	// retrieved items come back per page.
	PageLimit int

	// WatchdogInterval is the polling granularity of the in-flight-request
	// watchdog.
	WatchdogInterval time.Duration

	// WatchdogThreshold is how long a request may run before
	// sync:taking-too-long fires once.
	WatchdogThreshold time.Duration

	// ContinuationDelay is the pause between an in-progress multi-round
	// cycle's rounds (paging via cursor_token, or needsMoreSync).
	ContinuationDelay time.Duration

	// MajorChangeThreshold is the minimum item count in any one of
	// retrieved/saved/unsaved that triggers a major-data-change event.
	MajorChangeThreshold int

	// BulkLoadChunkSize is how many locally persisted records are mapped
	// per pass during [Engine.BulkLoad], yielding between passes.
	BulkLoadChunkSize int

	// ProtocolVersion is the envelope version new content is encrypted
	// under. Existing items are always decrypted according to whatever
	// version their own envelope declares.
	ProtocolVersion crypto.ProtocolVersion
}

// DefaultConfig returns the tunables as specified for the sync protocol:
// a 100-item submission cap, a 150-item page size, a 500ms watchdog poll
// cresting at a 5s threshold, a 10ms continuation delay, a major-change
// threshold of 10 items, and 100-record bulk-load chunks under protocol
// version "003".
func DefaultConfig() Config {
	return Config{
		BatchCap:             100,
		PageLimit:            150,
		WatchdogInterval:     500 * time.Millisecond,
		WatchdogThreshold:    5 * time.Second,
		ContinuationDelay:    10 * time.Millisecond,
		MajorChangeThreshold: 10,
		BulkLoadChunkSize:    100,
		ProtocolVersion:      crypto.Version003,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchCap <= 0 {
		c.BatchCap = d.BatchCap
	}
	if c.PageLimit <= 0 {
		c.PageLimit = d.PageLimit
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = d.WatchdogInterval
	}
	if c.WatchdogThreshold <= 0 {
		c.WatchdogThreshold = d.WatchdogThreshold
	}
	if c.ContinuationDelay <= 0 {
		c.ContinuationDelay = d.ContinuationDelay
	}
	if c.MajorChangeThreshold <= 0 {
		c.MajorChangeThreshold = d.MajorChangeThreshold
	}
	if c.BulkLoadChunkSize <= 0 {
		c.BulkLoadChunkSize = d.BulkLoadChunkSize
	}
	if c.ProtocolVersion == "" {
		c.ProtocolVersion = d.ProtocolVersion
	}
	return c
}
