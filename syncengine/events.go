// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import "github.com/MKhiriev/syncvault/item"

// EventType names one of the events the engine emits. Host applications
// register an [Observer] to react to them (refresh a UI, sign the user
// out, surface a toast) without the engine importing any UI concerns.
type EventType string

const (
	// EventSyncCompleted fires once per top-level [Engine.Sync] call, after
	// every continuation round has settled.
	EventSyncCompleted EventType = "sync:completed"

	// EventSyncTakingTooLong fires at most once per network round-trip,
	// when it has been in flight past the watchdog threshold.
	EventSyncTakingTooLong EventType = "sync:taking-too-long"

	// EventSyncUpdatedToken fires whenever sync_token advances.
	EventSyncUpdatedToken EventType = "sync:updated_token"

	// EventSyncError fires when a network round-trip fails outright.
	EventSyncError EventType = "sync:error"

	// EventSyncSessionInvalid fires on HTTP 401; the auth collaborator is
	// expected to sign the user out in response.
	EventSyncSessionInvalid EventType = "sync-session-invalid"

	// EventSyncException fires when an unexpected internal failure (not a
	// transport or authentication-failure condition) aborts a cycle, e.g.
	// the local random source failing mid-encrypt.
	EventSyncException EventType = "sync-exception"

	// EventMajorDataChange fires when a single cycle's retrieved, saved, or
	// unsaved array reaches [Config.MajorChangeThreshold] items — a signal
	// for backup tooling that a lot changed at once.
	EventMajorDataChange EventType = "major-data-change"

	// EventLocalDataLoaded fires exactly once after [Engine.BulkLoad]
	// finishes its last chunk.
	EventLocalDataLoaded EventType = "local-data-loaded"
)

// UnsavedConflict describes the outcome of resolving one "unsaved" entry
// from a sync response: which conflict tag it carried and what the engine
// did about it.
type UnsavedConflict struct {
	Tag             string
	OriginalUUID    string
	ReplacementUUID string // set for "uuid_conflict"; the new UUID after alternation
	DuplicateUUID   string // set for "sync_conflict", when a duplicate was created
}

// CompletedPayload is the detail attached to [EventSyncCompleted].
type CompletedPayload struct {
	RetrievedItems []*item.Item
	SavedItems     []*item.Item
	UnsavedItems   []UnsavedConflict
	InitialSync    bool
}

// Event is delivered to every registered [Observer].
type Event struct {
	Type      EventType
	Completed *CompletedPayload
	Err       error
}

// Observer receives engine events. Observers run synchronously on the
// calling goroutine, in registration order.
type Observer func(Event)
