// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package syncengine drives the at-most-one-in-flight sync cycle: collecting
// the dirty set from a [store.ModelStore], encrypting it, exchanging it with
// a [transport.SyncTransport], mapping the response back into the store,
// and resolving uuid_conflict/sync_conflict entries the server refuses.
//
// A single [Engine] is safe for concurrent [Engine.Sync] callers: a second
// call arriving while a cycle is in flight is queued and triggers exactly
// one repeat cycle once the first completes, rather than running two
// network round-trips concurrently.
package syncengine
