// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store implements the in-memory authoritative model of synced
// items: the UUID index, the forward/back reference graph, deferred
// reference resolution for records that arrive out of order, and the UUID
// alternation procedure used when a local identifier collides with a
// server-side one.
//
// A [ModelStore] is the sole owner of every [item.Item] it holds. Other
// components — the sync engine, the singleton resolver, the application —
// look items up by UUID rather than retaining pointers, so that alternation
// (which replaces an item wholesale under a new UUID) never leaves a stale
// reference behind.
package store
