// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package transport defines the sync engine's network collaborator: the
// request/response shapes exchanged with a sync server and the
// [SyncTransport] interface the engine drives. [HTTPSyncTransport] is the
// concrete resty-based implementation; tests and alternate transports
// (in-process, gRPC) can satisfy the interface directly.
package transport
