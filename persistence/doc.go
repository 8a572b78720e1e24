// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package persistence defines the local on-disk collaborator the sync
// engine and bulk loader depend on. It is interface-only: concrete
// implementations (SQLite, a flat file, an in-memory store for tests) are
// expected to live outside this module and satisfy [LocalStore].
package persistence
