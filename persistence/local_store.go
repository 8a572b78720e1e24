// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package persistence

import "context"

//go:generate mockgen -source=local_store.go -destination=../internal/mock/local_store_mock.go -package=mock

// LocalStore is the on-disk collaborator the sync engine writes through
// before (and independently of) any network round-trip, so that a crash
// mid-flight leaves the local store authoritative.
//
// Records are the same JSON-shaped maps the model store's MapResponse
// consumes and produces — this package does not define its own item
// representation.
type LocalStore interface {
	// SaveItems persists records, keyed by their "uuid" field, overwriting
	// any existing record with the same UUID.
	SaveItems(ctx context.Context, records []map[string]any) error

	// LoadAllItems returns every persisted record, in storage order. Used
	// by the bulk loader on startup.
	LoadAllItems(ctx context.Context) ([]map[string]any, error)

	// DeleteItems permanently removes the records identified by uuids.
	DeleteItems(ctx context.Context, uuids []string) error

	// PutValue persists a single opaque key/value pair — the sync and
	// cursor tokens, the wrapped master keys, auth params, the session
	// JWT, completed-migration markers, and session-history entries all
	// go through this one path.
	PutValue(ctx context.Context, key, value string) error

	// GetValue retrieves a previously stored value. ok is false if key has
	// never been set.
	GetValue(ctx context.Context, key string) (value string, ok bool, err error)
}
