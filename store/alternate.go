// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"

	"github.com/MKhiriev/syncvault/item"
)

// AlternateUUID re-issues a fresh UUID for the item currently stored under
// uuid. It is used when the server reports a uuid_conflict (this UUID
// collides with a distinct server item) or when a populated account is
// first linked to a client that was used offline.
//
// The original item is marked deleted and non-dirty — the old UUID is never
// pushed to the server again — and then removed from the index through the
// ordinary deletion path, while a clone
// under a new UUID inherits its content and references and is marked
// dirty so the next sync cycle pushes it under its new identity. Every
// item that referenced the original is rewritten to reference the clone
// and marked dirty.
func (s *ModelStore) AlternateUUID(uuid string) (*item.Item, error) {
	original, ok := s.items[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, uuid)
	}

	replacement := &item.Item{
		UUID:               s.uuidGen.Generate(),
		ContentType:        original.ContentType,
		Content:            original.Content.Clone(),
		AppData:            original.AppData.Clone(),
		ReferencingObjects: map[string]struct{}{},
		Dirty:              true,
		DirtyCount:         1,
	}

	for _, obs := range s.uuidChangeObservers {
		obs(original, replacement)
	}

	for fromUUID := range original.ReferencingObjects {
		referencer, ok := s.items[fromUUID]
		if !ok {
			continue
		}
		referencer.RemoveItemAsRelationship(uuid)
		referencer.AddItemAsRelationship(item.Reference{UUID: replacement.UUID, ContentType: replacement.ContentType})
		referencer.MarkDirty(s.clk, true)
		replacement.AddReferencingObject(fromUUID)
	}

	original.Content.SetReferences(nil)
	original.Deleted = true
	original.Dirty = false

	// Run the tombstoned original back through the ordinary deletion path
	// so observers learn of its removal the same way they would for a
	// server-confirmed delete, rather than through a bespoke notification.
	if _, err := s.MapResponse([]map[string]any{{"uuid": uuid, "deleted": true}}, RemoteRetrieved, nil); err != nil {
		return nil, fmt.Errorf("store: alternate uuid %q: %w", uuid, err)
	}

	s.insert(replacement)

	return replacement, nil
}
