// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"

	"github.com/MKhiriev/syncvault/item"
)

// MapResponse merges a batch of decoded JSON records into the store. It
// implements the two-pass algorithm: pass one merges each record's
// top-level fields and content; pass two resolves cross-item references,
// queuing any that target a not-yet-mapped UUID in the deferred-reference
// table.
//
// omitFields names keys to discard from every record before merging — used
// for "saved" echoes that carry only metadata, so the locally cached
// content and auth_hash are not clobbered by an intentionally truncated
// response.
func (s *ModelStore) MapResponse(records []map[string]any, source Source, omitFields map[string]bool) (Result, error) {
	result := Result{Source: source}
	var hadContent []string

	for _, raw := range records {
		uuid, it, included, hasContent, err := s.mapOneRecord(raw, omitFields, &result)
		if err != nil {
			return Result{}, fmt.Errorf("store: map record: %w", err)
		}
		if !included {
			continue
		}
		if hasContent {
			hadContent = append(hadContent, uuid)
		}
		if !it.ErrorDecrypting {
			result.Mapped = append(result.Mapped, it)
		}
	}

	s.resolveReferences(hadContent)

	if len(s.observers) > 0 {
		s.scheduler.RunSoon(func() {
			for _, obs := range s.observers {
				obs(result)
			}
		})
	}

	return result, nil
}

// mapOneRecord runs pass one for a single record. included reports whether
// the record produced or updated an item (as opposed to being skipped or
// having resulted in an outright deletion, which is recorded directly onto
// result instead).
func (s *ModelStore) mapOneRecord(raw map[string]any, omitFields map[string]bool, result *Result) (uuid string, it *item.Item, included, hasContent bool, err error) {
	record := filterOmitted(raw, omitFields)

	_, hasContentType := record["content_type"]
	contentRaw, recordHasContent := record["content"]
	uuidVal, hasUUID := record["uuid"]
	deletedFlag, _ := record["deleted"].(bool)
	errorDecryptingFlag, _ := record["error_decrypting"].(bool)

	if !hasContentType && !recordHasContent && !hasUUID && !deletedFlag && !errorDecryptingFlag {
		return "", nil, false, false, nil
	}

	uuid, _ = uuidVal.(string)
	if uuid == "" {
		return "", nil, false, false, nil
	}

	if _, pending := s.pendingRemoval[uuid]; pending {
		delete(s.pendingRemoval, uuid)
		return "", nil, false, false, nil
	}

	if s.contentTypeAllowList != nil && hasContentType {
		ct, _ := record["content_type"].(string)
		if !s.contentTypeAllowList[ct] {
			return "", nil, false, false, nil
		}
	}

	existing, exists := s.items[uuid]

	if deletedFlag {
		switch {
		case exists && existing.Dirty:
			existing.Deleted = true
			return "", nil, false, false, nil
		case exists:
			result.Deleted = append(result.Deleted, existing)
			s.remove(uuid)
			return "", nil, false, false, nil
		default:
			return "", nil, false, false, nil
		}
	}

	if exists {
		it = existing
	} else {
		it = &item.Item{UUID: uuid, ReferencingObjects: map[string]struct{}{}}
	}

	if err := it.UpdateFromJSON(record, nil); err != nil {
		return "", nil, false, false, err
	}
	s.insert(it)

	_, isContentMap := contentRaw.(map[string]any)
	return uuid, it, true, recordHasContent && isContentMap, nil
}

// resolveReferences is pass two: for every item that carried a content key
// this batch, install forward/back edges for references that resolve now,
// and defer the rest. Then it finalizes any previously-deferred references
// that target a UUID mapped with a content key in this batch.
func (s *ModelStore) resolveReferences(mappedWithContent []string) {
	for _, fromUUID := range mappedWithContent {
		fromItem, ok := s.items[fromUUID]
		if !ok {
			continue
		}
		for _, ref := range fromItem.Content.References() {
			if target, ok := s.items[ref.UUID]; ok {
				target.AddReferencingObject(fromUUID)
			} else {
				s.addMissedReference(ref.UUID, fromUUID)
			}
		}
	}

	for _, uuid := range mappedWithContent {
		waiting := s.popMissedReferences(uuid)
		if len(waiting) == 0 {
			continue
		}
		target := s.items[uuid]
		for _, fromUUID := range waiting {
			target.AddReferencingObject(fromUUID)
		}
	}
}

func filterOmitted(raw map[string]any, omit map[string]bool) map[string]any {
	if len(omit) == 0 {
		return raw
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if !omit[k] {
			out[k] = v
		}
	}
	return out
}
