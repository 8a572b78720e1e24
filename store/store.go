// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/internal/logger"
	"github.com/MKhiriev/syncvault/item"
)

// Observer receives a batch of changes after a mapping pass completes.
// Observers are never called re-entrantly from inside a mapping pass; they
// run once the whole batch has been merged, via the store's [Scheduler].
type Observer func(Result)

// UUIDChangeObserver is notified when [ModelStore.AlternateUUID] replaces an
// item with a freshly-identified clone, so collaborators (the singleton
// resolver, application caches keyed by UUID) can rebind.
type UUIDChangeObserver func(old, replacement *item.Item)

// Result is the batch delivered to observers after one mapping pass.
type Result struct {
	Source  Source
	Mapped  []*item.Item
	Deleted []*item.Item
}

// ModelStore is the authoritative in-memory index of items: UUID lookup,
// insertion order, the forward/back reference graph, and the
// deferred-reference table for records that reference an item not yet
// mapped.
type ModelStore struct {
	clk       clock.Clock
	uuidGen   item.UUIDGenerator
	scheduler Scheduler
	log       *logger.Logger

	items          map[string]*item.Item
	order          []string
	pendingRemoval map[string]struct{}

	// missedReferences maps a referenced UUID that has not yet been mapped
	// to the set of UUIDs whose content.references points at it. Keyed by
	// the reference UUID (not the composite key directly) so that popping
	// all entries for a newly-mapped UUID is a single map lookup; the
	// per-target set of from-UUIDs already coalesces duplicate
	// (reference_uuid, from_uuid) pairs.
	missedReferences map[string]map[string]struct{}

	// contentTypeAllowList, when non-nil, restricts which content types
	// pass-1 will accept; anything else is dropped. A nil map means no
	// restriction.
	contentTypeAllowList map[string]bool

	observers           []Observer
	uuidChangeObservers []UUIDChangeObserver
}

// Config configures a [ModelStore]. A zero Config is valid: no content-type
// restriction.
type Config struct {
	// ContentTypeAllowList restricts mapped records to these content
	// types. Empty or nil means unrestricted.
	ContentTypeAllowList []string
}

// New constructs an empty [ModelStore]. log may be nil, in which case a
// no-op logger is used.
func New(cfg Config, clk clock.Clock, uuidGen item.UUIDGenerator, scheduler Scheduler, log *logger.Logger) *ModelStore {
	if log == nil {
		log = logger.Nop()
	}
	if scheduler == nil {
		scheduler = ImmediateScheduler{}
	}

	var allowList map[string]bool
	if len(cfg.ContentTypeAllowList) > 0 {
		allowList = make(map[string]bool, len(cfg.ContentTypeAllowList))
		for _, ct := range cfg.ContentTypeAllowList {
			allowList[ct] = true
		}
	}

	return &ModelStore{
		clk:                  clk,
		uuidGen:              uuidGen,
		scheduler:            scheduler,
		log:                  log,
		items:                map[string]*item.Item{},
		pendingRemoval:       map[string]struct{}{},
		missedReferences:     map[string]map[string]struct{}{},
		contentTypeAllowList: allowList,
	}
}

// Get looks up an item by UUID.
func (s *ModelStore) Get(uuid string) (*item.Item, bool) {
	it, ok := s.items[uuid]
	return it, ok
}

// Count returns the number of items currently indexed.
func (s *ModelStore) Count() int { return len(s.order) }

// All returns every item in insertion order. The returned slice is a fresh
// copy of the index; mutating it does not affect the store.
func (s *ModelStore) All() []*item.Item {
	out := make([]*item.Item, 0, len(s.order))
	for _, uuid := range s.order {
		if it, ok := s.items[uuid]; ok {
			out = append(out, it)
		}
	}
	return out
}

// RegisterObserver adds an observer notified after every mapping pass.
func (s *ModelStore) RegisterObserver(obs Observer) {
	s.observers = append(s.observers, obs)
}

// RegisterUUIDChangeObserver adds an observer notified on every UUID
// alternation.
func (s *ModelStore) RegisterUUIDChangeObserver(obs UUIDChangeObserver) {
	s.uuidChangeObservers = append(s.uuidChangeObservers, obs)
}

func (s *ModelStore) insert(it *item.Item) {
	if _, exists := s.items[it.UUID]; !exists {
		s.order = append(s.order, it.UUID)
	}
	s.items[it.UUID] = it
}

func (s *ModelStore) remove(uuid string) {
	delete(s.items, uuid)
	for i, u := range s.order {
		if u == uuid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a read-only, point-in-time copy of the UUID index keyed
// by UUID, for diagnostic or backup tooling that needs a full-collection
// read without holding a reference into live store state.
func (s *ModelStore) Snapshot() map[string]*item.Item {
	out := make(map[string]*item.Item, len(s.items))
	for uuid, it := range s.items {
		clone := *it
		clone.Content = it.Content.Clone()
		clone.AppData = it.AppData.Clone()
		refs := make(map[string]struct{}, len(it.ReferencingObjects))
		for k := range it.ReferencingObjects {
			refs[k] = struct{}{}
		}
		clone.ReferencingObjects = refs
		out[uuid] = &clone
	}
	return out
}

func (s *ModelStore) addMissedReference(referenceUUID, fromUUID string) {
	set, ok := s.missedReferences[referenceUUID]
	if !ok {
		set = map[string]struct{}{}
		s.missedReferences[referenceUUID] = set
	}
	set[fromUUID] = struct{}{}
}

// popMissedReferences returns and clears every from-UUID waiting on
// referenceUUID.
func (s *ModelStore) popMissedReferences(referenceUUID string) []string {
	set, ok := s.missedReferences[referenceUUID]
	if !ok {
		return nil
	}
	delete(s.missedReferences, referenceUUID)

	out := make([]string, 0, len(set))
	for fromUUID := range set {
		out = append(out, fromUUID)
	}
	return out
}

// MissedReferenceCount reports the number of distinct referenced UUIDs
// still awaiting resolution, for tests asserting the table does not grow
// unboundedly.
func (s *ModelStore) MissedReferenceCount() int {
	return len(s.missedReferences)
}

// MarkPendingRemoval removes uuid from the index and remembers it in a
// short-lived pending-removal set, so that a late server echo for the same
// UUID (a retrieved record arriving after the deletion was already
// acknowledged) is dropped instead of resurrecting the item. Call this once
// the sync engine has confirmed the server accepted the deletion.
func (s *ModelStore) MarkPendingRemoval(uuid string) {
	s.remove(uuid)
	s.pendingRemoval[uuid] = struct{}{}
}

// PendingRemovalCount reports how many UUIDs are currently protected
// against resurrection by a late echo.
func (s *ModelStore) PendingRemovalCount() int {
	return len(s.pendingRemoval)
}

// Adopt indexes it directly, bypassing the JSON mapping pipeline — for
// items constructed in-process (sync-conflict duplicates, singleton
// creation) rather than decoded from a server or disk record. Forward
// references inside it.Content are resolved the same way pass two resolves
// them for mapped records.
func (s *ModelStore) Adopt(it *item.Item) {
	if it.ReferencingObjects == nil {
		it.ReferencingObjects = map[string]struct{}{}
	}
	s.insert(it)
	s.resolveReferences([]string{it.UUID})
}

// Reap removes uuid from the index outright, with no pending-removal
// tracking. Used for deleted items that were never (and, offline, will
// never be) round-tripped through a server, so there is no late echo to
// guard against. Reports whether uuid was present.
func (s *ModelStore) Reap(uuid string) bool {
	_, exists := s.items[uuid]
	if exists {
		s.remove(uuid)
	}
	return exists
}
