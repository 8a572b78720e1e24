// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item

import (
	"fmt"
	"time"

	"github.com/MKhiriev/syncvault/internal/clock"
)

// clientAppDataDomain and clientUpdatedAtKey locate the one piece of
// client-only metadata every dirty-mutation touches: the local edit
// timestamp, nested under a reserved domain inside AppData so it survives
// the same deep-merge rules as any other app-data key.
const (
	clientAppDataDomain = "client"
	clientUpdatedAtKey  = "client_updated_at"
)

// AppData is a mapping from domain name to a mapping of key to value,
// reserved for client-side metadata that never leaves the device (the
// server only ever sees Content).
type AppData map[string]map[string]any

// Clone returns a deep copy of a.
func (a AppData) Clone() AppData {
	if a == nil {
		return nil
	}
	out := make(AppData, len(a))
	for domain, kv := range a {
		out[domain] = deepCopyMap(kv)
	}
	return out
}

func (a AppData) get(domain, key string) (any, bool) {
	kv, ok := a[domain]
	if !ok {
		return nil, false
	}
	v, ok := kv[key]
	return v, ok
}

func (a *AppData) set(domain, key string, value any) {
	if *a == nil {
		*a = AppData{}
	}
	if (*a)[domain] == nil {
		(*a)[domain] = map[string]any{}
	}
	(*a)[domain][key] = value
}

// Item is the unit of storage and sync: an identity, an application-defined
// content blob, cross-item references, client-local metadata, and the
// dirty/error state that drives the sync engine.
//
// Items are owned exclusively by a model store. Every other component
// should hold an Item by UUID and look it up through the store rather than
// retain a pointer across mutations — UUID alternation (see the store
// package) replaces an Item wholesale, and a cached pointer would go stale.
type Item struct {
	UUID        string
	ContentType string
	Content     Content
	AppData     AppData

	// CreatedAt and UpdatedAt are set or refreshed by the server on save.
	// A freshly-created local item has a zero CreatedAt until its first
	// successful sync.
	CreatedAt time.Time
	UpdatedAt time.Time

	// EncItemKey, AuthHash, and AuthParams are the encryption envelope
	// fields. They are meaningful only in transit and at rest; an item
	// freshly decrypted for local use carries them for round-tripping but
	// application code should not interpret them.
	EncItemKey string
	AuthHash   string
	AuthParams string

	Deleted                     bool
	Dirty                       bool
	DirtyCount                  int
	ErrorDecrypting             bool
	ErrorDecryptingValueChanged bool
	ConflictOf                  string

	// RawContent preserves the original wire-format envelope string
	// verbatim when ErrorDecrypting is true. Content is left untouched (or
	// empty) in that case; the only permitted mutation on such an item is
	// deletion, per the authentication-failure handling in the crypto
	// package's envelope contract.
	RawContent string

	// dummy marks a placeholder created to hold a forward reference before
	// the real record arrived; cleared the moment a real record merges in.
	dummy bool

	// ReferencingObjects is the back-reference set: UUIDs of items whose
	// content.references currently points at this item. It is maintained
	// exclusively by the owning model store and is never serialized.
	ReferencingObjects map[string]struct{}
}

// New constructs a fresh, dirty Item with a freshly generated UUID.
func New(uuidGen UUIDGenerator, contentType string, content Content) *Item {
	if content == nil {
		content = Content{}
	}
	return &Item{
		UUID:               uuidGen.Generate(),
		ContentType:        contentType,
		Content:            content,
		AppData:            AppData{},
		ReferencingObjects: map[string]struct{}{},
		Dirty:              true,
		DirtyCount:         1,
	}
}

// IsDummy reports whether this item is a placeholder pending its real
// record.
func (it *Item) IsDummy() bool { return it.dummy }

// MarkDummy flags this item as a placeholder. Used by the model store when
// a reference is resolved before the referenced record has arrived.
func (it *Item) MarkDummy() { it.dummy = true }

// clearDummy clears the placeholder flag; called whenever a real record
// merges into this item.
func (it *Item) clearDummy() { it.dummy = false }

// ClientUpdatedAt returns the client-local edit timestamp, if any has been
// recorded.
func (it *Item) ClientUpdatedAt() (time.Time, bool) {
	v, ok := it.AppData.get(clientAppDataDomain, clientUpdatedAtKey)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func (it *Item) touchClientUpdatedAt(clk clock.Clock) {
	it.AppData.set(clientAppDataDomain, clientUpdatedAtKey, clk.Now().Format(time.RFC3339Nano))
}

// MarkDirty records a local mutation: Dirty is set true, DirtyCount is
// incremented, and — unless dontUpdateClientDate opts out — the client-side
// edit timestamp is refreshed via clk. Every application mutation that
// changes synced state should call this exactly once.
func (it *Item) MarkDirty(clk clock.Clock, dontUpdateClientDate bool) {
	it.DirtyCount++
	it.Dirty = true
	if !dontUpdateClientDate {
		it.touchClientUpdatedAt(clk)
	}
}

// ClearDirtyIfUnchanged clears the dirty flag only if DirtyCount still
// equals observedCount, the snapshot taken before the item was submitted
// for sync. If the item was re-dirtied while the request was in flight,
// DirtyCount will have advanced past observedCount and this is a no-op,
// preserving the item's dirty state for the next cycle.
func (it *Item) ClearDirtyIfUnchanged(observedCount int) bool {
	if it.DirtyCount != observedCount {
		return false
	}
	it.DirtyCount = 0
	it.Dirty = false
	return true
}

// QualifiesForSync reports whether the item belongs in the dirty set for a
// sync cycle: dirty, not a dummy placeholder, and either not in an
// unresolved decrypt-error state or being deleted (deletions of
// errorDecrypting items are still permitted to sync).
func (it *Item) QualifiesForSync() bool {
	return it.Dirty && !it.dummy && (!it.ErrorDecrypting || it.Deleted)
}

// UpdateFromJSON deep-merges record into the item: content is merged key by
// key (not replaced), top-level fields are overwritten only when present in
// record, and any key named in omitFields is skipped entirely. This is the
// single mutation path used for every source the model store maps from.
//
// Client-only fields (dirty, conflict_of, app_data) are only touched if
// record explicitly carries them — a server echo that never mentions
// "dirty" must not reset it.
func (it *Item) UpdateFromJSON(record map[string]any, omitFields map[string]bool) error {
	has := func(key string) bool {
		if omitFields[key] {
			return false
		}
		_, ok := record[key]
		return ok
	}

	if has("uuid") {
		if s, ok := record["uuid"].(string); ok {
			it.UUID = s
		}
	}
	if has("content_type") {
		if s, ok := record["content_type"].(string); ok {
			it.ContentType = s
		}
	}
	if has("content") {
		if cm, ok := record["content"].(map[string]any); ok {
			if it.Content == nil {
				it.Content = Content{}
			}
			mergeInto(it.Content, cm)
		}
	}
	if has("app_data") {
		if am, ok := record["app_data"].(map[string]any); ok {
			for domain, kv := range am {
				if kvm, ok := kv.(map[string]any); ok {
					for k, v := range kvm {
						it.AppData.set(domain, k, v)
					}
				}
			}
		}
	}
	if has("enc_item_key") {
		if s, ok := record["enc_item_key"].(string); ok {
			it.EncItemKey = s
		}
	}
	if has("auth_hash") {
		if s, ok := record["auth_hash"].(string); ok {
			it.AuthHash = s
		}
	}
	if has("auth_params") {
		if s, ok := record["auth_params"].(string); ok {
			it.AuthParams = s
		}
	}
	if has("created_at") {
		t, err := parseTimestamp(record["created_at"])
		if err != nil {
			return fmt.Errorf("item: parse created_at: %w", err)
		}
		it.CreatedAt = t
	}
	if has("updated_at") {
		t, err := parseTimestamp(record["updated_at"])
		if err != nil {
			return fmt.Errorf("item: parse updated_at: %w", err)
		}
		it.UpdatedAt = t
	}
	if has("deleted") {
		if b, ok := record["deleted"].(bool); ok {
			it.Deleted = b
		}
	}
	if has("conflict_of") {
		if s, ok := record["conflict_of"].(string); ok {
			it.ConflictOf = s
		}
	}
	if has("dirty") {
		if b, ok := record["dirty"].(bool); ok {
			it.Dirty = b
		}
	}
	if has("error_decrypting") {
		if b, ok := record["error_decrypting"].(bool); ok {
			it.ErrorDecryptingValueChanged = b != it.ErrorDecrypting
			it.ErrorDecrypting = b
		}
	}
	if has("raw_content") {
		if s, ok := record["raw_content"].(string); ok {
			it.RawContent = s
		}
	}

	it.clearDummy()
	return nil
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimestamp, v)
	}
}

// AddItemAsRelationship records a forward reference from it to target,
// appending it to it.Content's references array unless already present.
func (it *Item) AddItemAsRelationship(target Reference) {
	if it.Content == nil {
		it.Content = Content{}
	}
	refs := it.Content.References()
	for _, r := range refs {
		if r.UUID == target.UUID {
			return
		}
	}
	it.Content.SetReferences(append(refs, target))
}

// RemoveItemAsRelationship removes any forward reference to targetUUID.
func (it *Item) RemoveItemAsRelationship(targetUUID string) {
	if it.Content == nil {
		return
	}
	refs := it.Content.References()
	out := refs[:0:0]
	for _, r := range refs {
		if r.UUID != targetUUID {
			out = append(out, r)
		}
	}
	it.Content.SetReferences(out)
}

// HasRelationshipWithItem reports whether it.Content currently references
// targetUUID.
func (it *Item) HasRelationshipWithItem(targetUUID string) bool {
	for _, r := range it.Content.References() {
		if r.UUID == targetUUID {
			return true
		}
	}
	return false
}

// AddReferencingObject records that fromUUID now has a forward reference to
// it. Called exclusively by the owning model store while resolving
// references; application code should never call this directly.
func (it *Item) AddReferencingObject(fromUUID string) {
	if it.ReferencingObjects == nil {
		it.ReferencingObjects = map[string]struct{}{}
	}
	it.ReferencingObjects[fromUUID] = struct{}{}
}

// RemoveReferencingObject removes fromUUID from the back-reference set.
func (it *Item) RemoveReferencingObject(fromUUID string) {
	delete(it.ReferencingObjects, fromUUID)
}

// HasReferencingObject reports whether fromUUID is recorded as referencing
// it.
func (it *Item) HasReferencingObject(fromUUID string) bool {
	_, ok := it.ReferencingObjects[fromUUID]
	return ok
}

// DefaultEqualityBlacklist is the minimum set of keys [Item.ContentEqual]
// ignores: volatile, client-local metadata that should never by itself
// make two otherwise-identical contents compare unequal.
func DefaultEqualityBlacklist() map[string]bool {
	return map[string]bool{clientUpdatedAtKey: true}
}

// ContentEqual deep-compares it's content and app-data against other's,
// ignoring any key named in blacklist at any depth. A nil blacklist is
// equivalent to an empty one; callers that want the standard volatile-key
// exclusions should pass [DefaultEqualityBlacklist].
func (it *Item) ContentEqual(other *Item, blacklist map[string]bool) bool {
	if it.ContentType != other.ContentType {
		return false
	}
	if !deepEqualIgnoring(map[string]any(it.Content), map[string]any(other.Content), blacklist) {
		return false
	}
	return appDataEqualIgnoring(it.AppData, other.AppData, blacklist)
}

func appDataEqualIgnoring(a, b AppData, blacklist map[string]bool) bool {
	domains := map[string]struct{}{}
	for d := range a {
		domains[d] = struct{}{}
	}
	for d := range b {
		domains[d] = struct{}{}
	}
	for d := range domains {
		if !deepEqualIgnoring(map[string]any(a[d]), map[string]any(b[d]), blacklist) {
			return false
		}
	}
	return true
}

func deepEqualIgnoring(a, b map[string]any, blacklist map[string]bool) bool {
	keys := map[string]struct{}{}
	for k := range a {
		if !blacklist[k] {
			keys[k] = struct{}{}
		}
	}
	for k := range b {
		if !blacklist[k] {
			keys[k] = struct{}{}
		}
	}
	for k := range keys {
		if !valueEqualIgnoring(a[k], b[k], blacklist) {
			return false
		}
	}
	return true
}

func valueEqualIgnoring(a, b any, blacklist map[string]bool) bool {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok || bok {
		if !aok || !bok {
			return false
		}
		return deepEqualIgnoring(am, bm, blacklist)
	}

	aSlice, aok := a.([]any)
	bSlice, bok := b.([]any)
	if aok || bok {
		if !aok || !bok || len(aSlice) != len(bSlice) {
			return false
		}
		for i := range aSlice {
			if !valueEqualIgnoring(aSlice[i], bSlice[i], blacklist) {
				return false
			}
		}
		return true
	}

	return a == b
}
