// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item_test

import (
	"testing"
	"time"

	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsDirtyWithDirtyCountOne(t *testing.T) {
	gen := item.NewStubUUIDGenerator("u1")
	it := item.New(gen, "Note", nil)

	assert.Equal(t, "u1", it.UUID)
	assert.True(t, it.Dirty)
	assert.Equal(t, 1, it.DirtyCount)
}

func TestMarkDirty_SetsClientUpdatedAtUnlessOptedOut(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	clk := clock.NewStub(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	it.MarkDirty(clk, false)
	got, ok := it.ClientUpdatedAt()
	require.True(t, ok)
	assert.True(t, got.Equal(clk.Now()))

	clk.Advance(time.Hour)
	it.MarkDirty(clk, true)
	got2, ok := it.ClientUpdatedAt()
	require.True(t, ok)
	assert.False(t, got2.Equal(clk.Now()), "dontUpdateClientDate must not refresh the timestamp")
}

func TestDirtyInvariant_TracksDirtyCount(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	clk := clock.NewStub(time.Now())

	assert.Equal(t, it.Dirty, it.DirtyCount > 0)

	snapshot := it.DirtyCount
	it.MarkDirty(clk, true) // re-dirtied mid-flight
	assert.False(t, it.ClearDirtyIfUnchanged(snapshot), "clearing against a stale snapshot must fail")
	assert.True(t, it.Dirty)
	assert.Equal(t, it.Dirty, it.DirtyCount > 0)

	assert.True(t, it.ClearDirtyIfUnchanged(it.DirtyCount))
	assert.False(t, it.Dirty)
	assert.Equal(t, 0, it.DirtyCount)
}

func TestUpdateFromJSON_DeepMergesContentAndRespectsOmitFields(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", item.Content{"title": "old", "text": "keep me"})

	record := map[string]any{
		"content":    map[string]any{"title": "new"},
		"auth_hash":  "should-be-ignored",
		"updated_at": "2026-01-02T00:00:00Z",
	}

	err := it.UpdateFromJSON(record, map[string]bool{"auth_hash": true})
	require.NoError(t, err)

	assert.Equal(t, "new", it.Content["title"])
	assert.Equal(t, "keep me", it.Content["text"])
	assert.Empty(t, it.AuthHash)
	assert.Equal(t, 2026, it.UpdatedAt.Year())
}

func TestUpdateFromJSON_PreservesClientOnlyFieldsWhenAbsent(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	it.ConflictOf = "some-uuid"

	err := it.UpdateFromJSON(map[string]any{"content_type": "Note"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "some-uuid", it.ConflictOf)
}

func TestRelationships_AddRemoveHasSymmetry(t *testing.T) {
	a := item.New(item.NewStubUUIDGenerator("a"), "Note", nil)

	a.AddItemAsRelationship(item.Reference{UUID: "b", ContentType: "Note"})
	assert.True(t, a.HasRelationshipWithItem("b"))

	a.AddItemAsRelationship(item.Reference{UUID: "b", ContentType: "Note"})
	assert.Len(t, a.Content.References(), 1, "adding the same relationship twice must not duplicate it")

	a.RemoveItemAsRelationship("b")
	assert.False(t, a.HasRelationshipWithItem("b"))
}

func TestBackReferences_AddRemoveHas(t *testing.T) {
	b := item.New(item.NewStubUUIDGenerator("b"), "Note", nil)

	b.AddReferencingObject("a")
	assert.True(t, b.HasReferencingObject("a"))

	b.RemoveReferencingObject("a")
	assert.False(t, b.HasReferencingObject("a"))
}

func TestContentEqual_IgnoresBlacklistedVolatileKeys(t *testing.T) {
	a := item.New(item.NewStubUUIDGenerator("a"), "Note", item.Content{"text": "same"})
	b := item.New(item.NewStubUUIDGenerator("b"), "Note", item.Content{"text": "same"})

	clk := clock.NewStub(time.Now())
	a.MarkDirty(clk, false)
	clk.Advance(time.Hour)
	b.MarkDirty(clk, false)

	assert.True(t, a.ContentEqual(b, item.DefaultEqualityBlacklist()))
}

func TestContentEqual_DetectsRealDifference(t *testing.T) {
	a := item.New(item.NewStubUUIDGenerator("a"), "Note", item.Content{"text": "A"})
	b := item.New(item.NewStubUUIDGenerator("b"), "Note", item.Content{"text": "B"})

	assert.False(t, a.ContentEqual(b, item.DefaultEqualityBlacklist()))
}
