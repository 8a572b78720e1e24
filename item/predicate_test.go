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

func TestPredicate_EqualOperator(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", item.Content{"title": "groceries"})
	clk := clock.NewStub(time.Now())

	p := item.Predicate{KeyPath: "content.title", Operator: item.OpEqual, Value: "groceries"}
	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok)

	p.Value = "other"
	ok, err = p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicate_StartsWith(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", item.Content{"title": "groceries for Tuesday"})
	clk := clock.NewStub(time.Now())

	p := item.Predicate{KeyPath: "content.title", Operator: item.OpStartsWith, Value: "groceries"}
	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicate_In(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Tag", item.Content{"name": "work"})
	clk := clock.NewStub(time.Now())

	p := item.Predicate{KeyPath: "content.name", Operator: item.OpIn, Value: []any{"home", "work", "travel"}}
	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicate_Matches(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", item.Content{"title": "invoice-2026-01"})
	clk := clock.NewStub(time.Now())

	p := item.Predicate{KeyPath: "content.title", Operator: item.OpMatches, Value: `^invoice-\d{4}-\d{2}$`}
	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPredicate_RelativeDate_DaysAgo(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewStub(now)

	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	it.CreatedAt = now.Add(-48 * time.Hour)

	p := item.Predicate{KeyPath: "created_at", Operator: item.OpGreaterEq, Value: "3.days.ago"}
	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok, "created 2 days ago should satisfy >= 3.days.ago")

	p.Value = "1.days.ago"
	ok, err = p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.False(t, ok, "created 2 days ago should not satisfy >= 1.days.ago")
}

func TestPredicate_Includes_NestedPredicateOverReferences(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	it.AddItemAsRelationship(item.Reference{UUID: "tag-1", ContentType: "Tag"})
	it.AddItemAsRelationship(item.Reference{UUID: "tag-2", ContentType: "Tag"})
	clk := clock.NewStub(time.Now())

	nested := &item.Predicate{KeyPath: "uuid", Operator: item.OpEqual, Value: "tag-2"}
	p := item.Predicate{KeyPath: "content.references", Operator: item.OpIncludes, Value: nested}

	ok, err := p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.True(t, ok)

	nested.Value = "tag-3"
	ok, err = p.Evaluate(it, clk)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicate_UnknownOperator(t *testing.T) {
	it := item.New(item.NewStubUUIDGenerator("u1"), "Note", nil)
	clk := clock.NewStub(time.Now())

	p := item.Predicate{KeyPath: "uuid", Operator: "nonsense", Value: "x"}
	_, err := p.Evaluate(it, clk)
	assert.ErrorIs(t, err, item.ErrUnknownOperator)
}
