// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/item"
	"github.com/MKhiriev/syncvault/store"
	"github.com/MKhiriev/syncvault/syncengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBulkLoadRecords(n int) []map[string]any {
	records := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, map[string]any{
			"uuid":         fmt.Sprintf("item-%d", i),
			"content_type": "Note",
			"content":      map[string]any{"text": fmt.Sprintf("note %d", i)},
		})
	}
	return records
}

func TestBulkLoad_ChunksAndYieldsBetweenButNotAfterLastChunk(t *testing.T) {
	s := store.New(store.Config{}, clock.NewStub(time.Now()), item.NewStubUUIDGenerator("gen"), store.ImmediateScheduler{}, nil)
	eng := syncengine.New(syncengine.Params{
		Store:     s,
		Transport: &fakeTransport{},
		Local:     newFakeLocalStore(),
		KeySource: syncengine.StaticKeySource{},
		Clock:     clock.NewStub(time.Now()),
		Config:    syncengine.DefaultConfig(), // BulkLoadChunkSize: 100
	})

	var events []syncengine.Event
	eng.RegisterObserver(func(ev syncengine.Event) { events = append(events, ev) })

	yieldCalls := 0
	records := buildBulkLoadRecords(250)

	err := eng.BulkLoad(context.Background(), records, func() { yieldCalls++ })
	require.NoError(t, err)

	assert.Equal(t, 2, yieldCalls, "yield runs between the 3 chunks of a 250/100 split, never after the last")
	assert.Equal(t, 250, s.Count())
	assert.Equal(t, 1, countEventsOfType(events, syncengine.EventLocalDataLoaded))
}

func TestBulkLoad_EmptyInputStillFiresLocalDataLoadedOnce(t *testing.T) {
	s := store.New(store.Config{}, clock.NewStub(time.Now()), item.NewStubUUIDGenerator("gen"), store.ImmediateScheduler{}, nil)
	eng := syncengine.New(syncengine.Params{
		Store:     s,
		Transport: &fakeTransport{},
		Local:     newFakeLocalStore(),
		KeySource: syncengine.StaticKeySource{},
		Clock:     clock.NewStub(time.Now()),
		Config:    syncengine.DefaultConfig(),
	})

	var events []syncengine.Event
	eng.RegisterObserver(func(ev syncengine.Event) { events = append(events, ev) })

	err := eng.BulkLoad(context.Background(), nil, func() { t.Fatal("yield must not run with nothing to chunk") })
	require.NoError(t, err)

	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 1, countEventsOfType(events, syncengine.EventLocalDataLoaded))
}

func TestBulkLoad_ExactMultipleOfChunkSizeYieldsBetweenEveryChunkButLast(t *testing.T) {
	s := store.New(store.Config{}, clock.NewStub(time.Now()), item.NewStubUUIDGenerator("gen"), store.ImmediateScheduler{}, nil)
	eng := syncengine.New(syncengine.Params{
		Store:     s,
		Transport: &fakeTransport{},
		Local:     newFakeLocalStore(),
		KeySource: syncengine.StaticKeySource{},
		Clock:     clock.NewStub(time.Now()),
		Config:    syncengine.Config{BulkLoadChunkSize: 50},
	})

	yieldCalls := 0
	records := buildBulkLoadRecords(150)

	err := eng.BulkLoad(context.Background(), records, func() { yieldCalls++ })
	require.NoError(t, err)

	assert.Equal(t, 2, yieldCalls)
	assert.Equal(t, 150, s.Count())
}

func TestBulkLoad_ContextCancelledMidChunkStopsWithoutFinishing(t *testing.T) {
	s := store.New(store.Config{}, clock.NewStub(time.Now()), item.NewStubUUIDGenerator("gen"), store.ImmediateScheduler{}, nil)
	eng := syncengine.New(syncengine.Params{
		Store:     s,
		Transport: &fakeTransport{},
		Local:     newFakeLocalStore(),
		KeySource: syncengine.StaticKeySource{},
		Clock:     clock.NewStub(time.Now()),
		Config:    syncengine.Config{BulkLoadChunkSize: 50},
	})

	ctx, cancel := context.WithCancel(context.Background())
	records := buildBulkLoadRecords(150)

	var events []syncengine.Event
	eng.RegisterObserver(func(ev syncengine.Event) { events = append(events, ev) })

	err := eng.BulkLoad(ctx, records, func() { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, countEventsOfType(events, syncengine.EventLocalDataLoaded), "a cancelled load must not report itself complete")
}

func countEventsOfType(events []syncengine.Event, t syncengine.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
