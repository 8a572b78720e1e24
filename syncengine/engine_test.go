// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/syncvault/crypto"
	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/item"
	"github.com/MKhiriev/syncvault/store"
	"github.com/MKhiriev/syncvault/syncengine"
	"github.com/MKhiriev/syncvault/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu        sync.Mutex
	calls     []transport.SyncRequest
	responses []transport.SyncResponse
	errs      []error
	next      int
	block     chan struct{}
}

func (f *fakeTransport) Sync(ctx context.Context, req transport.SyncRequest) (transport.SyncResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	idx := f.next
	f.next++
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}

	if idx < len(f.errs) && f.errs[idx] != nil {
		return transport.SyncResponse{}, f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return transport.SyncResponse{SyncToken: "unset"}, nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLocalStore struct {
	mu      sync.Mutex
	saved   [][]map[string]any
	deleted [][]string
	values  map[string]string
}

func newFakeLocalStore() *fakeLocalStore {
	return &fakeLocalStore{values: map[string]string{}}
}

func (f *fakeLocalStore) SaveItems(ctx context.Context, records []map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, records)
	return nil
}

func (f *fakeLocalStore) LoadAllItems(ctx context.Context) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeLocalStore) DeleteItems(ctx context.Context, uuids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uuids)
	return nil
}

func (f *fakeLocalStore) PutValue(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeLocalStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func newTestStore() *store.ModelStore {
	return store.New(store.Config{}, clock.NewStub(time.Now()), item.NewStubUUIDGenerator("generated-1", "generated-2"), store.ImmediateScheduler{}, nil)
}

func readyKeys() syncengine.StaticKeySource {
	return syncengine.StaticKeySource{
		Master: crypto.MasterKeys{
			Pw: make([]byte, 32),
			Mk: make([]byte, 32),
			Ak: make([]byte, 32),
		},
		Params: crypto.AuthParams{Version: crypto.Version003, PwCost: 110_000, Identifier: "user@example.com"},
		Ready:  true,
	}
}

func newEngine(t *testing.T, s *store.ModelStore, tr transport.SyncTransport, local *fakeLocalStore, keys syncengine.KeySource, cfg syncengine.Config) *syncengine.Engine {
	t.Helper()
	return syncengine.New(syncengine.Params{
		Store:         s,
		Transport:     tr,
		Local:         local,
		KeySource:     keys,
		Clock:         clock.NewStub(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		RandomSource:  crypto.NewDeterministicRandom(1),
		UUIDGenerator: item.NewStubUUIDGenerator("generated-1", "generated-2"),
		Config:        cfg,
	})
}

func collectEvents(eng *syncengine.Engine) *[]syncengine.Event {
	events := &[]syncengine.Event{}
	eng.RegisterObserver(func(ev syncengine.Event) {
		*events = append(*events, ev)
	})
	return events
}

func hasEventType(events []syncengine.Event, t syncengine.EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func TestSync_OfflineNeverCallsTransportAndKeepsItemsDirty(t *testing.T) {
	s := newTestStore()
	it := item.New(item.NewStubUUIDGenerator("a"), "Note", item.Content{"text": "hi"})
	s.Adopt(it)

	tr := &fakeTransport{}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, syncengine.StaticKeySource{Ready: false}, syncengine.DefaultConfig())
	events := collectEvents(eng)

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, tr.callCount(), "no keys means no network round-trip")
	require.Len(t, local.saved, 1)
	assert.True(t, it.Dirty, "offline items must stay dirty in memory so they resubmit once keys arrive")
	assert.False(t, local.saved[0][0]["dirty"].(bool), "the persisted representation suppresses dirty")
	assert.True(t, hasEventType(*events, syncengine.EventSyncCompleted))
}

func TestSync_OfflineReapsDeletedItemsWithoutPersisting(t *testing.T) {
	s := newTestStore()
	it := item.New(item.NewStubUUIDGenerator("a"), "Note", nil)
	s.Adopt(it)
	it.Deleted = true

	tr := &fakeTransport{}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, syncengine.StaticKeySource{Ready: false}, syncengine.DefaultConfig())

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	_, exists := s.Get("a")
	assert.False(t, exists)
	require.Len(t, local.deleted, 1)
	assert.Equal(t, []string{"a"}, local.deleted[0])
	assert.Empty(t, local.saved)
}

func TestSync_OnlineHappyPath_ClearsDirtyAndPersistsToken(t *testing.T) {
	s := newTestStore()
	it := item.New(item.NewStubUUIDGenerator("a"), "Note", item.Content{"text": "hi"})
	s.Adopt(it)

	tr := &fakeTransport{responses: []transport.SyncResponse{{
		SavedItems: []transport.ItemPayload{{UUID: "a", ContentType: "Note"}},
		SyncToken:  "tok-1",
	}}}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), syncengine.DefaultConfig())
	events := collectEvents(eng)

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	require.Len(t, tr.calls, 1)
	require.Len(t, tr.calls[0].Items, 1)
	assert.Equal(t, "a", tr.calls[0].Items[0].UUID)
	assert.NotEmpty(t, tr.calls[0].Items[0].Content, "content must be encrypted before being sent")

	assert.False(t, it.Dirty, "a clean save echo clears dirty")
	assert.Equal(t, "tok-1", local.values["syncToken"])
	assert.True(t, hasEventType(*events, syncengine.EventSyncUpdatedToken))
	assert.True(t, hasEventType(*events, syncengine.EventSyncCompleted))
}

func TestSync_TransportErrorRestoresDirtyCountForRetry(t *testing.T) {
	s := newTestStore()
	it := item.New(item.NewStubUUIDGenerator("a"), "Note", item.Content{"text": "hi"})
	s.Adopt(it)
	require.Equal(t, 1, it.DirtyCount)

	tr := &fakeTransport{errs: []error{transport.ErrServerError}}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), syncengine.DefaultConfig())
	events := collectEvents(eng)

	_, err := eng.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrServerError))

	assert.True(t, it.Dirty)
	assert.Equal(t, 1, it.DirtyCount, "dirtyCount must be restored to its pre-call snapshot, not left at the reset value of 0")
	assert.True(t, hasEventType(*events, syncengine.EventSyncError))
}

func TestSync_DedupsRetrievedAgainstSavedInSameRound(t *testing.T) {
	s := newTestStore()

	tr := &fakeTransport{responses: []transport.SyncResponse{{
		SavedItems:     []transport.ItemPayload{{UUID: "dup", ContentType: "Note"}},
		RetrievedItems: []transport.ItemPayload{{UUID: "dup", ContentType: "Note"}},
		SyncToken:      "t1",
	}}}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), syncengine.DefaultConfig())

	completed, err := eng.Sync(context.Background())
	require.NoError(t, err)

	assert.Len(t, completed.SavedItems, 1)
	assert.Empty(t, completed.RetrievedItems, "an item already echoed as saved this round must not also appear as retrieved")
}

func TestSync_UUIDConflictAlternatesOriginalAndMarksReplacementDirty(t *testing.T) {
	s := newTestStore()
	it := item.New(item.NewStubUUIDGenerator("orig"), "Note", item.Content{"text": "hi"})
	s.Adopt(it)

	tr := &fakeTransport{responses: []transport.SyncResponse{{
		Unsaved: []transport.UnsavedEntry{{
			Item:  transport.ItemPayload{UUID: "orig", ContentType: "Note"},
			Error: transport.UnsavedError{Tag: "uuid_conflict"},
		}},
		SyncToken: "t1",
	}}}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), syncengine.DefaultConfig())

	completed, err := eng.Sync(context.Background())
	require.NoError(t, err)

	_, exists := s.Get("orig")
	require.False(t, exists, "the alternated original is removed locally")
	assert.True(t, it.Deleted, "the original is marked deleted before removal")
	assert.False(t, it.Dirty, "the old uuid is never pushed again")

	replacement, exists := s.Get("generated-1")
	require.True(t, exists)
	assert.True(t, replacement.Dirty)

	require.Len(t, completed.UnsavedItems, 1)
	assert.Equal(t, "uuid_conflict", completed.UnsavedItems[0].Tag)
	assert.Equal(t, "orig", completed.UnsavedItems[0].OriginalUUID)
	assert.Equal(t, "generated-1", completed.UnsavedItems[0].ReplacementUUID)
}

func TestSync_MajorDataChangeFiresOnResponseArrayThreshold(t *testing.T) {
	s := newTestStore()
	cfg := syncengine.DefaultConfig()
	cfg.MajorChangeThreshold = 2

	tr := &fakeTransport{responses: []transport.SyncResponse{{
		RetrievedItems: []transport.ItemPayload{
			{UUID: "x", Deleted: true},
			{UUID: "y", Deleted: true},
		},
		SyncToken: "t1",
	}}}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), cfg)
	events := collectEvents(eng)

	_, err := eng.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, hasEventType(*events, syncengine.EventMajorDataChange))
}

func TestSync_ReturnsErrSyncLockedWhileLocked(t *testing.T) {
	s := newTestStore()
	tr := &fakeTransport{}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, syncengine.StaticKeySource{Ready: false}, syncengine.DefaultConfig())

	eng.Lock()
	_, err := eng.Sync(context.Background())
	assert.ErrorIs(t, err, syncengine.ErrSyncLocked)

	eng.Unlock()
	_, err = eng.Sync(context.Background())
	assert.NoError(t, err)
}

func TestSync_ConcurrentCallersQueueExactlyOneRepeatCycle(t *testing.T) {
	s := newTestStore()
	tr := &fakeTransport{block: make(chan struct{})}
	local := newFakeLocalStore()
	eng := newEngine(t, s, tr, local, readyKeys(), syncengine.DefaultConfig())

	var wg sync.WaitGroup
	results := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = eng.Sync(context.Background())
		}(i)
	}

	// Give all three callers a chance to reach Sync before the first
	// round-trip is allowed to complete.
	time.Sleep(20 * time.Millisecond)
	close(tr.block)
	wg.Wait()

	for _, err := range results {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, tr.callCount(), 2, "three concurrent callers must collapse into at most one in-flight plus one queued repeat cycle")
}
