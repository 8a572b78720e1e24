// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/syncvault/crypto"
	"github.com/MKhiriev/syncvault/item"
	"github.com/MKhiriev/syncvault/store"
	"github.com/MKhiriev/syncvault/transport"
)

// roundResult is the outcome of one request/response round. A top-level
// [Engine.Sync] call may run several rounds back to back — continuing while
// the server hands back a cursor_token, there are deferred (over-cap) dirty
// items still waiting, or a sync_conflict scheduled a resubmission.
type roundResult struct {
	retrieved    []*item.Item
	saved        []*item.Item
	unsaved      []UnsavedConflict
	continueLoop bool
}

// runUntilSettled drives rounds until the cycle reports no more work,
// aggregating each round's batches into one [CompletedPayload] and firing
// major-data-change per round and sync:completed once at the end.
func (e *Engine) runUntilSettled(ctx context.Context) (CompletedPayload, error) {
	begin := time.Now()
	defer func() {
		e.mu.Lock()
		e.stats.LastSyncDuration = time.Since(begin)
		e.mu.Unlock()
	}()

	aggregate := CompletedPayload{InitialSync: e.syncToken == nil}
	allSaved := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return aggregate, ctx.Err()
		default:
		}

		round, err := e.runOneCycle(ctx, allSaved)
		if err != nil {
			return aggregate, err
		}

		e.mu.Lock()
		e.stats.Cycles++
		e.mu.Unlock()

		aggregate.RetrievedItems = append(aggregate.RetrievedItems, round.retrieved...)
		aggregate.SavedItems = append(aggregate.SavedItems, round.saved...)
		aggregate.UnsavedItems = append(aggregate.UnsavedItems, round.unsaved...)

		if !round.continueLoop {
			break
		}

		select {
		case <-time.After(e.cfg.ContinuationDelay):
		case <-ctx.Done():
			return aggregate, ctx.Err()
		}
	}

	e.emit(Event{Type: EventSyncCompleted, Completed: &aggregate})
	return aggregate, nil
}

// isMajorChange checks the threshold against the server response's own
// array lengths rather than the post-mapping item counts: a page of
// deletions for UUIDs this client never held maps to zero items but is
// still exactly the kind of large remote change the event exists to flag.
func (e *Engine) isMajorChange(resp transport.SyncResponse) bool {
	t := e.cfg.MajorChangeThreshold
	return len(resp.RetrievedItems) >= t || len(resp.SavedItems) >= t || len(resp.Unsaved) >= t
}

// runOneCycle is one request/response round: collect the dirty set, submit
// it (or, offline, persist it locally), and fold the response back into the
// store.
func (e *Engine) runOneCycle(ctx context.Context, allSaved map[string]struct{}) (roundResult, error) {
	master, params, hasKeys := e.keySource.Keys()

	dirty := e.collectDirty()

	if !hasKeys {
		return e.runOfflineRound(ctx, dirty)
	}

	submitted, deferred := partitionByLimit(dirty, e.cfg.BatchCap)

	observed := make(map[string]int, len(submitted))
	items := make([]transport.ItemPayload, 0, len(submitted))
	for _, it := range submitted {
		observed[it.UUID] = it.DirtyCount

		payload, err := e.encodeOutgoing(it, master, params)
		if err != nil {
			e.emit(Event{Type: EventSyncException, Err: err})
			return roundResult{}, err
		}
		items = append(items, payload)
	}

	// Only reset once every item in the batch encoded successfully, so a
	// mid-batch encryption failure never drops an item's pending edits.
	for _, it := range submitted {
		it.DirtyCount = 0
	}

	// Write the submitted batch through to local storage before the network
	// call, so a crash mid-flight leaves the local store authoritative. A
	// local failure is logged and does not abort the round.
	if e.local != nil && len(submitted) > 0 {
		records := make([]map[string]any, 0, len(submitted))
		for _, it := range submitted {
			records = append(records, itemToRecord(it))
		}
		if err := e.local.SaveItems(ctx, records); err != nil {
			e.log.Warn().Err(err).Msg("persist dirty items before sync")
		}
	}

	req := transport.SyncRequest{
		Items:       items,
		SyncToken:   e.syncToken,
		CursorToken: e.cursorToken,
		Limit:       e.cfg.PageLimit,
	}

	resp, err := e.doTransportSync(ctx, req)
	if err != nil {
		for _, it := range submitted {
			it.DirtyCount = observed[it.UUID]
		}
		e.emit(Event{Type: EventSyncError, Err: err})
		if errors.Is(err, transport.ErrUnauthorized) {
			e.emit(Event{Type: EventSyncSessionInvalid, Err: err})
		}
		return roundResult{}, err
	}

	// Saved echoes need no decryption and seed the round-accumulated dedup
	// set that retrieved_items is checked against below.
	savedRecords := make([]map[string]any, 0, len(resp.SavedItems))
	for _, p := range resp.SavedItems {
		savedRecords = append(savedRecords, payloadToRecord(p))
		allSaved[p.UUID] = struct{}{}
	}
	savedOmit := map[string]bool{"content": true, "auth_hash": true}
	savedResult, err := e.store.MapResponse(savedRecords, store.RemoteSaved, savedOmit)
	if err != nil {
		return roundResult{}, fmt.Errorf("syncengine: map saved items: %w", err)
	}
	for _, it := range savedResult.Mapped {
		it.ClearDirtyIfUnchanged(0)
	}

	var retrievedRecords []map[string]any
	for _, p := range resp.RetrievedItems {
		if _, already := allSaved[p.UUID]; already {
			continue
		}
		record, err := e.decodeIncoming(p, master)
		if err != nil {
			record = errorDecryptingRecord(p)
		}
		retrievedRecords = append(retrievedRecords, record)
	}
	retrievedResult, err := e.store.MapResponse(retrievedRecords, store.RemoteRetrieved, nil)
	if err != nil {
		return roundResult{}, fmt.Errorf("syncengine: map retrieved items: %w", err)
	}

	unsaved, err := e.resolveUnsaved(resp.Unsaved, master)
	if err != nil {
		return roundResult{}, err
	}

	if e.isMajorChange(resp) {
		e.emit(Event{Type: EventMajorDataChange, Completed: &CompletedPayload{
			RetrievedItems: retrievedResult.Mapped,
			SavedItems:     savedResult.Mapped,
			UnsavedItems:   unsaved,
		}})
	}

	if resp.SyncToken != "" && (e.syncToken == nil || *e.syncToken != resp.SyncToken) {
		token := resp.SyncToken
		e.syncToken = &token
		if e.local != nil {
			if err := e.local.PutValue(ctx, "syncToken", token); err != nil {
				e.log.Warn().Err(err).Msg("persist sync token")
			}
		}
		e.emit(Event{Type: EventSyncUpdatedToken})
	}
	e.cursorToken = resp.CursorToken

	needsMoreSync := len(deferred) > 0 || len(e.resendTimestamps) > 0
	continueLoop := e.cursorToken != nil || needsMoreSync

	return roundResult{
		retrieved:    retrievedResult.Mapped,
		saved:        savedResult.Mapped,
		unsaved:      unsaved,
		continueLoop: continueLoop,
	}, nil
}

// runOfflineRound handles the no-keys case: items are timestamped and
// written through to local storage but never submitted, and deletions are
// reaped outright since there is no server round-trip to wait on. The
// persisted representation has its dirty flag suppressed to false so a
// reload of local storage does not resurface these items as dirty on its
// own; the in-memory items themselves stay genuinely dirty so they are
// picked up for a real submission once keys become available.
func (e *Engine) runOfflineRound(ctx context.Context, dirty []*item.Item) (roundResult, error) {
	var persisted []map[string]any
	var reaped []string

	for _, it := range dirty {
		if it.Deleted {
			e.store.Reap(it.UUID)
			reaped = append(reaped, it.UUID)
			continue
		}
		it.UpdatedAt = e.clk.Now()
		record := itemToRecord(it)
		record["dirty"] = false
		persisted = append(persisted, record)
	}

	if e.local != nil {
		if len(persisted) > 0 {
			if err := e.local.SaveItems(ctx, persisted); err != nil {
				return roundResult{}, fmt.Errorf("syncengine: persist offline items: %w", err)
			}
		}
		if len(reaped) > 0 {
			if err := e.local.DeleteItems(ctx, reaped); err != nil {
				return roundResult{}, fmt.Errorf("syncengine: delete reaped items: %w", err)
			}
		}
	}

	return roundResult{continueLoop: false}, nil
}

// doTransportSync runs the network round-trip on its own goroutine and
// watches it with a wall-clock ticker independent of the injectable
// [clock.Clock] — which is reserved for business-logic timestamps, not for
// timing a goroutine that is genuinely running concurrently. Fires
// sync:taking-too-long at most once per round-trip.
func (e *Engine) doTransportSync(ctx context.Context, req transport.SyncRequest) (transport.SyncResponse, error) {
	done := make(chan struct{})
	var resp transport.SyncResponse
	var syncErr error

	go func() {
		resp, syncErr = e.transport.Sync(ctx, req)
		close(done)
	}()

	ticker := time.NewTicker(e.cfg.WatchdogInterval)
	defer ticker.Stop()

	var elapsed time.Duration
	warned := false

	for {
		select {
		case <-done:
			return resp, syncErr
		case <-ticker.C:
			elapsed += e.cfg.WatchdogInterval
			if !warned && elapsed >= e.cfg.WatchdogThreshold {
				warned = true
				e.emit(Event{Type: EventSyncTakingTooLong})
			}
		}
	}
}

func (e *Engine) collectDirty() []*item.Item {
	var out []*item.Item
	for _, it := range e.store.All() {
		if it.QualifiesForSync() {
			out = append(out, it)
		}
	}
	return out
}

func partitionByLimit(items []*item.Item, limit int) (submitted, deferred []*item.Item) {
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], items[limit:]
}

// resolveItemKey returns the per-item key for it, unwrapping EncItemKey if
// it is already set or minting and wrapping a fresh one otherwise. Results
// are cached on the engine so a key is derived at most once per item across
// a cycle.
func (e *Engine) resolveItemKey(it *item.Item, master crypto.MasterKeys, params crypto.AuthParams) (crypto.ItemKey, error) {
	if key, ok := e.itemKeys[it.UUID]; ok {
		return key, nil
	}

	if it.EncItemKey != "" {
		key, err := e.codec.DecryptItemKey(it.EncItemKey, it.UUID, master)
		if err != nil {
			return crypto.ItemKey{}, err
		}
		e.itemKeys[it.UUID] = key
		return key, nil
	}

	key, err := crypto.GenerateItemKey(e.rng)
	if err != nil {
		return crypto.ItemKey{}, err
	}
	wrapped, err := e.codec.EncryptItemKey(e.cfg.ProtocolVersion, it.UUID, key, master, params)
	if err != nil {
		return crypto.ItemKey{}, err
	}
	it.EncItemKey = wrapped
	e.itemKeys[it.UUID] = key
	return key, nil
}

// encodeOutgoing builds the wire payload for a dirty item, encrypting its
// content under a resolved item key. Deletions carry no content at all.
func (e *Engine) encodeOutgoing(it *item.Item, master crypto.MasterKeys, params crypto.AuthParams) (transport.ItemPayload, error) {
	if it.Deleted {
		return transport.ItemPayload{UUID: it.UUID, Deleted: true}, nil
	}

	key, err := e.resolveItemKey(it, master, params)
	if err != nil {
		return transport.ItemPayload{}, fmt.Errorf("resolve item key %s: %w", it.UUID, err)
	}

	plaintext, err := json.Marshal(map[string]any(it.Content))
	if err != nil {
		return transport.ItemPayload{}, fmt.Errorf("marshal content %s: %w", it.UUID, err)
	}

	envelope, err := e.codec.EncryptContent(e.cfg.ProtocolVersion, it.UUID, plaintext, key, params)
	if err != nil {
		return transport.ItemPayload{}, fmt.Errorf("encrypt content %s: %w", it.UUID, err)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return transport.ItemPayload{}, fmt.Errorf("marshal auth params %s: %w", it.UUID, err)
	}
	it.AuthParams = string(paramsJSON)

	payload := transport.ItemPayload{
		UUID:        it.UUID,
		ContentType: it.ContentType,
		Content:     envelope,
		EncItemKey:  it.EncItemKey,
		AuthHash:    it.AuthHash,
		AuthParams:  it.AuthParams,
	}

	if _, resend := e.resendTimestamps[it.UUID]; resend {
		if !it.CreatedAt.IsZero() {
			payload.CreatedAt = it.CreatedAt.Format(time.RFC3339Nano)
		}
		payload.UpdatedAt = it.UpdatedAt.Format(time.RFC3339Nano)
		delete(e.resendTimestamps, it.UUID)
	}

	return payload, nil
}

// decodeIncoming turns a retrieved wire payload into the JSON-shaped record
// [store.ModelStore.MapResponse] expects, decrypting its content. The
// caller is responsible for falling back to [errorDecryptingRecord] if this
// returns an error.
func (e *Engine) decodeIncoming(p transport.ItemPayload, master crypto.MasterKeys) (map[string]any, error) {
	record := payloadToRecord(p)
	if p.Deleted || p.Content == "" {
		return record, nil
	}

	env, err := crypto.ParseEnvelope(p.Content)
	if err != nil {
		return nil, err
	}

	key, ok := e.itemKeys[p.UUID]
	if !ok {
		if p.EncItemKey == "" {
			return nil, fmt.Errorf("syncengine: no item key available for %s", p.UUID)
		}
		key, err = e.codec.DecryptItemKey(p.EncItemKey, p.UUID, master)
		if err != nil {
			return nil, err
		}
	}

	plaintext, err := e.codec.DecryptContent(env, p.UUID, key, p.AuthHash)
	if err != nil {
		return nil, err
	}

	var content map[string]any
	if err := json.Unmarshal(plaintext, &content); err != nil {
		return nil, fmt.Errorf("decode decrypted content %s: %w", p.UUID, err)
	}

	e.itemKeys[p.UUID] = key
	record["content"] = content
	record["error_decrypting"] = false
	return record, nil
}

// errorDecryptingRecord builds the record merged for an item whose content
// failed to decrypt: the raw envelope is preserved verbatim and content is
// left out entirely rather than merged as garbage.
func errorDecryptingRecord(p transport.ItemPayload) map[string]any {
	record := payloadToRecord(p)
	record["error_decrypting"] = true
	record["raw_content"] = p.Content
	delete(record, "content")
	return record
}

func payloadToRecord(p transport.ItemPayload) map[string]any {
	record := map[string]any{
		"uuid":    p.UUID,
		"deleted": p.Deleted,
	}
	if p.ContentType != "" {
		record["content_type"] = p.ContentType
	}
	if p.EncItemKey != "" {
		record["enc_item_key"] = p.EncItemKey
	}
	if p.AuthHash != "" {
		record["auth_hash"] = p.AuthHash
	}
	if p.AuthParams != "" {
		record["auth_params"] = p.AuthParams
	}
	if p.CreatedAt != "" {
		record["created_at"] = p.CreatedAt
	}
	if p.UpdatedAt != "" {
		record["updated_at"] = p.UpdatedAt
	}
	return record
}

// itemToRecord renders it as the JSON-shaped record local persistence
// stores, for the offline write-through path.
func itemToRecord(it *item.Item) map[string]any {
	record := map[string]any{
		"uuid":         it.UUID,
		"content_type": it.ContentType,
		"content":      map[string]any(it.Content.Clone()),
		"deleted":      it.Deleted,
		"dirty":        it.Dirty,
		"updated_at":   it.UpdatedAt.Format(time.RFC3339Nano),
	}
	if !it.CreatedAt.IsZero() {
		record["created_at"] = it.CreatedAt.Format(time.RFC3339Nano)
	}
	if it.EncItemKey != "" {
		record["enc_item_key"] = it.EncItemKey
	}
	if it.AuthHash != "" {
		record["auth_hash"] = it.AuthHash
	}
	if it.AuthParams != "" {
		record["auth_params"] = it.AuthParams
	}
	return record
}

// resolveUnsaved resolves every refused item from a sync response per its
// conflict tag.
func (e *Engine) resolveUnsaved(entries []transport.UnsavedEntry, master crypto.MasterKeys) ([]UnsavedConflict, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	out := make([]UnsavedConflict, 0, len(entries))
	for _, entry := range entries {
		switch entry.Error.Tag {
		case "uuid_conflict":
			replacement, err := e.store.AlternateUUID(entry.Item.UUID)
			if err != nil {
				return nil, fmt.Errorf("resolve uuid_conflict %s: %w", entry.Item.UUID, err)
			}
			out = append(out, UnsavedConflict{
				Tag:             entry.Error.Tag,
				OriginalUUID:    entry.Item.UUID,
				ReplacementUUID: replacement.UUID,
			})

		case "sync_conflict":
			conflict, err := e.resolveSyncConflict(entry, master)
			if err != nil {
				return nil, fmt.Errorf("resolve sync_conflict %s: %w", entry.Item.UUID, err)
			}
			out = append(out, conflict)

		default:
			e.log.Warn().Str("uuid", entry.Item.UUID).Str("tag", entry.Error.Tag).Msg("unrecognised unsaved conflict tag")
			out = append(out, UnsavedConflict{Tag: entry.Error.Tag, OriginalUUID: entry.Item.UUID})
		}
	}
	return out, nil
}

// resolveSyncConflict decrypts the server's version of a refused item and
// compares it against the local version. Identical content (ignoring
// volatile client-only keys) just schedules a timestamp resubmission for
// next cycle; genuinely different content spawns a duplicate item holding
// the server's content and timestamps, wired into the same reference graph
// as the original, and schedules a timestamp resubmission for both the
// duplicate and the original.
func (e *Engine) resolveSyncConflict(entry transport.UnsavedEntry, master crypto.MasterKeys) (UnsavedConflict, error) {
	original, ok := e.store.Get(entry.Item.UUID)
	if !ok {
		return UnsavedConflict{}, fmt.Errorf("%w: %q", store.ErrItemNotFound, entry.Item.UUID)
	}

	record, err := e.decodeIncoming(entry.Item, master)
	if err != nil {
		// The server's version can't be read either; keep pushing ours.
		e.resendTimestamps[original.UUID] = struct{}{}
		original.MarkDirty(e.clk, true)
		return UnsavedConflict{Tag: "sync_conflict", OriginalUUID: original.UUID}, nil
	}

	remote := &item.Item{UUID: original.UUID, ContentType: original.ContentType}
	if err := remote.UpdateFromJSON(record, nil); err != nil {
		return UnsavedConflict{}, err
	}

	if original.ContentEqual(remote, item.DefaultEqualityBlacklist()) {
		e.resendTimestamps[original.UUID] = struct{}{}
		original.MarkDirty(e.clk, true)
		return UnsavedConflict{Tag: "sync_conflict", OriginalUUID: original.UUID}, nil
	}

	duplicate := item.New(e.uuidGen, original.ContentType, remote.Content.Clone())
	duplicate.AppData = original.AppData.Clone()
	duplicate.CreatedAt = remote.CreatedAt
	duplicate.UpdatedAt = remote.UpdatedAt
	duplicate.ConflictOf = original.UUID
	e.store.Adopt(duplicate)

	for fromUUID := range original.ReferencingObjects {
		if referencer, ok := e.store.Get(fromUUID); ok {
			referencer.AddItemAsRelationship(item.Reference{UUID: duplicate.UUID, ContentType: duplicate.ContentType})
			referencer.MarkDirty(e.clk, true)
		}
		duplicate.AddReferencingObject(fromUUID)
	}

	e.resendTimestamps[duplicate.UUID] = struct{}{}
	e.resendTimestamps[original.UUID] = struct{}{}
	original.MarkDirty(e.clk, true)

	return UnsavedConflict{Tag: "sync_conflict", OriginalUUID: original.UUID, DuplicateUUID: duplicate.UUID}, nil
}
