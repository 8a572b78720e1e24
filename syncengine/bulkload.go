// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import (
	"context"
	"fmt"

	"github.com/MKhiriev/syncvault/store"
)

// BulkLoad maps locally-persisted records into the store in chunks of
// [Config.BulkLoadChunkSize], calling yield between chunks (never after the
// last one) so a host application can keep its UI responsive during a large
// startup load. Records are assumed to already be plaintext-JSON-shaped —
// local storage is protected as a whole by the host platform rather than
// per-item envelope encryption, which is reserved for server round-trips —
// so no decryption happens here. Fires local-data-loaded exactly once, after
// the final chunk.
func (e *Engine) BulkLoad(ctx context.Context, records []map[string]any, yield func()) error {
	chunkSize := e.cfg.BulkLoadChunkSize

	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		if _, err := e.store.MapResponse(records[start:end], store.LocalRetrieved, nil); err != nil {
			return fmt.Errorf("syncengine: bulk load chunk [%d:%d]: %w", start, end, err)
		}

		if end < len(records) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if yield != nil {
				yield()
			}
		}
	}

	e.emit(Event{Type: EventLocalDataLoaded})
	return nil
}
