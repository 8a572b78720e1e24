// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import "context"

//go:generate mockgen -source=sync.go -destination=../internal/mock/sync_transport_mock.go -package=mock

// ItemPayload is the wire shape of one item on either side of the sync
// endpoint: Content, EncItemKey, AuthHash, and AuthParams carry the crypto
// package's envelope strings verbatim — the transport never interprets
// them. CreatedAt/UpdatedAt are only populated on the wire when a cycle
// needs to resend them explicitly (the conflict-duplicate resubmission
// described in syncengine's sync_conflict handling); they are omitted
// otherwise so the server's own clock is authoritative.
type ItemPayload struct {
	UUID        string `json:"uuid"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content,omitempty"`
	EncItemKey  string `json:"enc_item_key,omitempty"`
	AuthHash    string `json:"auth_hash,omitempty"`
	AuthParams  string `json:"auth_params,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// UnsavedError describes why the server refused to accept an item pushed
// during a sync cycle.
type UnsavedError struct {
	Tag string `json:"tag"`
}

// UnsavedEntry pairs a refused item with the reason it was refused. Tag is
// either "uuid_conflict" or "sync_conflict"; see the syncengine package for
// how each is resolved.
type UnsavedEntry struct {
	Item  ItemPayload  `json:"item"`
	Error UnsavedError `json:"error"`
}

// SyncRequest is the body POSTed to the sync endpoint.
type SyncRequest struct {
	Items       []ItemPayload `json:"items"`
	SyncToken   *string       `json:"sync_token"`
	CursorToken *string       `json:"cursor_token"`
	Limit       int           `json:"limit"`
}

// SyncResponse is the sync endpoint's JSON response body.
type SyncResponse struct {
	RetrievedItems []ItemPayload  `json:"retrieved_items"`
	SavedItems     []ItemPayload  `json:"saved_items"`
	Unsaved        []UnsavedEntry `json:"unsaved"`
	SyncToken      string         `json:"sync_token"`
	CursorToken    *string        `json:"cursor_token"`
}

// SyncTransport is the sync engine's network collaborator. Implementations
// own serialization, authentication headers, and mapping transport errors
// to this package's sentinel values so the engine can use [errors.Is].
type SyncTransport interface {
	// Sync POSTs req to the sync endpoint and returns the decoded response.
	Sync(ctx context.Context, req SyncRequest) (SyncResponse, error)
}

// BearerTokenSource supplies the bearer token attached to authenticated
// requests. It is satisfied by an external session/auth manager — this
// package never mints or parses tokens itself, only consumes one.
type BearerTokenSource interface {
	Token() string
}
