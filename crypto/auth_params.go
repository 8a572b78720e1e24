// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

// AuthParams are the key-derivation parameters embedded in every "002"/"003"
// envelope so the decrypting client (possibly a different device than the
// one that encrypted) can reconstruct the exact keys used, and so the
// decryptor can verify provenance.
type AuthParams struct {
	Version    ProtocolVersion `json:"version"`
	PwCost     int             `json:"pw_cost"`
	PwNonce    string          `json:"pw_nonce,omitempty"`
	PwSalt     string          `json:"pw_salt,omitempty"`
	Identifier string          `json:"identifier"`
}
