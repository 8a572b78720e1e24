// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto implements the client-side zero-knowledge cryptography layer
// for syncvault: passphrase-derived key hierarchy, per-item key wrapping, and
// the versioned ciphertext envelope exchanged with the server.
//
// # Key hierarchy
//
// Three protocol versions are supported, "001", "002", and "003", differing
// in key derivation and envelope format. "001" is read-only in modern
// clients. Derivation always produces three 256-bit keys from PBKDF2-HMAC-
// SHA512 over the user's identifier, password, and a version-dependent salt:
//
//   - pw — sent to the server in place of the raw password
//   - mk — master encryption key, used to wrap ("enc_item_key") per-item keys
//   - ak — master authentication key, used to bind per-item key envelopes
//
// # Per-item key
//
// Every item is encrypted under its own randomly generated 512-bit item key,
// split into a 256-bit encryption half (ek) and a 256-bit authentication half
// (ak). The item key itself is wrapped under mk/ak using the same envelope
// format used for content, producing enc_item_key.
//
// # Envelope
//
// [Codec.EncryptContent] and [Codec.DecryptContent] implement the
// colon-delimited wire format for "002"/"003", the unseparated legacy format
// for "001", and the "000" plaintext sentinel. Each version is modelled as
// its own [Envelope] implementation rather than a single generic struct, so
// that version-specific quirks (no IV in "001", no bound auth hash) cannot
// leak across versions by accident.
package crypto
