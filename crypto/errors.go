// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by this package. Callers should use [errors.Is] to
// match against these values.
var (
	// ErrAuthenticationFailed is returned when an envelope's auth_hash does
	// not match the computed HMAC, when the UUID embedded in the envelope
	// differs from the item's own UUID, or when authentication is required
	// but no hash is present. The item's ciphertext is never discarded on
	// this error; callers are expected to mark the item errorDecrypting and
	// retain it verbatim.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrMalformedEnvelope is returned when an envelope string has the wrong
	// number of colon-delimited fields for its declared version, or declares
	// a version this package does not recognise.
	ErrMalformedEnvelope = errors.New("crypto: malformed envelope")

	// ErrUnsupportedVersion is returned when an operation is attempted
	// against a protocol version this package does not implement.
	ErrUnsupportedVersion = errors.New("crypto: unsupported protocol version")

	// ErrCostTooLow is returned by [CheckMinimumCost] (and therefore by
	// [DeriveMasterKeys]) when the supplied pw_cost iteration count is below
	// the minimum mandated for the protocol version. Login must be refused
	// in this case.
	ErrCostTooLow = errors.New("crypto: pw_cost below minimum for protocol version")

	// ErrInvalidKeyLength is returned when a key of the wrong length is
	// supplied to an AES operation.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length")

	// ErrCiphertextTooShort is returned when a ciphertext or wrapped-key blob
	// handed to AES-CBC decryption is empty or not a whole number of AES
	// blocks.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
)

func newUnsupportedVersionErr(version ProtocolVersion) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
}

func newCostTooLowErr(version ProtocolVersion, cost, min int) error {
	return fmt.Errorf("%w: version=%q cost=%d min=%d", ErrCostTooLow, version, cost, min)
}
