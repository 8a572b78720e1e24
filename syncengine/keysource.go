// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import "github.com/MKhiriev/syncvault/crypto"

// KeySource supplies the master key hierarchy and auth params the engine
// needs to encrypt outgoing content and unwrap incoming item keys. ok is
// false when no keys are available yet — not signed in, or signed out —
// in which case the engine treats the cycle as offline and never attempts
// a network round-trip.
type KeySource interface {
	Keys() (master crypto.MasterKeys, params crypto.AuthParams, ok bool)
}

// StaticKeySource is a [KeySource] fixed at construction, for tests and for
// simple hosts that re-create the engine on every sign-in.
type StaticKeySource struct {
	Master crypto.MasterKeys
	Params crypto.AuthParams
	Ready  bool
}

// Keys implements [KeySource].
func (s StaticKeySource) Keys() (crypto.MasterKeys, crypto.AuthParams, bool) {
	return s.Master, s.Params, s.Ready
}
