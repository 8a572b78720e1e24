// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/sha512"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// masterKeyBits is the total PBKDF2 output length: 768 bits, split into
// three equal 256-bit keys (pw, mk, ak).
const masterKeyBits = 768
const masterKeyBytes = masterKeyBits / 8
const masterKeySplitBytes = masterKeyBytes / 3

// MasterKeys is the per-user key hierarchy derived from the master
// password. pw is sent to the server as the authentication credential; mk
// and ak never leave the client.
type MasterKeys struct {
	// Pw is the server password: proves knowledge of the master password
	// without revealing it.
	Pw []byte
	// Mk is the master encryption key, used to wrap per-item keys.
	Mk []byte
	// Ak is the master authentication key, used to bind per-item key
	// envelopes (enc_item_key).
	Ak []byte
}

// DeriveMasterKeysParams carries the inputs needed to derive a [MasterKeys]
// hierarchy. Which of Salt / Nonce is consulted depends on Version: "003"
// derives its own salt client-side from Nonce via [ComputeSalt003]; "001"
// and "002" use the server-supplied Salt verbatim.
type DeriveMasterKeysParams struct {
	Identifier string
	Password   string
	Version    ProtocolVersion
	Cost       int

	// Salt is the PBKDF2 salt for "001"/"002", supplied by the server.
	Salt []byte

	// Nonce is the client-held pw_nonce for "003", combined with Identifier,
	// Version, and Cost to compute the salt via [ComputeSalt003].
	Nonce string
}

// ComputeSalt003 derives the "003" PBKDF2 salt:
// SHA-256(identifier : "SF" : version : pw_cost : pw_nonce).
func ComputeSalt003(identifier string, version ProtocolVersion, cost int, nonce string) []byte {
	material := strings.Join([]string{identifier, "SF", string(version), strconv.Itoa(cost), nonce}, ":")
	return sha256Sum([]byte(material))
}

// DeriveMasterKeys derives the three-key hierarchy (pw, mk, ak) from p via
// PBKDF2-HMAC-SHA512 with a 768-bit output. It refuses to derive keys when
// p.Cost is below the minimum mandated for p.Version (see
// [CheckMinimumCost]); callers must treat that as a refused login, not a
// recoverable error.
func DeriveMasterKeys(p DeriveMasterKeysParams) (MasterKeys, error) {
	if err := CheckMinimumCost(p.Version, p.Cost); err != nil {
		return MasterKeys{}, err
	}

	salt := p.Salt
	if p.Version == Version003 {
		salt = ComputeSalt003(p.Identifier, p.Version, p.Cost, p.Nonce)
	}
	if len(salt) == 0 {
		return MasterKeys{}, fmt.Errorf("crypto: empty salt for version %q", p.Version)
	}

	derived := pbkdf2.Key([]byte(p.Password), salt, p.Cost, masterKeyBytes, sha512.New)

	return MasterKeys{
		Pw: append([]byte(nil), derived[0:masterKeySplitBytes]...),
		Mk: append([]byte(nil), derived[masterKeySplitBytes:2*masterKeySplitBytes]...),
		Ak: append([]byte(nil), derived[2*masterKeySplitBytes:3*masterKeySplitBytes]...),
	}, nil
}
