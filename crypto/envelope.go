// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "strings"

// Envelope is the parsed, versioned wire representation of an item's
// encrypted (or plaintext-opted-out) content string. Each protocol version
// has its own concrete type and its own serializer/parser — see the package
// doc for why a single generic struct is deliberately avoided.
type Envelope interface {
	// Version returns the protocol version tag this envelope was parsed as
	// or will serialize under.
	Version() ProtocolVersion
	// String renders the envelope back into its colon-delimited (or
	// unseparated, for "001"/"000") wire format.
	String() string
}

// EnvelopeV003 is the "003" envelope: bound auth hash, explicit IV, embedded
// auth params.
type EnvelopeV003 struct {
	AuthHash      string // hex
	UUID          string
	IV            string // hex
	CipherText    string // base64
	AuthParamsB64 string
}

func (e EnvelopeV003) Version() ProtocolVersion { return Version003 }

func (e EnvelopeV003) String() string {
	return joinEnvelope(Version003, e.AuthHash, e.UUID, e.IV, e.CipherText, e.AuthParamsB64)
}

// EnvelopeV002 is the "002" envelope: identical shape to "003", differing
// only in how pw_salt was derived (see [DeriveMasterKeys]).
type EnvelopeV002 struct {
	AuthHash      string
	UUID          string
	IV            string
	CipherText    string
	AuthParamsB64 string
}

func (e EnvelopeV002) Version() ProtocolVersion { return Version002 }

func (e EnvelopeV002) String() string {
	return joinEnvelope(Version002, e.AuthHash, e.UUID, e.IV, e.CipherText, e.AuthParamsB64)
}

// EnvelopeV001 is the legacy envelope: no IV field, no bound auth hash — the
// auth hash for "001" items is carried at the item's top level, outside the
// envelope string entirely.
type EnvelopeV001 struct {
	CipherText string // base64, immediately following the "001" tag
}

func (e EnvelopeV001) Version() ProtocolVersion { return Version001 }

func (e EnvelopeV001) String() string {
	return string(Version001) + e.CipherText
}

// EnvelopePlaintext is the "000" sentinel: base64-encoded JSON the
// application opted out of encrypting.
type EnvelopePlaintext struct {
	PayloadB64 string
}

func (e EnvelopePlaintext) Version() ProtocolVersion { return VersionPlaintext }

func (e EnvelopePlaintext) String() string {
	return string(VersionPlaintext) + e.PayloadB64
}

func joinEnvelope(version ProtocolVersion, fields ...string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, string(version))
	parts = append(parts, fields...)
	return strings.Join(parts, ":")
}

// ParseEnvelope parses the wire-format string s into its versioned
// [Envelope]. Returns [ErrMalformedEnvelope] if the leading version tag is
// unrecognised or the colon-delimited field count does not match what the
// declared version requires.
func ParseEnvelope(s string) (Envelope, error) {
	if len(s) < 3 {
		return nil, ErrMalformedEnvelope
	}

	prefix := ProtocolVersion(s[:3])
	switch prefix {
	case VersionPlaintext:
		return EnvelopePlaintext{PayloadB64: s[3:]}, nil

	case Version001:
		return EnvelopeV001{CipherText: s[3:]}, nil

	case Version002, Version003:
		parts := strings.Split(s, ":")
		if len(parts) != 6 {
			return nil, ErrMalformedEnvelope
		}
		authHash, uuid, iv, ct, paramsB64 := parts[1], parts[2], parts[3], parts[4], parts[5]
		if prefix == Version002 {
			return EnvelopeV002{AuthHash: authHash, UUID: uuid, IV: iv, CipherText: ct, AuthParamsB64: paramsB64}, nil
		}
		return EnvelopeV003{AuthHash: authHash, UUID: uuid, IV: iv, CipherText: ct, AuthParamsB64: paramsB64}, nil

	default:
		return nil, ErrMalformedEnvelope
	}
}
