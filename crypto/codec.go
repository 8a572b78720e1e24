// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/hmac"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

var zeroIV = make([]byte, aes.BlockSize)

// Codec implements the content envelope described in the package doc: it
// encrypts/decrypts item content and per-item keys under the versioned wire
// format. A Codec holds no key material of its own — every operation takes
// the keys it needs as arguments — so a single Codec is safe to share across
// users and goroutines.
type Codec struct {
	rng RandomSource
}

// NewCodec constructs a Codec that draws randomness (IVs, item keys) from
// rng. Passing a nil rng defaults to [SystemRandom].
func NewCodec(rng RandomSource) *Codec {
	if rng == nil {
		rng = SystemRandom{}
	}
	return &Codec{rng: rng}
}

// EncryptContent encrypts plaintext for item uuid under key, targeting
// version. params is embedded in the envelope. Refuses to encrypt under
// [Version001] ([ErrUnsupportedVersion]): "001" is read-only in modern
// clients. "000" is not accepted here either and also yields
// [ErrUnsupportedVersion]; use [Codec.EncryptPlaintext] for it.
func (c *Codec) EncryptContent(version ProtocolVersion, uuid string, plaintext []byte, key ItemKey, params AuthParams) (string, error) {
	switch version {
	case Version002, Version003:
		return c.encryptV2V3(version, uuid, plaintext, key, params)
	case Version001:
		return "", fmt.Errorf("%w: cannot encrypt new content under version 001", ErrUnsupportedVersion)
	default:
		return "", newUnsupportedVersionErr(version)
	}
}

// EncryptPlaintext wraps plaintext (already-serialized JSON) in the "000"
// sentinel envelope with no encryption at all, for content the application
// has opted out of protecting.
func (c *Codec) EncryptPlaintext(plaintext []byte) string {
	return EnvelopePlaintext{PayloadB64: base64.StdEncoding.EncodeToString(plaintext)}.String()
}

func (c *Codec) encryptV2V3(version ProtocolVersion, uuid string, plaintext []byte, key ItemKey, params AuthParams) (string, error) {
	ivBytes := make([]byte, aes.BlockSize)
	if _, err := readFull(c.rng, ivBytes); err != nil {
		return "", fmt.Errorf("crypto: generate iv: %w", err)
	}
	iv := hex.EncodeToString(ivBytes)

	ct, err := aesCBCEncrypt(plaintext, key.Ek, ivBytes)
	if err != nil {
		return "", fmt.Errorf("crypto: encrypt content: %w", err)
	}
	ctB64 := base64.StdEncoding.EncodeToString(ct)

	authHash := hex.EncodeToString(hmacSHA256([]byte(authData(version, uuid, iv, ctB64)), key.Ak))

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("crypto: marshal auth params: %w", err)
	}
	paramsB64 := base64.StdEncoding.EncodeToString(paramsJSON)

	if version == Version003 {
		return EnvelopeV003{AuthHash: authHash, UUID: uuid, IV: iv, CipherText: ctB64, AuthParamsB64: paramsB64}.String(), nil
	}
	return EnvelopeV002{AuthHash: authHash, UUID: uuid, IV: iv, CipherText: ctB64, AuthParamsB64: paramsB64}.String(), nil
}

func authData(version ProtocolVersion, uuid, iv, ciphertextB64 string) string {
	return fmt.Sprintf("%s:%s:%s:%s", version, uuid, iv, ciphertextB64)
}

// DecryptContent decrypts an already-parsed envelope for item uuid under
// key. topLevelAuthHash is consulted only for [EnvelopeV001], whose auth
// hash (if any) is carried outside the envelope string; pass "" if the item
// has none.
//
// Returns [ErrAuthenticationFailed] when the auth hash does not match, when
// the envelope's embedded UUID differs from uuid, or when a hash was
// required but absent. Returns [ErrMalformedEnvelope] for an envelope type
// this codec cannot decode. Decryption never mutates or discards its input;
// on error the caller is expected to retain the original ciphertext
// verbatim and mark the item errorDecrypting.
func (c *Codec) DecryptContent(env Envelope, uuid string, key ItemKey, topLevelAuthHash string) ([]byte, error) {
	switch e := env.(type) {
	case EnvelopeV003:
		return decryptV2V3(Version003, e.AuthHash, e.UUID, e.IV, e.CipherText, uuid, key)
	case EnvelopeV002:
		return decryptV2V3(Version002, e.AuthHash, e.UUID, e.IV, e.CipherText, uuid, key)
	case EnvelopeV001:
		return decryptV1(e.CipherText, topLevelAuthHash, key)
	case EnvelopePlaintext:
		return base64.StdEncoding.DecodeString(e.PayloadB64)
	default:
		return nil, ErrMalformedEnvelope
	}
}

func decryptV2V3(version ProtocolVersion, authHashHex, envUUID, ivHex, ctB64, uuid string, key ItemKey) ([]byte, error) {
	if envUUID != uuid {
		return nil, fmt.Errorf("%w: envelope uuid %q does not match item uuid %q", ErrAuthenticationFailed, envUUID, uuid)
	}

	expected := hmacSHA256([]byte(authData(version, uuid, ivHex, ctB64)), key.Ak)
	gotHash, err := hex.DecodeString(authHashHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid auth hash encoding", ErrAuthenticationFailed)
	}
	if !hmac.Equal(gotHash, expected) {
		return nil, fmt.Errorf("%w: auth hash mismatch", ErrAuthenticationFailed)
	}

	ivBytes, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid iv encoding", ErrAuthenticationFailed)
	}
	ctBytes, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext encoding", ErrAuthenticationFailed)
	}

	plaintext, err := aesCBCDecrypt(ctBytes, key.Ek, ivBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

func decryptV1(ctB64, topLevelAuthHash string, key ItemKey) ([]byte, error) {
	ctBytes, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext encoding", ErrAuthenticationFailed)
	}

	if topLevelAuthHash != "" {
		expected := hmacSHA256(ctBytes, key.Ak)
		got, err := hex.DecodeString(topLevelAuthHash)
		if err != nil || !hmac.Equal(got, expected) {
			return nil, fmt.Errorf("%w: auth hash mismatch", ErrAuthenticationFailed)
		}
	}

	plaintext, err := aesCBCDecrypt(ctBytes, key.Ek, zeroIV)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// EncryptItemKey wraps itemKey under the user's master keys, producing the
// enc_item_key envelope for uuid. Uses the same envelope scheme as content.
func (c *Codec) EncryptItemKey(version ProtocolVersion, uuid string, itemKey ItemKey, master MasterKeys, params AuthParams) (string, error) {
	plaintext := []byte(hex.EncodeToString(itemKey.Bytes()))
	return c.EncryptContent(version, uuid, plaintext, ItemKey{Ek: master.Mk, Ak: master.Ak}, params)
}

// DecryptItemKey unwraps an enc_item_key envelope for uuid using the user's
// master keys, returning the recovered per-item key.
func (c *Codec) DecryptItemKey(envStr, uuid string, master MasterKeys) (ItemKey, error) {
	env, err := ParseEnvelope(envStr)
	if err != nil {
		return ItemKey{}, err
	}

	plaintext, err := c.DecryptContent(env, uuid, ItemKey{Ek: master.Mk, Ak: master.Ak}, "")
	if err != nil {
		return ItemKey{}, err
	}

	raw, err := hex.DecodeString(string(plaintext))
	if err != nil {
		return ItemKey{}, fmt.Errorf("%w: invalid item key encoding", ErrMalformedEnvelope)
	}
	return itemKeyFromBytes(raw)
}

// Rotate re-wraps every enc_item_key blob in items (keyed by item UUID)
// from oldMaster to newMaster. It is the client-side operation at the core
// of a "change passphrase" flow: the items themselves are untouched, only
// their wrapped item keys change.
func (c *Codec) Rotate(version ProtocolVersion, oldMaster, newMaster MasterKeys, items map[string]string, newParams AuthParams) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for uuid, encKey := range items {
		itemKey, err := c.DecryptItemKey(encKey, uuid, oldMaster)
		if err != nil {
			return nil, fmt.Errorf("crypto: rotate decrypt item key %s: %w", uuid, err)
		}
		newEnc, err := c.EncryptItemKey(version, uuid, itemKey, newMaster, newParams)
		if err != nil {
			return nil, fmt.Errorf("crypto: rotate encrypt item key %s: %w", uuid, err)
		}
		out[uuid] = newEnc
	}
	return out, nil
}
