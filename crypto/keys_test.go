package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveMasterKeys_RefusesCostBelowFloor(t *testing.T) {
	_, err := DeriveMasterKeys(DeriveMasterKeysParams{
		Identifier: "alice@example.com",
		Password:   "password",
		Version:    Version003,
		Cost:       MinimumCost(Version003) - 1,
		Nonce:      "n",
	})
	if !errors.Is(err, ErrCostTooLow) {
		t.Fatalf("expected ErrCostTooLow, got %v", err)
	}
}

func TestDeriveMasterKeys_RefusesUnsupportedVersion(t *testing.T) {
	_, err := DeriveMasterKeys(DeriveMasterKeysParams{
		Identifier: "alice@example.com",
		Password:   "password",
		Version:    ProtocolVersion("004"),
		Cost:       1_000_000,
	})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDeriveMasterKeys_DeterministicForSameInputs(t *testing.T) {
	params := DeriveMasterKeysParams{
		Identifier: "alice@example.com",
		Password:   "correct horse battery staple",
		Version:    Version003,
		Cost:       MinimumCost(Version003),
		Nonce:      "fixed-nonce",
	}

	k1, err := DeriveMasterKeys(params)
	if err != nil {
		t.Fatalf("DeriveMasterKeys: %v", err)
	}
	k2, err := DeriveMasterKeys(params)
	if err != nil {
		t.Fatalf("DeriveMasterKeys: %v", err)
	}

	if !bytes.Equal(k1.Pw, k2.Pw) || !bytes.Equal(k1.Mk, k2.Mk) || !bytes.Equal(k1.Ak, k2.Ak) {
		t.Fatal("expected identical master keys for identical inputs")
	}
	if bytes.Equal(k1.Pw, k1.Mk) || bytes.Equal(k1.Mk, k1.Ak) || bytes.Equal(k1.Pw, k1.Ak) {
		t.Fatal("expected pw, mk, ak to be distinct")
	}
}

func TestDeriveMasterKeys_DifferentNonceProducesDifferentKeys(t *testing.T) {
	base := DeriveMasterKeysParams{
		Identifier: "alice@example.com",
		Password:   "correct horse battery staple",
		Version:    Version003,
		Cost:       MinimumCost(Version003),
	}
	withNonce := base
	withNonce.Nonce = "nonce-a"
	withOtherNonce := base
	withOtherNonce.Nonce = "nonce-b"

	k1, err := DeriveMasterKeys(withNonce)
	if err != nil {
		t.Fatalf("DeriveMasterKeys: %v", err)
	}
	k2, err := DeriveMasterKeys(withOtherNonce)
	if err != nil {
		t.Fatalf("DeriveMasterKeys: %v", err)
	}

	if bytes.Equal(k1.Mk, k2.Mk) {
		t.Fatal("expected different nonce to produce different master keys")
	}
}

func TestGenerateItemKey_LengthAndRandomness(t *testing.T) {
	k1, err := GenerateItemKey(NewDeterministicRandom(1))
	if err != nil {
		t.Fatalf("GenerateItemKey: %v", err)
	}
	k2, err := GenerateItemKey(NewDeterministicRandom(2))
	if err != nil {
		t.Fatalf("GenerateItemKey: %v", err)
	}

	if len(k1.Ek) != itemKeySplitBytes || len(k1.Ak) != itemKeySplitBytes {
		t.Fatalf("unexpected item key split lengths: ek=%d ak=%d", len(k1.Ek), len(k1.Ak))
	}
	if bytes.Equal(k1.Ek, k2.Ek) {
		t.Fatal("expected different seeds to produce different item keys")
	}
}

func TestItemKey_BytesRoundTrip(t *testing.T) {
	k, err := GenerateItemKey(NewDeterministicRandom(7))
	if err != nil {
		t.Fatalf("GenerateItemKey: %v", err)
	}

	got, err := itemKeyFromBytes(k.Bytes())
	if err != nil {
		t.Fatalf("itemKeyFromBytes: %v", err)
	}
	if !bytes.Equal(got.Ek, k.Ek) || !bytes.Equal(got.Ak, k.Ak) {
		t.Fatal("round trip through Bytes()/itemKeyFromBytes changed the key")
	}
}
