package crypto

import "testing"

func TestParseEnvelope_RoundTripsEachVersion(t *testing.T) {
	cases := []Envelope{
		EnvelopeV003{AuthHash: "aa", UUID: "u1", IV: "bb", CipherText: "cc", AuthParamsB64: "dd"},
		EnvelopeV002{AuthHash: "aa", UUID: "u1", IV: "bb", CipherText: "cc", AuthParamsB64: "dd"},
		EnvelopeV001{CipherText: "cc"},
		EnvelopePlaintext{PayloadB64: "ZGF0YQ=="},
	}

	for _, want := range cases {
		wire := want.String()
		got, err := ParseEnvelope(wire)
		if err != nil {
			t.Fatalf("ParseEnvelope(%q): %v", wire, err)
		}
		if got != want {
			t.Fatalf("ParseEnvelope(%q) = %#v, want %#v", wire, got, want)
		}
	}
}

func TestParseEnvelope_RejectsWrongFieldCount(t *testing.T) {
	_, err := ParseEnvelope("003:only:three:fields")
	if err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestParseEnvelope_RejectsUnknownVersion(t *testing.T) {
	_, err := ParseEnvelope("999somegarbage")
	if err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestParseEnvelope_RejectsShortString(t *testing.T) {
	_, err := ParseEnvelope("00")
	if err != ErrMalformedEnvelope {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}
