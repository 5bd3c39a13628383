package session

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func testKey() []byte {
	return DeriveKey([]byte("test-secret"), []byte("modus-session"))
}

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodecWithClock(testKey(), 24*time.Hour, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewCodecWithClock error: %v", err)
	}
	return c
}

func TestRoundTrip_WithinTTL(t *testing.T) {
	t.Parallel()

	now := time.Now()
	c := newTestCodec(t, now)

	tok, err := c.MintFor("a@b.com")
	if err != nil {
		t.Fatalf("MintFor error: %v", err)
	}

	auth := c.Validate(tok)
	if !auth.Allowed {
		t.Fatalf("fresh token rejected: %q", auth.Reason)
	}
	if auth.User != "a@b.com" {
		t.Fatalf("user mismatch: got %q", auth.User)
	}
}

func TestValidate_ExactTTLBoundaryStillAllowed(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	c := newTestCodec(t, issued)
	tok, err := c.Mint(Descriptor{User: "u", IssuedAt: issued.UnixMilli()})
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	atBoundary, err := NewCodecWithClock(testKey(), 24*time.Hour, func() time.Time {
		return issued.Add(24 * time.Hour)
	})
	if err != nil {
		t.Fatalf("NewCodecWithClock error: %v", err)
	}

	if auth := atBoundary.Validate(tok); !auth.Allowed {
		t.Fatalf("token at exact TTL must still be allowed, got %q", auth.Reason)
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	c := newTestCodec(t, issued)
	tok, err := c.MintFor("u")
	if err != nil {
		t.Fatalf("MintFor error: %v", err)
	}

	later, err := NewCodecWithClock(testKey(), 24*time.Hour, func() time.Time {
		return issued.Add(24*time.Hour + time.Millisecond)
	})
	if err != nil {
		t.Fatalf("NewCodecWithClock error: %v", err)
	}

	auth := later.Validate(tok)
	if auth.Allowed {
		t.Fatal("expired token must be rejected")
	}
	if auth.Reason != ReasonExpired {
		t.Fatalf("reason: got %q want %q", auth.Reason, ReasonExpired)
	}
}

func TestValidate_NoToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, time.Now())
	auth := c.Validate("")
	if auth.Allowed || auth.Reason != ReasonNoToken {
		t.Fatalf("unexpected auth: %+v", auth)
	}
}

func TestValidate_GarbageNeverPanics(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, time.Now())

	garbage := []string{
		"not-hex-at-all",
		"deadbeef", // too short
		hex.EncodeToString(make([]byte, 48)), // decrypts to junk
		strings.Repeat("0", 31),              // odd-length hex
		strings.Repeat("ff", 33),             // not block aligned
	}

	for _, tok := range garbage {
		auth := c.Validate(tok)
		if auth.Allowed {
			t.Fatalf("garbage token %q accepted", tok)
		}
		if auth.Reason != ReasonInvalid {
			t.Fatalf("garbage token %q: reason %q", tok, auth.Reason)
		}
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, time.Now())
	tok, err := c.MintFor("victim@b.com")
	if err != nil {
		t.Fatalf("MintFor error: %v", err)
	}

	// flip one ciphertext byte
	raw, _ := hex.DecodeString(tok)
	raw[len(raw)-1] ^= 0xff
	auth := c.Validate(hex.EncodeToString(raw))
	if auth.Allowed {
		t.Fatal("tampered token accepted")
	}
}

func TestMint_FreshIVPerToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, time.Now())
	d := Descriptor{User: "u", IssuedAt: 1}

	a, err := c.Mint(d)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	b, err := c.Mint(d)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if a == b {
		t.Fatal("identical descriptors must not yield identical tokens")
	}
}

func TestNewCodec_RejectsBadKeyAndTTL(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec([]byte("short"), time.Hour); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := NewCodec(testKey(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
