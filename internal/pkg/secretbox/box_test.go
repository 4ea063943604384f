package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestBox_SealOpen(t *testing.T) {
	box, err := New("short-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := box.Seal("mango-salt-123")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		t.Fatalf("sealed value is not base64: %v", err)
	}
	if parts := strings.Split(string(raw), ":"); len(parts) != 3 || len(parts[0]) != 32 || len(parts[1]) != 32 {
		t.Fatalf("unexpected layout %q", raw)
	}

	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "mango-salt-123" {
		t.Fatalf("got %q", plain)
	}
}

func TestBox_NonceIsRandom(t *testing.T) {
	box, _ := New("k")
	a, _ := box.Seal("same")
	b, _ := box.Seal("same")
	if a == b {
		t.Fatalf("two seals of the same value must differ")
	}
}

func TestBox_WrongKeyFails(t *testing.T) {
	a, _ := New("key-a")
	b, _ := New("key-b")
	sealed, _ := a.Seal("secret")
	if _, err := b.Open(sealed); err == nil {
		t.Fatalf("expected open with another key to fail")
	}
}

func TestBox_LongKeyTruncated(t *testing.T) {
	long := strings.Repeat("k", 40)
	a, _ := New(long)
	b, _ := New(long[:32])
	sealed, _ := a.Seal("secret")
	if plain, err := b.Open(sealed); err != nil || plain != "secret" {
		t.Fatalf("expected keys beyond 32 bytes to be ignored, got %q %v", plain, err)
	}
}

func TestBox_Malformed(t *testing.T) {
	box, _ := New("k")
	for _, in := range []string{"%%%", base64.StdEncoding.EncodeToString([]byte("a:b")), base64.StdEncoding.EncodeToString([]byte("zz:zz:zz"))} {
		if _, err := box.Open(in); err != ErrMalformed {
			t.Fatalf("Open(%q) = %v, want ErrMalformed", in, err)
		}
	}
	if plain, err := box.Open(""); err != nil || plain != "" {
		t.Fatalf("empty value should open to empty string")
	}
	if _, err := New(""); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}
