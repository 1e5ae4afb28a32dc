package cursor

import (
	"errors"
	"testing"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	k := Key{T: time.Date(2025, 6, 1, 12, 30, 45, 123_000_000, time.UTC), ID: "msg-42"}

	got, err := Decode(Encode(k))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got == nil {
		t.Fatal("Decode returned nil for a valid token")
	}
	if !got.T.Equal(k.T) {
		t.Fatalf("time mismatch: got %v, want %v", got.T, k.T)
	}
	if got.ID != k.ID {
		t.Fatalf("id mismatch: got %q, want %q", got.ID, k.ID)
	}
}

func TestDecode_EmptyMeansFirstPage(t *testing.T) {
	k, err := Decode("")
	if err != nil {
		t.Fatalf("Decode(\"\"): %v", err)
	}
	if k != nil {
		t.Fatalf("empty token must decode to nil, got %+v", k)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, tok := range []string{"%%%not-base64%%%", "aGVsbG8", Encode(Key{})} {
		_, err := Decode(tok)
		if err == nil {
			t.Fatalf("Decode(%q): expected error", tok)
		}
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Code != apperr.CodeValidation {
			t.Fatalf("Decode(%q): expected validation error, got %v", tok, err)
		}
	}
}
