package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
)

// fakeChecker is a canned friend-graph answer.
type fakeChecker struct {
	friends bool
	err     error
}

func (f fakeChecker) AreFriends(context.Context, string, string) (bool, error) {
	return f.friends, f.err
}

func TestRequireAuthenticated(t *testing.T) {
	if err := RequireAuthenticated("u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"", "   "} {
		err := RequireAuthenticated(id)
		if apperr.CodeOf(err) != apperr.CodeUnauthenticated {
			t.Fatalf("RequireAuthenticated(%q) = %v, want unauthenticated", id, err)
		}
	}
}

func TestRequireFriends(t *testing.T) {
	g := New(fakeChecker{friends: true})
	if err := g.RequireFriends(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g = New(fakeChecker{friends: false})
	err := g.RequireFriends(context.Background(), "a", "b")
	if apperr.CodeOf(err) != apperr.CodeNotAuthorized {
		t.Fatalf("expected permission denied, got %v", err)
	}

	g = New(fakeChecker{err: errors.New("down")})
	err = g.RequireFriends(context.Background(), "a", "b")
	if apperr.CodeOf(err) != apperr.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLetterTitle(t *testing.T) {
	got, err := LetterTitle("  Hello  ")
	if err != nil || got != "Hello" {
		t.Fatalf("LetterTitle = (%q, %v)", got, err)
	}

	if _, err := LetterTitle("   "); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("blank title: expected validation error, got %v", err)
	}
	if _, err := LetterTitle(strings.Repeat("x", TitleMaxRunes+1)); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("long title: expected validation error, got %v", err)
	}
	// Exactly at the bound passes; runes, not bytes.
	if _, err := LetterTitle(strings.Repeat("ä", TitleMaxRunes)); err != nil {
		t.Fatalf("title at rune bound: %v", err)
	}
}

func TestLetterContent(t *testing.T) {
	valid := strings.Repeat("a", ContentMinRunes)
	if got, err := LetterContent("  " + valid + "  "); err != nil || got != valid {
		t.Fatalf("LetterContent = (%q, %v)", got, err)
	}

	if _, err := LetterContent(strings.Repeat("a", ContentMinRunes-1)); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("short content: expected validation error, got %v", err)
	}
	if _, err := LetterContent(strings.Repeat("a", ContentMaxRunes+1)); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("long content: expected validation error, got %v", err)
	}
	// Trimming happens before counting: padding cannot rescue short content.
	padded := strings.Repeat(" ", 50) + strings.Repeat("a", ContentMinRunes-1) + strings.Repeat(" ", 50)
	if _, err := LetterContent(padded); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("padded short content: expected validation error, got %v", err)
	}
}

func TestDeliveryWindow(t *testing.T) {
	for _, days := range []int{MinDeliveryDays, 15, MaxDeliveryDays} {
		if err := DeliveryWindow(days); err != nil {
			t.Fatalf("DeliveryWindow(%d): %v", days, err)
		}
	}
	for _, days := range []int{0, -1, MaxDeliveryDays + 1} {
		if err := DeliveryWindow(days); apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("DeliveryWindow(%d): expected validation error, got %v", days, err)
		}
	}
}

func TestMessageContent(t *testing.T) {
	if got, err := MessageContent(" hi "); err != nil || got != "hi" {
		t.Fatalf("MessageContent = (%q, %v)", got, err)
	}
	if _, err := MessageContent("   "); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("blank message: expected validation error, got %v", err)
	}
	if _, err := MessageContent(strings.Repeat("x", MessageMaxRunes+1)); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("long message: expected validation error, got %v", err)
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got, err := IdempotencyKey("  k1  "); err != nil || got != "k1" {
		t.Fatalf("IdempotencyKey = (%q, %v)", got, err)
	}
	if got, err := IdempotencyKey(""); err != nil || got != "" {
		t.Fatalf("empty key must be allowed, got (%q, %v)", got, err)
	}
	if _, err := IdempotencyKey(strings.Repeat("k", IdempotencyKeyMax+1)); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("oversized key: expected validation error, got %v", err)
	}
}
