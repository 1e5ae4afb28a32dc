// Package guard is the authorization gate in front of every mutation. It
// validates identity, relationship, and field constraints in that order;
// any failure blocks the mutation entirely before a transaction starts.
// Everything here is pure given its inputs except the friendship lookup.
package guard

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
	"github.com/Bashy-Codes/wf-server/internal/friends"
)

// Field bounds for letters and chat messages.
const (
	TitleMaxRunes     = 100
	ContentMinRunes   = 100
	ContentMaxRunes   = 2000
	MessageMaxRunes   = 2000
	MinDeliveryDays   = 1
	MaxDeliveryDays   = 30
	IdempotencyKeyMax = 200
)

// Guard bundles the relationship checker with the pure validators so
// services depend on one gate.
type Guard struct {
	Friends friends.Checker
}

// New constructs a Guard over the given friend-graph checker.
func New(f friends.Checker) *Guard {
	return &Guard{Friends: f}
}

// RequireAuthenticated rejects operations with no resolved caller identity.
func RequireAuthenticated(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Unauthenticated("not authenticated")
	}
	return nil
}

// RequireFriends rejects the mutation unless the symmetric friendship holds.
func (g *Guard) RequireFriends(ctx context.Context, a, b string) error {
	ok, err := g.Friends.AreFriends(ctx, a, b)
	if err != nil {
		return apperr.Internal("friend lookup failed", err)
	}
	if !ok {
		return apperr.NotAuthorized("not friends")
	}
	return nil
}

// LetterTitle trims and validates a letter title (1-100 runes).
func LetterTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(title) > TitleMaxRunes {
		return "", apperr.Validation("title", "title must be 100 characters or less")
	}
	return title, nil
}

// LetterContent trims and validates letter content (100-2000 runes).
func LetterContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < ContentMinRunes {
		return "", apperr.Validation("content", "content must be at least 100 characters")
	}
	if utf8.RuneCountInString(content) > ContentMaxRunes {
		return "", apperr.Validation("content", "content must be 2000 characters or less")
	}
	return content, nil
}

// DeliveryWindow validates the deferred-delivery offset in whole days.
func DeliveryWindow(days int) error {
	if days < MinDeliveryDays || days > MaxDeliveryDays {
		return apperr.Validation("daysUntilDelivery", "delivery must be between 1 and 30 days from now")
	}
	return nil
}

// MessageContent trims and validates a text chat message.
func MessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("content", "message is empty")
	}
	if utf8.RuneCountInString(content) > MessageMaxRunes {
		return "", apperr.Validation("content", "message must be 2000 characters or less")
	}
	return content, nil
}

// IdempotencyKey validates an optional client retry key.
func IdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > IdempotencyKeyMax {
		return "", apperr.Validation("Idempotency-Key", "key too long")
	}
	return key, nil
}
