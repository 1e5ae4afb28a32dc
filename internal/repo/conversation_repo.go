// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model, keyed by the canonical pair id.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// EnsureConversation creates the conversation for the unordered pair if it
// does not exist and returns it. The canonical primary key makes the call
// idempotent from either direction: a second create resolves to the first
// row.
func EnsureConversation(db *gorm.DB, a, b string, now time.Time) (*domain.Conversation, error) {
	low, high := domain.SortPair(a, b)
	c := &domain.Conversation{
		ID:            domain.PairID(a, b),
		User1ID:       low,
		User2ID:       high,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	err := db.Where("id = ?", c.ID).FirstOrCreate(c).Error
	if err != nil && isDuplicateErr(err) {
		// Lost a race against the same pair creating from the other
		// direction; the existing row is the answer.
		var existing domain.Conversation
		if ferr := db.Where("id = ?", c.ID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation by pair id, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ConversationsPage returns up to limit conversations for userID ordered by
// recency of the last message, keyset-anchored on (last_message_at, id).
func ConversationsPage(ctx context.Context, db *gorm.DB, userID string, after *cursor.Key, limit int) ([]domain.Conversation, error) {
	q := db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID)
	if after != nil {
		q = q.Where("last_message_at < ? OR (last_message_at = ? AND id < ?)", after.T, after.T, after.ID)
	}
	var out []domain.Conversation
	err := q.Order("last_message_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// SetLastMessage repoints the conversation's last-message reference and
// bumps its recency. A nil messageID clears the pointer (all messages
// deleted).
func SetLastMessage(db *gorm.DB, convID string, messageID *string, at time.Time) error {
	return db.Model(&domain.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]any{
			"last_message_id": messageID,
			"last_message_at": at,
		}).Error
}

// SetUnread flips the unread flag of one participant.
func SetUnread(db *gorm.DB, conv *domain.Conversation, userID string, unread bool) error {
	col := "user2_unread"
	if conv.User1ID == userID {
		col = "user1_unread"
	}
	return db.Model(&domain.Conversation{}).
		Where("id = ?", conv.ID).
		Update(col, unread).Error
}

// DeleteConversation removes the conversation row and every message in it.
// Callers run this inside a transaction so observers never see messages
// without their conversation.
func DeleteConversation(db *gorm.DB, id string) error {
	if err := db.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&domain.Conversation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
