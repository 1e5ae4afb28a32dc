// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model, including the bidirectional keyset pagination the chat view is
// built on.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// CreateMessage inserts a new message row.
func CreateMessage(db *gorm.DB, m *domain.Message) (*domain.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		// Millisecond precision matches the pagination cursor wire format.
		m.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return m, db.Create(m).Error
}

// GetMessage fetches a message by id, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages fetches the given ids in one query, keyed by id. Absent ids
// are simply missing from the map.
func GetMessages(ctx context.Context, db *gorm.DB, ids []string) (map[string]*domain.Message, error) {
	out := make(map[string]*domain.Message, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Message
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// MessagesPage returns up to limit messages of a conversation, newest first,
// starting strictly after the keyset position. The presentation layer
// reverses each page for bottom-anchored rendering; "load older" passes the
// cursor of the oldest row it has.
func MessagesPage(ctx context.Context, db *gorm.DB, convID string, after *cursor.Key, limit int) ([]domain.Message, error) {
	q := db.WithContext(ctx).Where("conversation_id = ?", convID)
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.T, after.T, after.ID)
	}
	var out []domain.Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// NewestMessage returns the most recent message of a conversation, or nil
// when the conversation is empty. Used to recompute the last-message pointer
// after a deletion.
func NewestMessage(db *gorm.DB, convID string) (*domain.Message, error) {
	var m domain.Message
	err := db.Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages returns the number of messages in a conversation.
func CountMessages(ctx context.Context, db *gorm.DB, convID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ?", convID).
		Count(&total).Error
	return total, err
}

// DeleteMessage removes the row permanently. Missing rows report
// ErrNotFound.
func DeleteMessage(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&domain.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkMessagesRead stamps every unread message sent to userID in the
// conversation. Only ReadAt ever changes on a persisted message.
func MarkMessagesRead(ctx context.Context, db *gorm.DB, convID, userID string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", convID, userID).
		Update("read_at", at).Error
}
