// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Letter
// model and its keyset-paginated role-aware queries.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// CreateLetter inserts a new pending letter. The delivery job reference is
// attached afterwards via SetLetterJob inside the same transaction.
func CreateLetter(db *gorm.DB, senderID, recipientID, title, content string, now time.Time) (*domain.Letter, error) {
	l := &domain.Letter{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Title:       title,
		Content:     content,
		Status:      domain.LetterPending,
		CreatedAt:   now,
	}
	return l, db.Create(l).Error
}

// SetLetterJob stores the owning job's id on a letter.
func SetLetterJob(db *gorm.DB, letterID, jobID string) error {
	res := db.Model(&domain.Letter{}).
		Where("id = ?", letterID).
		Update("scheduled_job_id", jobID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLetter fetches a letter by id, or ErrNotFound.
func GetLetter(ctx context.Context, db *gorm.DB, id string) (*domain.Letter, error) {
	var l domain.Letter
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkLetterDelivered transitions a letter pending -> delivered and clears
// the job reference. The status guard in the WHERE clause is what makes
// repeated firing idempotent: a second attempt matches zero rows.
func MarkLetterDelivered(db *gorm.DB, id string) (bool, error) {
	res := db.Model(&domain.Letter{}).
		Where("id = ? AND status = ?", id, domain.LetterPending).
		Updates(map[string]any{
			"status":           domain.LetterDelivered,
			"scheduled_job_id": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// DeleteLetter removes the row permanently. Missing rows report ErrNotFound.
func DeleteLetter(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&domain.Letter{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReceivedLettersPage returns up to limit delivered letters addressed to
// userID, newest first, starting strictly after the keyset position. A nil
// key starts from the newest row.
func ReceivedLettersPage(ctx context.Context, db *gorm.DB, userID string, after *cursor.Key, limit int) ([]domain.Letter, error) {
	q := db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, domain.LetterDelivered)
	return letterPage(q, after, limit)
}

// SentLettersPage returns up to limit letters sent by userID with no status
// filter: the sender sees pending and delivered alike.
func SentLettersPage(ctx context.Context, db *gorm.DB, userID string, after *cursor.Key, limit int) ([]domain.Letter, error) {
	q := db.WithContext(ctx).Where("sender_id = ?", userID)
	return letterPage(q, after, limit)
}

// letterPage applies the shared keyset ordering: (created_at, id) descending
// with a strict composite bound, so concurrent inserts never duplicate or
// skip rows across page boundaries.
func letterPage(q *gorm.DB, after *cursor.Key, limit int) ([]domain.Letter, error) {
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.T, after.T, after.ID)
	}
	var out []domain.Letter
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}
