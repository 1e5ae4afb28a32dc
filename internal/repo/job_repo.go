// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DeliveryJob model, the durable delayed-task table behind the letter
// scheduler.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// CreateJob inserts a delayed-task row firing at fireAt for letterID.
func CreateJob(db *gorm.DB, letterID string, fireAt time.Time) (*domain.DeliveryJob, error) {
	j := &domain.DeliveryJob{
		ID:        uuid.NewString(),
		LetterID:  letterID,
		FireAt:    fireAt,
		CreatedAt: time.Now().UTC(),
	}
	return j, db.Create(j).Error
}

// GetJob fetches a job by id, or ErrNotFound.
func GetJob(ctx context.Context, db *gorm.DB, id string) (*domain.DeliveryJob, error) {
	var j domain.DeliveryJob
	if err := db.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// DeleteJob removes a job row. Deleting an already-fired or cancelled job is
// a no-op, which is exactly the best-effort cancel semantics the scheduler
// needs.
func DeleteJob(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&domain.DeliveryJob{}).Error
}

// DueJobs returns up to limit jobs whose trigger time has passed, oldest
// first, for the scheduler's poll loop.
func DueJobs(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.DeliveryJob, error) {
	var out []domain.DeliveryJob
	err := db.WithContext(ctx).
		Where("fire_at <= ?", now).
		Order("fire_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
