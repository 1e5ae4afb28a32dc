// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for User rows and
// the friendship pair table.
//
// All functions accept a *gorm.DB handle, making them safe for use within
// transactions. They follow the thin-repository approach: no business logic,
// only CRUD persistence and query composition. Missing rows surface as
// gorm.ErrRecordNotFound (aliased here as ErrNotFound); the guard/service
// layer translates that into the application taxonomy.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a profile row. Used by seeding and tests; profile
// management itself lives outside the communication core.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a single user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsers fetches the given ids in one query and returns them keyed by id.
// Absent ids are simply missing from the map. Used for batched projection
// enrichment so a page needs one lookup per distinct foreign id set.
func GetUsers(ctx context.Context, db *gorm.DB, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// AddFriendship records a symmetric friend relation for the unordered pair.
// Inserting the same pair twice (in either order) is a no-op thanks to the
// canonical unique index.
func AddFriendship(ctx context.Context, db *gorm.DB, a, b string) error {
	low, high := domain.SortPair(a, b)
	f := &domain.Friendship{
		ID:         uuid.NewString(),
		UserLowID:  low,
		UserHighID: high,
		CreatedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		FirstOrCreate(f).Error
}

// AreFriends reports whether the unordered pair has a friendship row.
func AreFriends(ctx context.Context, db *gorm.DB, a, b string) (bool, error) {
	low, high := domain.SortPair(a, b)
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Friendship{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&n).Error
	return n > 0, err
}
