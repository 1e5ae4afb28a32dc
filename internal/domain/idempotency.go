package domain

import "time"

// Idempotency records the outcome of a previously processed mutation, keyed
// by (user_id, scope, key). A retried POST carrying the same Idempotency-Key
// returns the original result instead of re-executing side effects. Scope is
// the target aggregate id (e.g. a conversation id) so keys only need to be
// unique per target.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(80);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	ResultID  string    `gorm:"type:char(36);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
