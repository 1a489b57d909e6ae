// models/user.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a local snapshot of the profile service's user record, kept fresh
// by the profile sync worker. Authentication never happens in this service;
// the gateway injects the authenticated external id on every request.
type User struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalID string `gorm:"uniqueIndex;not null" json:"external_id"` // the profile service's UUID
	Username   string `gorm:"index" json:"username"`
	Email      string `json:"email,omitempty"`

	Timestamps
}

// UserScore aggregates lifetime results across all finished rounds: total
// points and the current win streak. One row per user, mutated only at the
// moment a round reaches game over.
type UserScore struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	Points int64 `json:"points" gorm:"default:0"`
	Streak int   `json:"streak" gorm:"default:0"` // consecutive daily wins, reset on any loss

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
