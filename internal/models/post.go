package models

import (
	"time"
)

type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Pid    string `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title  string `gorm:"not null" json:"title"`
	Body   string `gorm:"type:text" json:"body"`

	// Denormalized sum of active rates. Updated only via atomic
	// increments, never recomputed from the ledger.
	Rating float64 `gorm:"default:0" json:"rating"`

	// Count of comments attached to this post, maintained
	// incrementally. Tombstoned comments still count; only a hard
	// delete decrements.
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
