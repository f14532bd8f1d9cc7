package models

import (
	"time"
)

// TargetKind tags which table a Rate (or a rating delta) applies to.
type TargetKind string

const (
	KindPost    TargetKind = "post"
	KindComment TargetKind = "comment"
)

// UnitValue is the fixed magnitude one vote contributes to a rating.
func (k TargetKind) UnitValue() float64 {
	if k == KindComment {
		return 0.5
	}
	return 1.0
}

func (k TargetKind) Valid() bool {
	return k == KindPost || k == KindComment
}

// Rate is a single voter's directional vote on one target. The
// composite unique index makes the one-vote-per-(voter,target)
// invariant a property of the store, not of application logic.
type Rate struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_voter_target" json:"user_id"`
	TargetKind TargetKind `gorm:"size:10;not null;uniqueIndex:idx_voter_target" json:"target_kind"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_voter_target;index" json:"target_id"`
	Negative   bool       `gorm:"not null" json:"negative"`
	CreatedAt  time.Time  `json:"created_at"`
}
