package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Cid      string `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	Post     Post   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID *uint  `gorm:"index" json:"parent_id"` // Nullable for root comments
	Body     string `gorm:"type:text" json:"body"`

	Rating float64 `gorm:"default:0" json:"rating"`

	// Ordered ids of direct replies, insertion order. Always exactly
	// the set of non-orphaned children; tombstoning leaves it intact.
	ChildIDs IDList `gorm:"type:jsonb;default:'[]';not null" json:"child_ids"`

	// Tombstone flag. A deleted comment keeps its place in the tree so
	// its descendants stay reachable.
	Deleted bool `gorm:"default:false" json:"deleted"`

	CreatedAt time.Time `json:"created_at"`
}

// IDList stores an ordered sequence of comment ids as a jsonb column.
type IDList []uint

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	return json.Marshal(l)
}

func (l *IDList) Scan(value any) error {
	if value == nil {
		*l = IDList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into IDList", value)
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether id is among the direct children.
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
