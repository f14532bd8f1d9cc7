package models

import (
	"time"
)

// RatedInfo tells the acting viewer whether (and how) they already
// voted on an entity.
type RatedInfo struct {
	IsRated  bool `json:"isRated"`
	Negative bool `json:"negative"`
}

// PostResponse is the standard projection of a post for one viewer.
type PostResponse struct {
	ID           uint      `json:"id"`
	Pid          string    `json:"pid"`
	AuthorID     uint      `json:"author_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	BodyHTML     string    `json:"body_html"`
	Rating       float64   `json:"rating"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	Rated        RatedInfo `json:"rated"`
}

// CommentResponse is one node of the rendered comment tree. A
// tombstoned node carries only its structural fields: body, rating and
// rated are withheld.
type CommentResponse struct {
	ID        uint               `json:"id"`
	Cid       string             `json:"cid,omitempty"`
	PostID    uint               `json:"post_id"`
	ParentID  *uint              `json:"parent_id"`
	AuthorID  uint               `json:"author_id"`
	Body      string             `json:"body,omitempty"`
	BodyHTML  string             `json:"body_html,omitempty"`
	Rating    *float64           `json:"rating,omitempty"`
	Rated     *RatedInfo         `json:"rated,omitempty"`
	Deleted   bool               `json:"deleted"`
	CreatedAt time.Time          `json:"created_at"`
	Children  []*CommentResponse `json:"children"`
}
