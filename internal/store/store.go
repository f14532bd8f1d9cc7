// Package store defines the persistence primitives the services are
// allowed to issue: get-by-id, insert, delete, atomic increments, and
// array push/pull for comment children. Nothing above this package
// writes raw queries.
package store

import (
	"context"

	"briar/internal/models"
)

type Store interface {
	// Atomically runs fn against a transactional view of the store.
	// Every multi-write operation (vote, unvote, comment create,
	// comment delete) goes through here so no caller ever observes a
	// partially applied state.
	Atomically(ctx context.Context, fn func(Store) error) error

	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AddUserRating(ctx context.Context, id uint, delta float64) error

	// Posts
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	GetPostByPid(ctx context.Context, pid string) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	SetPostBody(ctx context.Context, id uint, title, body string) error
	DeletePost(ctx context.Context, id uint) error
	AddPostRating(ctx context.Context, id uint, delta float64) error
	AddPostCommentCount(ctx context.Context, id uint, delta int) error

	// Comments
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentByCid(ctx context.Context, cid string) (*models.Comment, error)
	ListPostComments(ctx context.Context, postID uint) ([]models.Comment, error)
	SetCommentBody(ctx context.Context, id uint, body string) error
	TombstoneComment(ctx context.Context, id uint) error
	DeleteComment(ctx context.Context, id uint) error
	AddCommentRating(ctx context.Context, id uint, delta float64) error
	PushChild(ctx context.Context, parentID, childID uint) error
	PullChild(ctx context.Context, parentID, childID uint) error

	// Rate ledger
	FindRate(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint) (*models.Rate, error)
	ListRates(ctx context.Context, voterID uint, kind models.TargetKind, targetIDs []uint) ([]models.Rate, error)
	CreateRate(ctx context.Context, r *models.Rate) error
	SetRateNegative(ctx context.Context, rateID uint, negative bool) error
	DeleteRate(ctx context.Context, rateID uint) error
	DeleteRatesForTarget(ctx context.Context, kind models.TargetKind, targetID uint) error

	Close() error
}
