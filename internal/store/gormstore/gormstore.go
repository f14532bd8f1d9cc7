// Package gormstore is the PostgreSQL implementation of store.Store.
// Counter updates are issued as single-statement increments so two
// concurrent votes on the same target can never lose an update, and
// Atomically maps onto a database transaction.
package gormstore

import (
	"context"
	"errors"

	"briar/internal/apperr"
	"briar/internal/models"
	"briar/internal/store"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomically(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("email already registered")
		}
		return err
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) AddUserRating(ctx context.Context, id uint, delta float64) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("rating", gorm.Expr("rating + ?", delta)).Error
}

// Posts

func (s *GormStore) CreatePost(ctx context.Context, p *models.Post) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("post not found")
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).Where("pid = ?", pid).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("post not found")
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (s *GormStore) SetPostBody(ctx context.Context, id uint, title, body string) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "body": body}).Error
}

func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.Post{}, id).Error
}

func (s *GormStore) AddPostRating(ctx context.Context, id uint, delta float64) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("rating", gorm.Expr("rating + ?", delta)).Error
}

func (s *GormStore) AddPostCommentCount(ctx context.Context, id uint, delta int) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error
}

// Comments

func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *GormStore) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("comment not found")
		}
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) GetCommentByCid(ctx context.Context, cid string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Where("cid = ?", cid).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("comment not found")
		}
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) ListPostComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *GormStore) SetCommentBody(ctx context.Context, id uint, body string) error {
	return s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn("body", body).Error
}

func (s *GormStore) TombstoneComment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted": true, "body": ""}).Error
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.Comment{}, id).Error
}

func (s *GormStore) AddCommentRating(ctx context.Context, id uint, delta float64) error {
	return s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn("rating", gorm.Expr("rating + ?", delta)).Error
}

// PushChild appends childID to the parent's child_ids in one jsonb
// statement so the append is atomic at the row level.
func (s *GormStore) PushChild(ctx context.Context, parentID, childID uint) error {
	return s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", parentID).
		UpdateColumn("child_ids", gorm.Expr("child_ids || to_jsonb(?::bigint)", childID)).Error
}

// PullChild removes childID from the parent's child_ids, preserving
// the order of the remaining entries.
func (s *GormStore) PullChild(ctx context.Context, parentID, childID uint) error {
	return s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", parentID).
		UpdateColumn("child_ids", gorm.Expr(
			"(SELECT COALESCE(jsonb_agg(e ORDER BY ord), '[]'::jsonb) FROM jsonb_array_elements(child_ids) WITH ORDINALITY AS t(e, ord) WHERE e <> to_jsonb(?::bigint))",
			childID)).Error
}

// Rate ledger

func (s *GormStore) FindRate(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint) (*models.Rate, error) {
	var r models.Rate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("rate not found")
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ListRates(ctx context.Context, voterID uint, kind models.TargetKind, targetIDs []uint) ([]models.Rate, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	var rates []models.Rate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", voterID, kind, targetIDs).
		Find(&rates).Error
	return rates, err
}

// CreateRate inserts a new ledger record. The composite unique index
// on (user_id, target_kind, target_id) is the authoritative guard
// against double voting; a duplicate insert surfaces as Conflict.
func (s *GormStore) CreateRate(ctx context.Context, r *models.Rate) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("rate already exists for target")
		}
		return err
	}
	return nil
}

func (s *GormStore) SetRateNegative(ctx context.Context, rateID uint, negative bool) error {
	return s.db.WithContext(ctx).Model(&models.Rate{}).
		Where("id = ?", rateID).
		UpdateColumn("negative", negative).Error
}

func (s *GormStore) DeleteRate(ctx context.Context, rateID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Rate{}, rateID).Error
}

func (s *GormStore) DeleteRatesForTarget(ctx context.Context, kind models.TargetKind, targetID uint) error {
	return s.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Delete(&models.Rate{}).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
