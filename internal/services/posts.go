package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"briar/internal/apperr"
	"briar/internal/metrics"
	"briar/internal/models"
	"briar/internal/store"
	"briar/internal/utils"
)

const listPageSize = 30

// PostService owns post CRUD and the viewer-facing projections. The
// edit/delete window gates mutation; a post that has gathered comments
// can never be deleted, whatever its age.
type PostService struct {
	store  store.Store
	ledger *RateLedger
	window time.Duration
	now    func() time.Time
}

func NewPostService(st store.Store, editWindow time.Duration) *PostService {
	return &PostService{
		store:  st,
		ledger: NewRateLedger(st),
		window: editWindow,
		now:    time.Now,
	}
}

func (s *PostService) Create(ctx context.Context, authorID uint, title, body string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validationf("title must not be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validationf("body must not be empty")
	}
	post := &models.Post{
		Pid:    utils.RandStringBytesMaskImpr(8),
		UserID: authorID,
		Title:  title,
		Body:   body,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	metrics.PostsCreated.Inc()
	return post, nil
}

func (s *PostService) GetByPid(ctx context.Context, pid string) (*models.Post, error) {
	return s.store.GetPostByPid(ctx, pid)
}

func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.store.GetPost(ctx, id)
}

// PostOfComment resolves the post a comment belongs to.
func (s *PostService) PostOfComment(ctx context.Context, commentID uint) (*models.Post, error) {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.store.GetPost(ctx, c.PostID)
}

// Get projects one post for a viewer, including their rated state.
func (s *PostService) Get(ctx context.Context, pid string, viewerID uint) (*models.PostResponse, error) {
	post, err := s.store.GetPostByPid(ctx, pid)
	if err != nil {
		return nil, err
	}
	rated, err := s.ledger.ForTargets(ctx, viewerID, models.KindPost, []uint{post.ID})
	if err != nil {
		return nil, err
	}
	return s.project(post, rated), nil
}

func (s *PostService) Update(ctx context.Context, actorID, postID uint, title, body string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validationf("title must not be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validationf("body must not be empty")
	}

	var updated *models.Post
	err := s.store.Atomically(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			return apperr.Forbiddenf("not your post")
		}
		if !WithinWindow(post.CreatedAt, s.now(), s.window) {
			return apperr.Forbiddenf("edit window has closed")
		}
		if err := tx.SetPostBody(ctx, postID, title, body); err != nil {
			return err
		}
		post.Title = title
		post.Body = body
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a post. Only a post with zero comments is deletable,
// and only inside the delete window.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	return s.store.Atomically(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			return apperr.Forbiddenf("not your post")
		}
		if post.CommentCount > 0 {
			return apperr.Forbiddenf("post has comments")
		}
		if !WithinWindow(post.CreatedAt, s.now(), s.window) {
			return apperr.Forbiddenf("delete window has closed")
		}
		if err := tx.DeletePost(ctx, postID); err != nil {
			return err
		}
		return tx.DeleteRatesForTarget(ctx, models.KindPost, postID)
	})
}

// List returns one page of posts ordered by hot rank.
func (s *PostService) List(ctx context.Context, page int, viewerID uint) ([]*models.PostResponse, error) {
	if page < 1 {
		page = 1
	}
	posts, err := s.store.ListPosts(ctx, listPageSize, (page-1)*listPageSize)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	rated, err := s.ledger.ForTargets(ctx, viewerID, models.KindPost, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return utils.HotRank(posts[i].CreatedAt, posts[i].Rating, posts[i].CommentCount) >
			utils.HotRank(posts[j].CreatedAt, posts[j].Rating, posts[j].CommentCount)
	})

	out := make([]*models.PostResponse, len(posts))
	for i := range posts {
		out[i] = s.project(&posts[i], rated)
	}
	return out, nil
}

func (s *PostService) project(p *models.Post, rated map[uint]models.Rate) *models.PostResponse {
	dto := &models.PostResponse{
		ID:           p.ID,
		Pid:          p.Pid,
		AuthorID:     p.UserID,
		Title:        p.Title,
		Body:         p.Body,
		BodyHTML:     utils.RenderMarkdown(p.Body),
		Rating:       p.Rating,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
	}
	if r, ok := rated[p.ID]; ok {
		dto.Rated = models.RatedInfo{IsRated: true, Negative: r.Negative}
	}
	return dto
}
