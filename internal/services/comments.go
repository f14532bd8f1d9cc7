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

// maxTreeDepth bounds tree rendering. Realistic reply chains are far
// shallower; deeper nesting is treated as pathological and cut off.
const maxTreeDepth = 512

// CommentService manages a comment's lifecycle as a node in the
// parent/child tree: creation links it under its parent and bumps the
// post's comment count; deletion either tombstones (node has
// descendants) or excises it entirely.
type CommentService struct {
	store  store.Store
	ledger *RateLedger
	window time.Duration
	now    func() time.Time
}

func NewCommentService(st store.Store, editWindow time.Duration) *CommentService {
	return &CommentService{
		store:  st,
		ledger: NewRateLedger(st),
		window: editWindow,
		now:    time.Now,
	}
}

// Create validates the post (and parent, for replies), inserts the
// comment, appends it to the parent's children and increments the
// post's comment count, all in one unit of work.
func (s *CommentService) Create(ctx context.Context, authorID, postID uint, body string, parentID *uint) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validationf("comment body must not be empty")
	}

	comment := &models.Comment{
		Cid:      utils.RandStringBytesMaskImpr(8),
		PostID:   postID,
		UserID:   authorID,
		ParentID: parentID,
		Body:     body,
		ChildIDs: models.IDList{},
	}

	err := s.store.Atomically(ctx, func(tx store.Store) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return err
		}
		if parentID != nil {
			parent, err := tx.GetComment(ctx, *parentID)
			if err != nil || parent.PostID != postID {
				return apperr.NotFoundf("parent not found")
			}
		}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		if parentID != nil {
			if err := tx.PushChild(ctx, *parentID, comment.ID); err != nil {
				return err
			}
		}
		return tx.AddPostCommentCount(ctx, postID, 1)
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentsCreated.Inc()
	return comment, nil
}

// Delete removes a comment the way the tree allows: a node with
// descendants becomes a tombstone so its children stay reachable; a
// childless node is excised, detached from its parent and subtracted
// from the post's comment count.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) error {
	var mode string

	err := s.store.Atomically(ctx, func(tx store.Store) error {
		c, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.Deleted {
			return apperr.BadRequestf("comment already deleted")
		}
		if c.UserID != actorID {
			return apperr.Forbiddenf("not your comment")
		}
		if !WithinWindow(c.CreatedAt, s.now(), s.window) {
			return apperr.Forbiddenf("delete window has closed")
		}

		if len(c.ChildIDs) > 0 {
			mode = "tombstone"
			return tx.TombstoneComment(ctx, commentID)
		}

		mode = "hard"
		if err := tx.DeleteComment(ctx, commentID); err != nil {
			return err
		}
		if c.ParentID != nil {
			if err := tx.PullChild(ctx, *c.ParentID, commentID); err != nil {
				return err
			}
		}
		// Rates pointing at a removed row would poison future lookups.
		if err := tx.DeleteRatesForTarget(ctx, models.KindComment, commentID); err != nil {
			return err
		}
		return tx.AddPostCommentCount(ctx, c.PostID, -1)
	})
	if err != nil {
		return err
	}

	metrics.CommentsDeleted.WithLabelValues(mode).Inc()
	return nil
}

// Update replaces the body of the actor's own comment. A comment with
// replies is frozen: editing it would pull context out from under the
// answers already given.
func (s *CommentService) Update(ctx context.Context, actorID, commentID uint, body string) (*models.Comment, error) {
	var updated *models.Comment

	err := s.store.Atomically(ctx, func(tx store.Store) error {
		c, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.Deleted {
			return apperr.BadRequestf("comment already deleted")
		}
		if c.UserID != actorID {
			return apperr.Forbiddenf("not your comment")
		}
		if len(c.ChildIDs) > 0 {
			return apperr.BadRequestf("cannot edit a comment with replies")
		}
		if !WithinWindow(c.CreatedAt, s.now(), s.window) {
			return apperr.Forbiddenf("edit window has closed")
		}
		if strings.TrimSpace(body) == "" {
			return apperr.Validationf("comment body must not be empty")
		}
		if err := tx.SetCommentBody(ctx, commentID, body); err != nil {
			return err
		}
		c.Body = body
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetByCid resolves a public comment id.
func (s *CommentService) GetByCid(ctx context.Context, cid string) (*models.Comment, error) {
	return s.store.GetCommentByCid(ctx, cid)
}

// Tree renders the post's full comment tree for one viewer. Nodes live
// in an arena keyed by id and the walk is iterative with an explicit
// stack, so tree depth can never exhaust the goroutine stack. Roots
// are ordered by rating descending; children keep insertion order.
func (s *CommentService) Tree(ctx context.Context, postID, viewerID uint) ([]*models.CommentResponse, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListPostComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	arena := make(map[uint]*models.Comment, len(comments))
	ids := make([]uint, 0, len(comments))
	var roots []*models.Comment
	for i := range comments {
		c := &comments[i]
		arena[c.ID] = c
		ids = append(ids, c.ID)
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}

	rated, err := s.ledger.ForTargets(ctx, viewerID, models.KindComment, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Rating > roots[j].Rating
	})

	type frame struct {
		comment *models.Comment
		dto     *models.CommentResponse
		depth   int
	}

	out := make([]*models.CommentResponse, 0, len(roots))
	stack := make([]frame, 0, len(roots))
	for _, root := range roots {
		dto := projectComment(root, rated)
		out = append(out, dto)
		stack = append(stack, frame{comment: root, dto: dto, depth: 0})
	}

	// Child order is stored on each node, so the pop order of the
	// stack does not matter; only the append order per parent does.
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth >= maxTreeDepth {
			continue
		}
		for _, childID := range f.comment.ChildIDs {
			child, ok := arena[childID]
			if !ok {
				continue
			}
			dto := projectComment(child, rated)
			f.dto.Children = append(f.dto.Children, dto)
			stack = append(stack, frame{comment: child, dto: dto, depth: f.depth + 1})
		}
	}
	return out, nil
}

// OverlayRated stamps the viewer's rated state onto an already
// rendered tree, so a shared (viewer-independent) render can be reused
// across requests. Tombstones are left untouched.
func (s *CommentService) OverlayRated(ctx context.Context, tree []*models.CommentResponse, viewerID uint) error {
	var ids []uint
	stack := append([]*models.CommentResponse{}, tree...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.Deleted {
			ids = append(ids, n.ID)
		}
		stack = append(stack, n.Children...)
	}

	rated, err := s.ledger.ForTargets(ctx, viewerID, models.KindComment, ids)
	if err != nil {
		return err
	}

	stack = append(stack[:0], tree...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.Deleted {
			info := &models.RatedInfo{}
			if r, ok := rated[n.ID]; ok {
				info.IsRated = true
				info.Negative = r.Negative
			}
			n.Rated = info
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

// projectComment shapes one node for the response. Tombstones keep
// only their structural fields.
func projectComment(c *models.Comment, rated map[uint]models.Rate) *models.CommentResponse {
	dto := &models.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		AuthorID:  c.UserID,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
		Children:  []*models.CommentResponse{},
	}
	if c.Deleted {
		return dto
	}
	dto.Cid = c.Cid
	dto.Body = c.Body
	dto.BodyHTML = utils.RenderMarkdown(c.Body)
	rating := c.Rating
	dto.Rating = &rating
	info := &models.RatedInfo{}
	if r, ok := rated[c.ID]; ok {
		info.IsRated = true
		info.Negative = r.Negative
	}
	dto.Rated = info
	return dto
}
