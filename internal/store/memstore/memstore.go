// Package memstore is an in-memory store.Store used by the service
// tests and by dev mode when no database is configured. Atomically
// snapshots the state so a failed unit of work rolls back completely,
// mirroring the transactional behaviour of the PostgreSQL store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"briar/internal/apperr"
	"briar/internal/models"
	"briar/internal/store"
)

type state struct {
	users    map[uint]*models.User
	posts    map[uint]*models.Post
	comments map[uint]*models.Comment
	rates    map[uint]*models.Rate

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint
	nextRateID    uint
}

type MemStore struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func New() *MemStore {
	return &MemStore{
		mu: &sync.Mutex{},
		st: &state{
			users:    make(map[uint]*models.User),
			posts:    make(map[uint]*models.Post),
			comments: make(map[uint]*models.Comment),
			rates:    make(map[uint]*models.Rate),
		},
	}
}

func (s *MemStore) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *MemStore) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *MemStore) Atomically(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		// Nested unit of work joins the outer one.
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &MemStore{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (st *state) clone() *state {
	c := &state{
		users:         make(map[uint]*models.User, len(st.users)),
		posts:         make(map[uint]*models.Post, len(st.posts)),
		comments:      make(map[uint]*models.Comment, len(st.comments)),
		rates:         make(map[uint]*models.Rate, len(st.rates)),
		nextUserID:    st.nextUserID,
		nextPostID:    st.nextPostID,
		nextCommentID: st.nextCommentID,
		nextRateID:    st.nextRateID,
	}
	for id, u := range st.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, p := range st.posts {
		cp := *p
		c.posts[id] = &cp
	}
	for id, cm := range st.comments {
		cp := *cm
		cp.ChildIDs = append(models.IDList{}, cm.ChildIDs...)
		c.comments[id] = &cp
	}
	for id, r := range st.rates {
		cp := *r
		c.rates[id] = &cp
	}
	return c
}

// Users

func (s *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	s.lock()
	defer s.unlock()

	for _, existing := range s.st.users {
		if existing.Email == u.Email {
			return apperr.Conflictf("email already registered")
		}
	}
	s.st.nextUserID++
	u.ID = s.st.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	s.st.users[u.ID] = &cp
	return nil
}

func (s *MemStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.lock()
	defer s.unlock()

	u, ok := s.st.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.lock()
	defer s.unlock()

	for _, u := range s.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (s *MemStore) AddUserRating(ctx context.Context, id uint, delta float64) error {
	s.lock()
	defer s.unlock()

	u, ok := s.st.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.Rating += delta
	return nil
}

// Posts

func (s *MemStore) CreatePost(ctx context.Context, p *models.Post) error {
	s.lock()
	defer s.unlock()

	s.st.nextPostID++
	p.ID = s.st.nextPostID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	s.st.posts[p.ID] = &cp
	return nil
}

func (s *MemStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	s.lock()
	defer s.unlock()

	p, ok := s.st.posts[id]
	if !ok {
		return nil, apperr.NotFoundf("post not found")
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	s.lock()
	defer s.unlock()

	for _, p := range s.st.posts {
		if p.Pid == pid {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("post not found")
}

func (s *MemStore) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	s.lock()
	defer s.unlock()

	posts := make([]models.Post, 0, len(s.st.posts))
	for _, p := range s.st.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if offset >= len(posts) {
		return nil, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemStore) SetPostBody(ctx context.Context, id uint, title, body string) error {
	s.lock()
	defer s.unlock()

	p, ok := s.st.posts[id]
	if !ok {
		return apperr.NotFoundf("post not found")
	}
	p.Title = title
	p.Body = body
	return nil
}

func (s *MemStore) DeletePost(ctx context.Context, id uint) error {
	s.lock()
	defer s.unlock()

	delete(s.st.posts, id)
	return nil
}

func (s *MemStore) AddPostRating(ctx context.Context, id uint, delta float64) error {
	s.lock()
	defer s.unlock()

	p, ok := s.st.posts[id]
	if !ok {
		return apperr.NotFoundf("post not found")
	}
	p.Rating += delta
	return nil
}

func (s *MemStore) AddPostCommentCount(ctx context.Context, id uint, delta int) error {
	s.lock()
	defer s.unlock()

	p, ok := s.st.posts[id]
	if !ok {
		return apperr.NotFoundf("post not found")
	}
	p.CommentCount += delta
	return nil
}

// Comments

func (s *MemStore) CreateComment(ctx context.Context, c *models.Comment) error {
	s.lock()
	defer s.unlock()

	s.st.nextCommentID++
	c.ID = s.st.nextCommentID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.ChildIDs == nil {
		c.ChildIDs = models.IDList{}
	}
	cp := *c
	cp.ChildIDs = append(models.IDList{}, c.ChildIDs...)
	s.st.comments[c.ID] = &cp
	return nil
}

func (s *MemStore) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[id]
	if !ok {
		return nil, apperr.NotFoundf("comment not found")
	}
	cp := *c
	cp.ChildIDs = append(models.IDList{}, c.ChildIDs...)
	return &cp, nil
}

func (s *MemStore) GetCommentByCid(ctx context.Context, cid string) (*models.Comment, error) {
	s.lock()
	defer s.unlock()

	for _, c := range s.st.comments {
		if c.Cid == cid {
			cp := *c
			cp.ChildIDs = append(models.IDList{}, c.ChildIDs...)
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("comment not found")
}

func (s *MemStore) ListPostComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	s.lock()
	defer s.unlock()

	var comments []models.Comment
	for _, c := range s.st.comments {
		if c.PostID == postID {
			cp := *c
			cp.ChildIDs = append(models.IDList{}, c.ChildIDs...)
			comments = append(comments, cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *MemStore) SetCommentBody(ctx context.Context, id uint, body string) error {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[id]
	if !ok {
		return apperr.NotFoundf("comment not found")
	}
	c.Body = body
	return nil
}

func (s *MemStore) TombstoneComment(ctx context.Context, id uint) error {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[id]
	if !ok {
		return apperr.NotFoundf("comment not found")
	}
	c.Deleted = true
	c.Body = ""
	return nil
}

func (s *MemStore) DeleteComment(ctx context.Context, id uint) error {
	s.lock()
	defer s.unlock()

	delete(s.st.comments, id)
	return nil
}

func (s *MemStore) AddCommentRating(ctx context.Context, id uint, delta float64) error {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[id]
	if !ok {
		return apperr.NotFoundf("comment not found")
	}
	c.Rating += delta
	return nil
}

func (s *MemStore) PushChild(ctx context.Context, parentID, childID uint) error {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[parentID]
	if !ok {
		return apperr.NotFoundf("comment not found")
	}
	c.ChildIDs = append(c.ChildIDs, childID)
	return nil
}

func (s *MemStore) PullChild(ctx context.Context, parentID, childID uint) error {
	s.lock()
	defer s.unlock()

	c, ok := s.st.comments[parentID]
	if !ok {
		return apperr.NotFoundf("comment not found")
	}
	kept := c.ChildIDs[:0]
	for _, id := range c.ChildIDs {
		if id != childID {
			kept = append(kept, id)
		}
	}
	c.ChildIDs = kept
	return nil
}

// Rate ledger

func (s *MemStore) FindRate(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint) (*models.Rate, error) {
	s.lock()
	defer s.unlock()

	for _, r := range s.st.rates {
		if r.UserID == voterID && r.TargetKind == kind && r.TargetID == targetID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("rate not found")
}

func (s *MemStore) ListRates(ctx context.Context, voterID uint, kind models.TargetKind, targetIDs []uint) ([]models.Rate, error) {
	s.lock()
	defer s.unlock()

	wanted := make(map[uint]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}
	var rates []models.Rate
	for _, r := range s.st.rates {
		if r.UserID != voterID || r.TargetKind != kind {
			continue
		}
		if _, ok := wanted[r.TargetID]; ok {
			rates = append(rates, *r)
		}
	}
	return rates, nil
}

func (s *MemStore) CreateRate(ctx context.Context, r *models.Rate) error {
	s.lock()
	defer s.unlock()

	for _, existing := range s.st.rates {
		if existing.UserID == r.UserID && existing.TargetKind == r.TargetKind && existing.TargetID == r.TargetID {
			return apperr.Conflictf("rate already exists for target")
		}
	}
	s.st.nextRateID++
	r.ID = s.st.nextRateID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	cp := *r
	s.st.rates[r.ID] = &cp
	return nil
}

func (s *MemStore) SetRateNegative(ctx context.Context, rateID uint, negative bool) error {
	s.lock()
	defer s.unlock()

	r, ok := s.st.rates[rateID]
	if !ok {
		return apperr.NotFoundf("rate not found")
	}
	r.Negative = negative
	return nil
}

func (s *MemStore) DeleteRate(ctx context.Context, rateID uint) error {
	s.lock()
	defer s.unlock()

	delete(s.st.rates, rateID)
	return nil
}

func (s *MemStore) DeleteRatesForTarget(ctx context.Context, kind models.TargetKind, targetID uint) error {
	s.lock()
	defer s.unlock()

	for id, r := range s.st.rates {
		if r.TargetKind == kind && r.TargetID == targetID {
			delete(s.st.rates, id)
		}
	}
	return nil
}

func (s *MemStore) Close() error {
	return nil
}
