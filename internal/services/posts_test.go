package services

import (
	"context"
	"testing"
	"time"

	"briar/internal/apperr"
	"briar/internal/models"
	"briar/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

type postFixture struct {
	store    *memstore.MemStore
	posts    *PostService
	comments *CommentService
	votes    *VoteService
	author   *models.User
	reader   *models.User
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	author := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, author))
	reader := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, reader))

	return &postFixture{
		store:    st,
		posts:    NewPostService(st, 10*time.Minute),
		comments: NewCommentService(st, 10*time.Minute),
		votes:    NewVoteService(st),
		author:   author,
		reader:   reader,
	}
}

func TestCreatePost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)
	require.Len(t, post.Pid, 8)
	require.Equal(t, f.author.ID, post.UserID)

	_, err = f.posts.Create(ctx, f.author.ID, "", "body")
	require.Equal(t, apperr.Validation, apperr.KindOf(err))
	_, err = f.posts.Create(ctx, f.author.ID, "title", " ")
	require.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGetProjectsRatedState(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)
	_, err = f.votes.Vote(ctx, f.reader.ID, models.KindPost, post.ID, true)
	require.NoError(t, err)

	dto, err := f.posts.Get(ctx, post.Pid, f.reader.ID)
	require.NoError(t, err)
	require.Equal(t, -1.0, dto.Rating)
	require.True(t, dto.Rated.IsRated)
	require.True(t, dto.Rated.Negative)

	// Guests get the shared view with no rated state.
	dto, err = f.posts.Get(ctx, post.Pid, 0)
	require.NoError(t, err)
	require.False(t, dto.Rated.IsRated)
}

func TestUpdatePostOwnershipAndWindow(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)

	_, err = f.posts.Update(ctx, f.reader.ID, post.ID, "hijack", "body")
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	_, err = f.posts.Update(ctx, f.author.ID, post.ID, "title 2", "body 2")
	require.NoError(t, err)
	got, _ := f.store.GetPost(ctx, post.ID)
	require.Equal(t, "title 2", got.Title)

	f.posts.now = func() time.Time {
		return post.CreatedAt.Add(10*time.Minute + time.Millisecond)
	}
	_, err = f.posts.Update(ctx, f.author.ID, post.ID, "too", "late")
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestDeletePostBlockedByComments(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)
	_, err = f.comments.Create(ctx, f.reader.ID, post.ID, "keeps the post alive", nil)
	require.NoError(t, err)

	err = f.posts.Delete(ctx, f.author.ID, post.ID)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	require.EqualError(t, err, "post has comments")
}

func TestDeletePostWithinWindow(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)

	// A stale rate must not survive the post.
	_, err = f.votes.Vote(ctx, f.reader.ID, models.KindPost, post.ID, false)
	require.NoError(t, err)
	_, err = f.votes.Unvote(ctx, f.reader.ID, models.KindPost, post.ID)
	require.NoError(t, err)
	_, err = f.votes.Vote(ctx, f.reader.ID, models.KindPost, post.ID, false)
	require.NoError(t, err)

	require.NoError(t, f.posts.Delete(ctx, f.author.ID, post.ID))

	_, err = f.store.GetPost(ctx, post.ID)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = f.store.FindRate(ctx, f.reader.ID, models.KindPost, post.ID)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeletePostOutsideWindow(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.posts.Create(ctx, f.author.ID, "title", "body")
	require.NoError(t, err)

	f.posts.now = func() time.Time {
		return post.CreatedAt.Add(10*time.Minute + time.Millisecond)
	}
	err = f.posts.Delete(ctx, f.author.ID, post.ID)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestListRanksHigherRatedFirst(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	cold, err := f.posts.Create(ctx, f.author.ID, "cold", "body")
	require.NoError(t, err)
	hot, err := f.posts.Create(ctx, f.author.ID, "hot", "body")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		voter := &models.User{Username: "v", Email: string(rune('a'+i)) + "@example.com", Password: "x"}
		require.NoError(t, f.store.CreateUser(ctx, voter))
		_, err = f.votes.Vote(ctx, voter.ID, models.KindPost, hot.ID, false)
		require.NoError(t, err)
	}

	page, err := f.posts.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, hot.ID, page[0].ID)
	require.Equal(t, cold.ID, page[1].ID)
}
