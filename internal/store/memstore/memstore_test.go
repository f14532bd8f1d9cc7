package memstore

import (
	"context"
	"errors"
	"testing"

	"briar/internal/apperr"
	"briar/internal/models"
	"briar/internal/store"

	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, st *MemStore) *models.Post {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, u))
	p := &models.Post{Pid: "abcd1234", UserID: u.ID, Title: "t", Body: "b"}
	require.NoError(t, st.CreatePost(ctx, p))
	return p
}

func TestAtomicallyRollsBackOnError(t *testing.T) {
	st := New()
	ctx := context.Background()
	post := seedPost(t, st)

	boom := errors.New("boom")
	err := st.Atomically(ctx, func(tx store.Store) error {
		require.NoError(t, tx.AddPostRating(ctx, post.ID, 5))
		require.NoError(t, tx.AddPostCommentCount(ctx, post.ID, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, got.Rating)
	require.Equal(t, 0, got.CommentCount)
}

func TestAtomicallyCommits(t *testing.T) {
	st := New()
	ctx := context.Background()
	post := seedPost(t, st)

	err := st.Atomically(ctx, func(tx store.Store) error {
		return tx.AddPostRating(ctx, post.ID, 2.5)
	})
	require.NoError(t, err)

	got, _ := st.GetPost(ctx, post.ID)
	require.Equal(t, 2.5, got.Rating)
}

func TestPushPullChildKeepsOrder(t *testing.T) {
	st := New()
	ctx := context.Background()
	post := seedPost(t, st)

	parent := &models.Comment{Cid: "cid00001", PostID: post.ID, UserID: 1, Body: "root"}
	require.NoError(t, st.CreateComment(ctx, parent))

	for _, id := range []uint{10, 20, 30} {
		require.NoError(t, st.PushChild(ctx, parent.ID, id))
	}
	got, _ := st.GetComment(ctx, parent.ID)
	require.Equal(t, models.IDList{10, 20, 30}, got.ChildIDs)

	require.NoError(t, st.PullChild(ctx, parent.ID, 20))
	got, _ = st.GetComment(ctx, parent.ID)
	require.Equal(t, models.IDList{10, 30}, got.ChildIDs)
}

func TestCreateRateUnique(t *testing.T) {
	st := New()
	ctx := context.Background()
	post := seedPost(t, st)

	r := &models.Rate{UserID: 7, TargetKind: models.KindPost, TargetID: post.ID}
	require.NoError(t, st.CreateRate(ctx, r))

	dup := &models.Rate{UserID: 7, TargetKind: models.KindPost, TargetID: post.ID, Negative: true}
	err := st.CreateRate(ctx, dup)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Same voter, same id under the other kind is a different target.
	other := &models.Rate{UserID: 7, TargetKind: models.KindComment, TargetID: post.ID}
	require.NoError(t, st.CreateRate(ctx, other))
}

func TestDeleteRatesForTarget(t *testing.T) {
	st := New()
	ctx := context.Background()
	post := seedPost(t, st)

	for voter := uint(1); voter <= 3; voter++ {
		require.NoError(t, st.CreateRate(ctx, &models.Rate{
			UserID: voter, TargetKind: models.KindPost, TargetID: post.ID,
		}))
	}
	require.NoError(t, st.DeleteRatesForTarget(ctx, models.KindPost, post.ID))

	for voter := uint(1); voter <= 3; voter++ {
		_, err := st.FindRate(ctx, voter, models.KindPost, post.ID)
		require.Equal(t, apperr.NotFound, apperr.KindOf(err))
	}
}

func TestGetUserByEmail(t *testing.T) {
	st := New()
	ctx := context.Background()

	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, u))

	got, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = st.GetUserByEmail(ctx, "nobody@example.com")
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))

	dup := &models.User{Username: "alice2", Email: "alice@example.com", Password: "x"}
	err = st.CreateUser(ctx, dup)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}
