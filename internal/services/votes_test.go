package services

import (
	"context"
	"testing"

	"briar/internal/apperr"
	"briar/internal/models"
	"briar/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

type voteFixture struct {
	store  *memstore.MemStore
	votes  *VoteService
	author *models.User
	voter  *models.User
	post   *models.Post
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	author := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, author))
	voter := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(ctx, voter))

	post := &models.Post{Pid: "p1p1p1p1", UserID: author.ID, Title: "hello", Body: "world"}
	require.NoError(t, st.CreatePost(ctx, post))

	return &voteFixture{
		store:  st,
		votes:  NewVoteService(st),
		author: author,
		voter:  voter,
		post:   post,
	}
}

func (f *voteFixture) addComment(t *testing.T, authorID uint) *models.Comment {
	t.Helper()
	c := &models.Comment{Cid: "c1c1c1c1", PostID: f.post.ID, UserID: authorID, Body: "a comment"}
	require.NoError(t, f.store.CreateComment(context.Background(), c))
	return c
}

func TestVoteSelfRatingForbidden(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.author.ID, models.KindPost, f.post.ID, false)
	require.Error(t, err)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestVoteTargetNotFound(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, 999, false)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = f.votes.Unvote(ctx, f.voter.ID, models.KindComment, 999)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestVoteSameDirectionTwiceForbidden(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)

	_, err = f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// The failed second vote must not have touched the rating.
	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	require.Equal(t, 1.0, post.Rating)
}

func TestVoteAppliesUnitValue(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	result, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Rating)
	require.True(t, result.Rated.IsRated)
	require.False(t, result.Rated.Negative)

	author, err := f.store.GetUser(ctx, f.author.ID)
	require.NoError(t, err)
	require.Equal(t, 1.0, author.Rating)
}

func TestVoteOnCommentUsesHalfUnit(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	comment := f.addComment(t, f.author.ID)

	result, err := f.votes.Vote(ctx, f.voter.ID, models.KindComment, comment.ID, true)
	require.NoError(t, err)
	require.Equal(t, -0.5, result.Rating)

	author, err := f.store.GetUser(ctx, f.author.ID)
	require.NoError(t, err)
	require.Equal(t, -0.5, author.Rating)
}

func TestVoteFlipAppliesDoubleUnit(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, true)
	require.NoError(t, err)

	result, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Rating)

	author, err := f.store.GetUser(ctx, f.author.ID)
	require.NoError(t, err)
	require.Equal(t, 1.0, author.Rating)

	// The ledger still holds exactly one rate, flipped in place.
	rate, err := f.store.FindRate(ctx, f.voter.ID, models.KindPost, f.post.ID)
	require.NoError(t, err)
	require.False(t, rate.Negative)
}

func TestUnvoteReversesExactly(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)

	result, err := f.votes.Unvote(ctx, f.voter.ID, models.KindPost, f.post.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Rating)
	require.False(t, result.Rated.IsRated)

	author, err := f.store.GetUser(ctx, f.author.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, author.Rating)

	_, err = f.store.FindRate(ctx, f.voter.ID, models.KindPost, f.post.ID)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUnvoteWithoutRateForbidden(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Unvote(ctx, f.voter.ID, models.KindPost, f.post.ID)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	require.EqualError(t, err, "target is not rated")
}

// Down, flip to up, unvote: the full lifecycle from the spec of the
// feature. Ratings end exactly where they started.
func TestVoteDownFlipUnvoteScenario(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	result, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, true)
	require.NoError(t, err)
	require.Equal(t, -1.0, result.Rating)

	author, _ := f.store.GetUser(ctx, f.author.ID)
	require.Equal(t, -1.0, author.Rating)

	result, err = f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Rating)

	author, _ = f.store.GetUser(ctx, f.author.ID)
	require.Equal(t, 1.0, author.Rating)

	result, err = f.votes.Unvote(ctx, f.voter.ID, models.KindPost, f.post.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Rating)

	author, _ = f.store.GetUser(ctx, f.author.ID)
	require.Equal(t, 0.0, author.Rating)
}

func TestVoteOnTombstonedCommentNotFound(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	comment := f.addComment(t, f.author.ID)
	require.NoError(t, f.store.TombstoneComment(ctx, comment.ID))

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindComment, comment.ID, false)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestRateLedgerRejectsDuplicate(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	ledger := NewRateLedger(f.store)

	_, err := ledger.Create(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)

	_, err = ledger.Create(ctx, f.voter.ID, models.KindPost, f.post.ID, true)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestVoteUnknownKindBadRequest(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.votes.Vote(ctx, f.voter.ID, models.TargetKind("story"), f.post.ID, false)
	require.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestVoteFailureRollsBackAllWrites(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	// Same-direction rejection happens after the target is loaded but
	// before any write; the transaction must leave nothing behind.
	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.NoError(t, err)
	before, _ := f.store.GetPost(ctx, f.post.ID)

	_, err = f.votes.Vote(ctx, f.voter.ID, models.KindPost, f.post.ID, false)
	require.Error(t, err)

	after, _ := f.store.GetPost(ctx, f.post.ID)
	require.Equal(t, before.Rating, after.Rating)

	author, _ := f.store.GetUser(ctx, f.author.ID)
	require.Equal(t, 1.0, author.Rating)
}

// Flip timing should never depend on wall-clock ordering of the two
// counter writes; both land or neither does.
func TestFlipKeepsCountersInStep(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()
	comment := f.addComment(t, f.author.ID)

	_, err := f.votes.Vote(ctx, f.voter.ID, models.KindComment, comment.ID, false)
	require.NoError(t, err)
	_, err = f.votes.Vote(ctx, f.voter.ID, models.KindComment, comment.ID, true)
	require.NoError(t, err)

	got, err := f.store.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	author, err := f.store.GetUser(ctx, f.author.ID)
	require.NoError(t, err)
	require.Equal(t, got.Rating, author.Rating)
	require.Equal(t, -0.5, got.Rating)
}
