package handlers

import (
	"net/http"
	"strconv"

	"briar/internal/apperr"
	"briar/internal/middleware"
	"briar/internal/models"
	"briar/internal/services"
	"briar/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
	posts *services.PostService
	cache utils.Cache
}

func NewVoteHandler(votes *services.VoteService, posts *services.PostService, cache utils.Cache) *VoteHandler {
	return &VoteHandler{votes: votes, posts: posts, cache: cache}
}

func voteTarget(c *gin.Context) (models.TargetKind, uint, error) {
	kind := models.TargetKind(c.Param("type"))
	if !kind.Valid() {
		return "", 0, apperr.BadRequestf("unknown target kind %q", c.Param("type"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return "", 0, apperr.BadRequestf("invalid target id")
	}
	return kind, uint(id), nil
}

// Vote handles upvote logic.
func (h *VoteHandler) Vote(c *gin.Context) {
	h.apply(c, false)
}

// Downvote handles downvote logic.
func (h *VoteHandler) Downvote(c *gin.Context) {
	h.apply(c, true)
}

func (h *VoteHandler) apply(c *gin.Context, negative bool) {
	user := middleware.CurrentUser(c)
	kind, id, err := voteTarget(c)
	if err != nil {
		Fail(c, err)
		return
	}

	result, err := h.votes.Vote(c.Request.Context(), user.ID, kind, id, negative)
	if err != nil {
		Fail(c, err)
		return
	}

	h.invalidate(c, kind, id)
	c.JSON(http.StatusOK, result)
}

// Unvote withdraws the caller's vote.
func (h *VoteHandler) Unvote(c *gin.Context) {
	user := middleware.CurrentUser(c)
	kind, id, err := voteTarget(c)
	if err != nil {
		Fail(c, err)
		return
	}

	result, err := h.votes.Unvote(c.Request.Context(), user.ID, kind, id)
	if err != nil {
		Fail(c, err)
		return
	}

	h.invalidate(c, kind, id)
	c.JSON(http.StatusOK, result)
}

// invalidate drops the shared detail cache of the post whose page the
// vote changed.
func (h *VoteHandler) invalidate(c *gin.Context, kind models.TargetKind, id uint) {
	ctx := c.Request.Context()
	switch kind {
	case models.KindPost:
		if post, err := h.posts.GetByID(ctx, id); err == nil {
			h.cache.Delete(ctx, detailCacheKey(post.Pid))
		}
	case models.KindComment:
		// Comment ratings render on the post detail page; the page is
		// re-cached on next read, so dropping by post id is enough.
		if post, err := h.posts.PostOfComment(ctx, id); err == nil {
			h.cache.Delete(ctx, detailCacheKey(post.Pid))
		}
	}
}
