package handlers

import (
	"net/http"

	"briar/internal/middleware"
	"briar/internal/services"
	"briar/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	cache    utils.Cache
}

func NewCommentHandler(posts *services.PostService, comments *services.CommentService, cache utils.Cache) *CommentHandler {
	return &CommentHandler{posts: posts, comments: comments, cache: cache}
}

type commentForm struct {
	Body     string `json:"body"`
	ParentID *uint  `json:"parent_id"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	pid := c.Param("pid")

	var form commentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.posts.GetByPid(c.Request.Context(), pid)
	if err != nil {
		Fail(c, err)
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), user.ID, post.ID, form.Body, form.ParentID)
	if err != nil {
		Fail(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), detailCacheKey(pid))
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	cid := c.Param("cid")

	var form commentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.comments.GetByCid(c.Request.Context(), cid)
	if err != nil {
		Fail(c, err)
		return
	}

	updated, err := h.comments.Update(c.Request.Context(), user.ID, comment.ID, form.Body)
	if err != nil {
		Fail(c, err)
		return
	}

	h.invalidatePost(c, comment.PostID)
	c.JSON(http.StatusOK, updated)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	cid := c.Param("cid")

	comment, err := h.comments.GetByCid(c.Request.Context(), cid)
	if err != nil {
		Fail(c, err)
		return
	}

	if err := h.comments.Delete(c.Request.Context(), user.ID, comment.ID); err != nil {
		Fail(c, err)
		return
	}

	h.invalidatePost(c, comment.PostID)
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) invalidatePost(c *gin.Context, postID uint) {
	if post, err := h.posts.GetByID(c.Request.Context(), postID); err == nil {
		h.cache.Delete(c.Request.Context(), detailCacheKey(post.Pid))
	}
}
