package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"briar/internal/middleware"
	"briar/internal/models"
	"briar/internal/services"
	"briar/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	cache    utils.Cache
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService, cache utils.Cache) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, cache: cache}
}

type postForm struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// detailPayload is the shared, viewer-independent part of the detail
// response. The viewer's rated state is overlaid per request.
type detailPayload struct {
	Post     *models.PostResponse      `json:"post"`
	Comments []*models.CommentResponse `json:"comments"`
}

func detailCacheKey(pid string) string {
	return fmt.Sprintf("post:detail:shared:%s", pid)
}

func (h *PostHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	viewerID := middleware.CurrentUserID(c)

	posts, err := h.posts.List(c.Request.Context(), page, viewerID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page})
}

func (h *PostHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	pid := c.Param("pid")
	viewerID := middleware.CurrentUserID(c)

	payload, err := h.loadDetail(ctx, pid)
	if err != nil {
		Fail(c, err)
		return
	}

	// The cached payload is viewer-independent; fetch the acting
	// viewer's rated state fresh and overlay it.
	if viewerID != 0 {
		rated, err := h.posts.Get(ctx, pid, viewerID)
		if err != nil {
			Fail(c, err)
			return
		}
		payload.Post.Rated = rated.Rated
		payload.Post.Rating = rated.Rating
		if err := h.comments.OverlayRated(ctx, payload.Comments, viewerID); err != nil {
			Fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, payload)
}

func (h *PostHandler) loadDetail(ctx context.Context, pid string) (*detailPayload, error) {
	key := detailCacheKey(pid)
	if data := h.cache.Get(ctx, key); data != nil {
		var payload detailPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
	}

	post, err := h.posts.Get(ctx, pid, 0)
	if err != nil {
		return nil, err
	}
	tree, err := h.comments.Tree(ctx, post.ID, 0)
	if err != nil {
		return nil, err
	}

	payload := &detailPayload{Post: post, Comments: tree}
	if data, err := json.Marshal(payload); err == nil {
		h.cache.Set(ctx, key, data, 5*time.Minute)
	}
	return payload, nil
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form postForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), user.ID, form.Title, form.Body)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	pid := c.Param("pid")

	var form postForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.posts.GetByPid(c.Request.Context(), pid)
	if err != nil {
		Fail(c, err)
		return
	}
	updated, err := h.posts.Update(c.Request.Context(), user.ID, post.ID, form.Title, form.Body)
	if err != nil {
		Fail(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), detailCacheKey(pid))
	c.JSON(http.StatusOK, updated)
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	pid := c.Param("pid")

	post, err := h.posts.GetByPid(c.Request.Context(), pid)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.posts.Delete(c.Request.Context(), user.ID, post.ID); err != nil {
		Fail(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), detailCacheKey(pid))
	c.Status(http.StatusNoContent)
}
