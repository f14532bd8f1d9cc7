package router

import (
	"briar/internal/config"
	"briar/internal/handlers"
	"briar/internal/middleware"
	"briar/internal/services"
	"briar/internal/store"
	"briar/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New wires the whole application: store-backed services, handlers and
// middleware onto one gin engine.
func New(cfg *config.Config, st store.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger())

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("briar_session", sessionStore))
	r.Use(middleware.LoadUser(st, cfg.JWTSecret))

	cache := utils.NewCache(cfg.RedisAddr)

	postService := services.NewPostService(st, cfg.PostEditWindow)
	commentService := services.NewCommentService(st, cfg.CommentEditWindow)
	voteService := services.NewVoteService(st)

	authHandler := handlers.NewAuthHandler(st, cfg.JWTSecret)
	postHandler := handlers.NewPostHandler(postService, commentService, cache)
	commentHandler := handlers.NewCommentHandler(postService, commentService, cache)
	voteHandler := handlers.NewVoteHandler(voteService, postService, cache)

	// Public routes
	r.GET("/", postHandler.List)
	r.GET("/p/:pid", postHandler.Detail)
	r.GET("/u/:id", authHandler.Profile)

	r.POST("/signup", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/api/token", authHandler.Token)

		authorized.POST("/submit", postHandler.Create)
		authorized.PUT("/p/:pid", postHandler.Update)
		authorized.DELETE("/p/:pid", postHandler.Delete)

		authorized.POST("/p/:pid/comment", commentHandler.Create)
		authorized.PUT("/comment/:cid", commentHandler.Update)
		authorized.DELETE("/comment/:cid", commentHandler.Delete)

		authorized.POST("/vote/:type/:id", voteHandler.Vote)
		authorized.POST("/vote/:type/:id/down", voteHandler.Downvote)
		authorized.DELETE("/vote/:type/:id", voteHandler.Unvote)
	}

	return r
}
