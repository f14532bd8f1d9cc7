package handlers

import (
	"net/http"
	"strconv"
	"time"

	"briar/internal/apperr"
	"briar/internal/middleware"
	"briar/internal/models"
	"briar/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	store     store.Store
	jwtSecret string
}

func NewAuthHandler(st store.Store, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: st, jwtSecret: jwtSecret}
}

type credentialsForm struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		Fail(c, apperr.BadRequestf("email and password are required"))
		return
	}
	if form.Username == "" {
		Fail(c, apperr.Validationf("username must not be empty"))
		return
	}
	if len(form.Password) < 8 {
		Fail(c, apperr.Validationf("password must be at least 8 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		Fail(c, err)
		return
	}

	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hash),
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		Fail(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	_ = session.Save()

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		Fail(c, apperr.BadRequestf("email and password are required"))
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), form.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	_ = session.Save()

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

// Token issues a Bearer token for API clients that cannot carry the
// session cookie.
func (h *AuthHandler) Token(c *gin.Context) {
	user := middleware.CurrentUser(c)

	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}

// Profile returns a user's public profile including the aggregate
// rating their posts and comments have earned.
func (h *AuthHandler) Profile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		Fail(c, apperr.BadRequestf("invalid user id"))
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), uint(id))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"rating":     user.Rating,
		"created_at": user.CreatedAt,
	})
}
