package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"briar/internal/models"
	"briar/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CheckUserKey = "user"

// LoadUser resolves the request identity from either the session
// cookie or a Bearer token and sets the user into the context. The
// services only ever see the resolved actor id.
func LoadUser(st store.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := identityFromSession(c); ok {
			setUser(c, st, userID)
		} else if userID, ok := identityFromBearer(c, jwtSecret); ok {
			setUser(c, st, userID)
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentUserID returns the authenticated user's id, or 0 for guests.
func CurrentUserID(c *gin.Context) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func setUser(c *gin.Context, st store.Store, userID uint) {
	user, err := st.GetUser(c.Request.Context(), userID)
	if err != nil {
		return
	}
	c.Set(CheckUserKey, user)
}

func identityFromSession(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	v := session.Get("user_id")
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		return 0, false
	}
	return id, true
}

func identityFromBearer(c *gin.Context, secret string) (uint, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return 0, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
