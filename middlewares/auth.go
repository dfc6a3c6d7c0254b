package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/models"
	"storefront-service/utils"
)

// UserSource resolves a token subject to a user record.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Auth validates the bearer token and attaches the resolved user to the
// request context under "user" and "userID". The password hash never
// leaves the store representation's json:"-" field.
func Auth(users UserSource, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token"})
			return
		}

		userID, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token failed"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			// Structurally valid token whose subject vanished.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, user not found"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// Admin gates a route to administrative users. Must run after Auth.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get("user")
		user, _ := value.(*models.User)
		if !ok || user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not authorized as an admin"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by Auth.
func CurrentUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
