package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the authenticating reverse proxy in front of this
// service.
const (
	UserHeader      = "X-User-Id"
	DataOwnerHeader = "X-Data-Owner"
)

const (
	userKey      = "middleware.user"
	dataOwnerKey = "middleware.dataOwner"
)

// AuthContext extracts the caller identity headers into the request context.
// It never rejects; route groups that need an identity add RequireUser.
func AuthContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userKey, c.GetHeader(UserHeader))
		c.Set(dataOwnerKey, strings.EqualFold(c.GetHeader(DataOwnerHeader), "true"))
		c.Next()
	}
}

// RequireUser rejects requests that carry no caller identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if User(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHENTICATED",
					"message": "missing " + UserHeader + " header",
				},
			})
			return
		}
		c.Next()
	}
}

// User returns the authenticated user id, or empty for anonymous requests.
func User(c *gin.Context) string {
	return c.GetString(userKey)
}

// DataOwner reports whether the caller is marked as a data owner.
func DataOwner(c *gin.Context) bool {
	return c.GetBool(dataOwnerKey)
}
