// Package authctx carries the resolved user identity through the gin
// request context.
package authctx

import "github.com/gin-gonic/gin"

const userIDKey = "auth_user_id"

// SetUserID stores the authenticated user id on the request context.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// UserID returns the authenticated user id, or "" when unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
