package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/shared/constants"
)

// GetUserID returns the authenticated user id set by the auth middleware.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(constants.ContextKeyIsAdmin)
}
