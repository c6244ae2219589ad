package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/pkg/response"
)

// AdminAuth lets through only operators on the configured allow list.
// Must be used after JWTAuth.
func AdminAuth(adminUserIDs []string) gin.HandlerFunc {
	allowed := make(map[uuid.UUID]struct{}, len(adminUserIDs))
	for _, raw := range adminUserIDs {
		if id, err := uuid.Parse(raw); err == nil {
			allowed[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		val, exists := c.Get(ContextKeyOperatorID)
		if !exists {
			response.Unauthorized(c, "missing authentication")
			c.Abort()
			return
		}
		operatorID, ok := val.(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "invalid operator context")
			c.Abort()
			return
		}

		if _, isAdmin := allowed[operatorID]; !isAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
