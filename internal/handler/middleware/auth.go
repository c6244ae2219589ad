package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwtpkg "tradeboard/pointhub/pkg/jwt"
	"tradeboard/pointhub/pkg/response"
)

const (
	ContextKeyUserClaims = "user_claims"
	ContextKeyOperatorID = "operator_id"
)

// JWTAuth requires a valid bearer access token and stores the caller's id in
// the context.
func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(c, "missing or malformed bearer token")
			c.Abort()
			return
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.TokenType != jwtpkg.TokenTypeAccess {
			response.Unauthorized(c, "invalid token type")
			c.Abort()
			return
		}

		operatorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			response.Unauthorized(c, "invalid subject")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserClaims, claims)
		c.Set(ContextKeyOperatorID, operatorID)
		c.Next()
	}
}
