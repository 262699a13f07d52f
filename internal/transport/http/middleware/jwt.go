package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/app"
	"authgate/internal/model"
	"authgate/internal/pkg/jwtutil"
	"authgate/internal/transport/http/response"
)

const ContextClaimsKey = "auth_claims"

type TokenVerifier interface {
	Verify(token string) (*jwtutil.Claims, error)
}

// Authenticate requires "Authorization: Bearer <token>" and stores the verified claims
// under ContextClaimsKey.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Fail(c, app.ErrNoToken)
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Fail(c, app.ErrInvalidToken)
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := verifier.Verify(token)
		if err != nil {
			response.Fail(c, app.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate. It only reads the stored claims.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok || claims.Role != model.RoleAdmin {
			response.Fail(c, app.ErrAdminRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

func ClaimsFromContext(c *gin.Context) (*jwtutil.Claims, bool) {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*jwtutil.Claims)
	return claims, ok && claims != nil
}
