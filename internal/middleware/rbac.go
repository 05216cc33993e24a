package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
	"github.com/nss-vignan/nss-portal-api/pkg/response"
)

// RBAC restricts access to the listed roles. The special role "SELF" allows a
// user to access their own resource when the :id path parameter matches their
// user id.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		for _, role := range allowed {
			if role == "SELF" && c.Param("id") == claims.UserID {
				c.Next()
				return
			}
			if role == string(claims.Role) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions"))
		c.Abort()
	}
}

// RequireRoles adapts typed roles to RBAC.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed = append(allowed, string(role))
	}
	return RBAC(allowed...)
}
