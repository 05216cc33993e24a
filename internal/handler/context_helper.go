package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nss-vignan/nss-portal-api/internal/middleware"
	"github.com/nss-vignan/nss-portal-api/internal/models"
)

// claimsFromContext pulls the authenticated user set by the JWT middleware.
// Returns nil on unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.JWTClaims)
	return claims
}
