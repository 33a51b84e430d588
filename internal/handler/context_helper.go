package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voluntix/roster-api/internal/middleware"
	"github.com/voluntix/roster-api/internal/models"
)

// currentClaims extracts the authenticated JWT claims placed by the JWT
// middleware. Every roster operation is scoped by the tenant and actor they
// carry.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
