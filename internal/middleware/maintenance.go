package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/service"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/response"
)

// Maintenance rejects writes from non-creator users while the maintenance
// flag is on. The creator keeps full access so the flag can be turned back
// off through the API.
func Maintenance(flags *service.FlagService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !flags.MaintenanceEnabled() {
			c.Next()
			return
		}

		if value, exists := c.Get(ContextUserKey); exists {
			if claims, ok := value.(*models.JWTClaims); ok && claims.Role == models.RoleCreator {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrMaintenanceMode)
		c.Abort()
	}
}
