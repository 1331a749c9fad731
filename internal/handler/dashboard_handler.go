package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/service"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/response"
)

// DashboardHandler serves the per-role summary endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Role-scoped dashboard payload
// @Description Admins and the creator get the school overview, the head gets
// @Description the teacher board, teachers get their personal summary.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var (
		payload interface{}
		err     error
	)
	switch claims.Role {
	case models.RoleCreator, models.RoleAdmin:
		payload, err = h.service.Admin(c.Request.Context())
	case models.RoleHead:
		payload, err = h.service.Head(c.Request.Context())
	default:
		payload, err = h.service.Teacher(c.Request.Context(), claims.UserID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
