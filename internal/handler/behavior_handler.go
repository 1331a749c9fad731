package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/service"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/response"
)

// BehaviorHandler manages student behavior report endpoints.
type BehaviorHandler struct {
	service *service.BehaviorService
	users   *service.UserService
}

// NewBehaviorHandler constructs handler.
func NewBehaviorHandler(svc *service.BehaviorService, users *service.UserService) *BehaviorHandler {
	return &BehaviorHandler{service: svc, users: users}
}

// Create godoc
// @Summary File a behavior report
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body models.CreateBehaviorReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /behavior-reports [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateBehaviorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	teacher, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.Create(c.Request.Context(), teacher, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List behavior reports
// @Tags Behavior
// @Produce json
// @Param teacher_id query string false "Filter by teacher"
// @Param class_level query string false "Filter by class level"
// @Param student_name query string false "Filter by student name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behavior-reports [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.BehaviorReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter"))
		return
	}

	reports, pagination, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}
