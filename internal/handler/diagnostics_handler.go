package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/service"
	"github.com/edusync/edusync-api/pkg/response"
)

// DiagnosticsHandler serves the creator-only health probe sequence.
type DiagnosticsHandler struct {
	service *service.DiagnosticsService
}

// NewDiagnosticsHandler constructs handler.
func NewDiagnosticsHandler(svc *service.DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{service: svc}
}

// Run godoc
// @Summary Run every health probe
// @Tags Diagnostics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /diagnostics [get]
func (h *DiagnosticsHandler) Run(c *gin.Context) {
	checks := h.service.Run(c.Request.Context())
	response.JSON(c, http.StatusOK, checks, nil)
}
