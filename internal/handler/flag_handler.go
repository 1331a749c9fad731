package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/service"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/response"
)

// FlagHandler manages system flag endpoints.
type FlagHandler struct {
	service *service.FlagService
}

// NewFlagHandler constructs handler.
func NewFlagHandler(svc *service.FlagService) *FlagHandler {
	return &FlagHandler{service: svc}
}

// List godoc
// @Summary List system flags
// @Tags Flags
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /flags [get]
func (h *FlagHandler) List(c *gin.Context) {
	flags, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flags, nil)
}

// Get godoc
// @Summary Get one system flag
// @Tags Flags
// @Produce json
// @Param name path string true "Flag name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /flags/{name} [get]
func (h *FlagHandler) Get(c *gin.Context) {
	flag, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, flag, nil)
}

// Set godoc
// @Summary Set a system flag
// @Tags Flags
// @Accept json
// @Produce json
// @Param name path string true "Flag name"
// @Param payload body map[string]string true "Flag value"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /flags/{name} [put]
func (h *FlagHandler) Set(c *gin.Context) {
	var payload struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "flag value required"))
		return
	}

	if err := h.service.Set(c.Request.Context(), c.Param("name"), payload.Value); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
