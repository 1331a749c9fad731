package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/dto"
	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/service"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/response"
)

// AssistantHandler manages chat and command plan endpoints.
type AssistantHandler struct {
	assistant *service.AssistantService
	commands  *service.CommandService
}

// NewAssistantHandler constructs handler.
func NewAssistantHandler(assistant *service.AssistantService, commands *service.CommandService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, commands: commands}
}

// Chat godoc
// @Summary Send a chat message to the assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Chat payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /assistant/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}

	res, err := h.assistant.Chat(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// PlanCommands godoc
// @Summary Parse an assistant response into a reviewable command plan
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body dto.PlanCommandsRequest true "Raw assistant response"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assistant/plans [post]
func (h *AssistantHandler) PlanCommands(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	allowed, err := h.assistant.CanUseCommands(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !allowed {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "AI commands are not enabled for your role"))
		return
	}

	var req dto.PlanCommandsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}

	commands, err := h.commands.ParseCommands(c.Request.Context(), req.Response, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	plan, err := h.commands.Plan(c.Request.Context(), claims.UserID, claims.Role, commands)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// GetPlan godoc
// @Summary Fetch a pending command plan
// @Tags Assistant
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assistant/plans/{id} [get]
func (h *AssistantHandler) GetPlan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	plan, err := h.commands.GetPlan(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// EditPlan godoc
// @Summary Replace the commands of a pending plan
// @Tags Assistant
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body models.EditPlanRequest true "Edited commands"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assistant/plans/{id} [put]
func (h *AssistantHandler) EditPlan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.EditPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid edit payload"))
		return
	}

	plan, err := h.commands.EditPlan(c.Request.Context(), claims.UserID, c.Param("id"), req.Commands)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// AbandonPlan godoc
// @Summary Discard a pending plan
// @Tags Assistant
// @Produce json
// @Param id path string true "Plan ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assistant/plans/{id} [delete]
func (h *AssistantHandler) AbandonPlan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.commands.AbandonPlan(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ApplyPlan godoc
// @Summary Execute a confirmed plan against the schedule
// @Tags Assistant
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assistant/plans/{id}/apply [post]
func (h *AssistantHandler) ApplyPlan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.commands.Apply(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// GetSettings godoc
// @Summary Assistant configuration
// @Tags Assistant
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assistant/settings [get]
func (h *AssistantHandler) GetSettings(c *gin.Context) {
	settings, err := h.assistant.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Update assistant configuration
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body models.UpdateAISettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assistant/settings [put]
func (h *AssistantHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	settings, err := h.assistant.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// CommandErrors godoc
// @Summary Recent failed command entries
// @Tags Assistant
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /assistant/errors [get]
func (h *AssistantHandler) CommandErrors(c *gin.Context) {
	limit := 50
	if raw, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		limit = raw
	}

	entries, err := h.assistant.CommandErrors(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
