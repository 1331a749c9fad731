package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edusync/edusync-api/internal/service"
	"github.com/edusync/edusync-api/pkg/response"
)

// ExportHandler serves downloadable schedule and attendance reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// WeeklySchedule godoc
// @Summary Export the weekly schedule grid
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/schedule [get]
func (h *ExportHandler) WeeklySchedule(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	data, filename, err := h.service.WeeklySchedule(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, data, filename)
}

// AttendanceSummary godoc
// @Summary Export today's attendance summary
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/attendance [get]
func (h *ExportHandler) AttendanceSummary(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	data, filename, err := h.service.AttendanceSummary(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, data, filename)
}

func serveDownload(c *gin.Context, data []byte, filename string) {
	contentType := "text/csv"
	if len(filename) > 4 && filename[len(filename)-4:] == ".pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, contentType, data)
}
