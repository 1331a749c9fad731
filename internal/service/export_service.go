package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/export"
)

// ExportFormat selects the output encoding of a report.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ExportService renders the weekly schedule grid and the attendance summary
// as downloadable reports.
type ExportService struct {
	schedules  *ScheduleService
	attendance *AttendanceService
	logger     *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(schedules *ScheduleService, attendance *AttendanceService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{schedules: schedules, attendance: attendance, logger: logger}
}

// WeeklySchedule renders every schedule slot ordered by day and time.
func (s *ExportService) WeeklySchedule(ctx context.Context, format ExportFormat) ([]byte, string, error) {
	rows := make([][]string, 0)
	for _, day := range weekdayOrder {
		schedules, _, err := s.schedules.List(ctx, models.ScheduleFilter{Day: day, PageSize: 500, SortBy: "time", SortOrder: "asc"})
		if err != nil {
			return nil, "", err
		}
		for _, slot := range schedules {
			rows = append(rows, []string{slot.Day, slot.Time, slot.Level, slot.Subject, slot.TeacherID})
		}
	}

	report := export.Report{
		Title:   "Weekly Schedule",
		Columns: []string{"Day", "Time", "Level", "Subject", "Teacher"},
		Rows:    rows,
	}
	return s.render(report, format, "weekly-schedule")
}

// AttendanceSummary renders today's board plus the aggregate counts.
func (s *ExportService) AttendanceSummary(ctx context.Context, format ExportFormat) ([]byte, string, error) {
	board, err := s.attendance.Board(ctx)
	if err != nil {
		return nil, "", err
	}
	stats, err := s.attendance.Stats(ctx, time.Now())
	if err != nil {
		return nil, "", err
	}

	rows := make([][]string, 0, len(board)+1)
	for _, entry := range board {
		remarks := ""
		if entry.Remarks != nil {
			remarks = *entry.Remarks
		}
		rows = append(rows, []string{entry.Name, entry.CurrentStatus, remarks})
	}
	rows = append(rows, []string{
		"TOTAL",
		fmt.Sprintf("present=%d break=%d absent=%d", stats.Present, stats.Break, stats.Absent),
		"no_checkin=" + strconv.Itoa(stats.NoCheckin),
	})

	report := export.Report{
		Title:   "Attendance Summary " + time.Now().Format("2006-01-02"),
		Columns: []string{"Teacher", "Status", "Remarks"},
		Rows:    rows,
	}
	return s.render(report, format, "attendance-summary")
}

// render encodes the report and returns content plus a download filename.
func (s *ExportService) render(report export.Report, format ExportFormat, baseName string) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		data, err := export.CSV(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return data, baseName + ".csv", nil
	case FormatPDF:
		data, err := export.PDF(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return data, baseName + ".pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", format))
	}
}
