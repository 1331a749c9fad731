package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type attendanceRepository interface {
	FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.AttendanceLog, error)
	Upsert(ctx context.Context, log *models.AttendanceLog) error
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceLog, error)
	ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.AttendanceLog, error)
	Board(ctx context.Context, date time.Time) ([]models.TeacherAttendanceRow, error)
	Stats(ctx context.Context, date time.Time) (*models.AttendanceStats, error)
}

// CheckInRequest is the payload for a teacher setting today's status.
type CheckInRequest struct {
	Status  models.AttendanceStatus `json:"status" validate:"required,oneof=present break absent"`
	Remarks *string                 `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// AttendanceService provides daily check-in use cases.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn records or overwrites a teacher's status for today. Repeated
// check-ins on the same day replace the earlier status.
func (s *AttendanceService) CheckIn(ctx context.Context, teacherID string, req CheckInRequest) (*models.AttendanceLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	log := &models.AttendanceLog{
		TeacherID: teacherID,
		Date:      dateOnly(time.Now()),
		Status:    req.Status,
		Remarks:   req.Remarks,
	}
	if err := s.repo.Upsert(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	s.logger.Info("attendance check-in",
		zap.String("teacher", teacherID), zap.String("status", string(req.Status)))
	return log, nil
}

// Today returns a teacher's own status for today, or nil when the teacher
// has not checked in yet.
func (s *AttendanceService) Today(ctx context.Context, teacherID string) (*models.AttendanceLog, error) {
	log, err := s.repo.FindByTeacherAndDate(ctx, teacherID, dateOnly(time.Now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return log, nil
}

// History returns a teacher's attendance rows for the given range. A zero
// range defaults to the last 30 days.
func (s *AttendanceService) History(ctx context.Context, teacherID string, from, to time.Time) ([]models.AttendanceLog, error) {
	if to.IsZero() {
		to = dateOnly(time.Now())
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	logs, err := s.repo.ListByTeacher(ctx, teacherID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return logs, nil
}

// Board returns every teacher with today's status for the live monitoring
// view.
func (s *AttendanceService) Board(ctx context.Context) ([]models.TeacherAttendanceRow, error) {
	rows, err := s.repo.Board(ctx, dateOnly(time.Now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance board")
	}
	return rows, nil
}

// Stats counts today's statuses across all teachers.
func (s *AttendanceService) Stats(ctx context.Context, now time.Time) (*models.AttendanceStats, error) {
	stats, err := s.repo.Stats(ctx, dateOnly(now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance stats")
	}
	return stats, nil
}
