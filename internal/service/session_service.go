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

type sessionRepository interface {
	Create(ctx context.Context, session *models.ClassSession) error
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	FindActiveByTeacher(ctx context.Context, teacherID string) (*models.ClassSession, error)
	End(ctx context.Context, id string, endTime time.Time) error
	ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.ClassSession, error)
	ListActive(ctx context.Context) ([]models.ClassSession, error)
	CountActive(ctx context.Context) (int, error)
}

type sessionScheduleLookup interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

// StartSessionRequest is the payload for starting a class.
type StartSessionRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid4"`
}

// SessionService tracks teachers' live class sessions.
type SessionService struct {
	repo      sessionRepository
	schedules sessionScheduleLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(repo sessionRepository, schedules sessionScheduleLookup, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{repo: repo, schedules: schedules, validator: validate, logger: logger}
}

// Start opens a session for a scheduled class. A teacher can run only one
// session at a time, and only for their own slots.
func (s *SessionService) Start(ctx context.Context, teacherID string, req StartSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another teacher")
	}

	if _, err := s.repo.FindActiveByTeacher(ctx, teacherID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active session is already running")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active session")
	}

	session := &models.ClassSession{
		TeacherID:  teacherID,
		ScheduleID: schedule.ID,
		ClassLevel: schedule.Level,
		Subject:    schedule.Subject,
		StartTime:  time.Now().UTC(),
		Status:     models.SessionActive,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session")
	}

	s.logger.Info("class session started",
		zap.String("teacher", teacherID), zap.String("schedule", schedule.ID))
	return session, nil
}

// End closes the teacher's session.
func (s *SessionService) End(ctx context.Context, teacherID, sessionID string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another teacher")
	}

	if err := s.repo.End(ctx, sessionID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session is already completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}

	return s.Get(ctx, sessionID)
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Active returns the teacher's running session if any.
func (s *SessionService) Active(ctx context.Context, teacherID string) (*models.ClassSession, error) {
	session, err := s.repo.FindActiveByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active session")
	}
	return session, nil
}

// History returns a teacher's recent sessions.
func (s *SessionService) History(ctx context.Context, teacherID string, limit int) ([]models.ClassSession, error) {
	sessions, err := s.repo.ListByTeacher(ctx, teacherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session history")
	}
	return sessions, nil
}

// ListActive returns all running sessions for monitoring views.
func (s *SessionService) ListActive(ctx context.Context) ([]models.ClassSession, error) {
	sessions, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active sessions")
	}
	return sessions, nil
}

// ActiveCount returns the number of running sessions.
func (s *SessionService) ActiveCount(ctx context.Context) (int, error) {
	count, err := s.repo.CountActive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active sessions")
	}
	return count, nil
}
