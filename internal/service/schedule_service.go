package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, id string, update models.ScheduleUpdate) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ReplaceForDayLevel(ctx context.Context, day, level string, schedules []models.Schedule) error
	Stats(ctx context.Context, day string) (*models.ScheduleStats, error)
}

type scheduleAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ScheduleService provides weekly schedule use cases.
type ScheduleService struct {
	repo      scheduleRepository
	auditor   scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(repo scheduleRepository, auditor scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, auditor: auditor, validator: validate, logger: logger}
}

// Get returns a schedule slot by ID.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// List returns schedule slots matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 200
	}

	return schedules, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create adds a new weekly slot.
func (s *ScheduleService) Create(ctx context.Context, req models.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if !timePattern.MatchString(req.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must be in HH:MM format")
	}

	schedule := &models.Schedule{
		Day:       req.Day,
		Time:      req.Time,
		Level:     req.Level,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update applies partial changes to a slot.
func (s *ScheduleService) Update(ctx context.Context, id string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Time != nil && !timePattern.MatchString(*req.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must be in HH:MM format")
	}

	update := models.ScheduleUpdate{
		Day:       req.Day,
		Time:      req.Time,
		Level:     req.Level,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
	}
	if update.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields provided for update")
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	return s.Get(ctx, id)
}

// Delete removes a slot.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// SaveDay replaces every slot of one day and class level in a single
// transaction. Empty slot lists clear the column.
func (s *ScheduleService) SaveDay(ctx context.Context, req models.SaveDayRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule day payload")
	}

	schedules := make([]models.Schedule, 0, len(req.Slots))
	for _, slot := range req.Slots {
		if !timePattern.MatchString(slot.Time) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time %q must be in HH:MM format", slot.Time))
		}
		schedules = append(schedules, models.Schedule{
			Day:       req.Day,
			Time:      slot.Time,
			Level:     req.Level,
			Subject:   slot.Subject,
			TeacherID: slot.TeacherID,
		})
	}

	if err := s.repo.ReplaceForDayLevel(ctx, req.Day, req.Level, schedules); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule day")
	}
	return nil
}

// WeeklyReset wipes the entire schedule table. Reserved for the creator role
// at the start of a new planning week.
func (s *ScheduleService) WeeklyReset(ctx context.Context, actorID string) (int64, error) {
	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset schedules")
	}

	s.logger.Info("weekly schedule reset", zap.String("actor", actorID), zap.Int64("removed", removed))

	if s.auditor != nil {
		if err := s.auditor.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    &actorID,
			Action:    models.AuditActionWeeklyReset,
			Resource:  "schedules",
			NewValues: []byte(fmt.Sprintf(`{"removed":%d}`, removed)),
		}); err != nil {
			s.logger.Warn("failed to record weekly reset audit log", zap.Error(err))
		}
	}

	return removed, nil
}

// Stats returns total and today slot counts for assistant tools and
// dashboards.
func (s *ScheduleService) Stats(ctx context.Context, now time.Time) (*models.ScheduleStats, error) {
	stats, err := s.repo.Stats(ctx, now.Weekday().String())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule stats")
	}
	return stats, nil
}
