package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type behaviorRepository interface {
	Create(ctx context.Context, report *models.BehaviorReport) error
	List(ctx context.Context, filter models.BehaviorReportFilter) ([]models.BehaviorReport, int, error)
}

// BehaviorService files and lists student behavior reports.
type BehaviorService struct {
	repo      behaviorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorService constructs a BehaviorService instance.
func NewBehaviorService(repo behaviorRepository, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BehaviorService{repo: repo, validator: validate, logger: logger}
}

// Create files a report. The teacher's name is denormalised onto the row so
// reports stay readable after staff changes.
func (s *BehaviorService) Create(ctx context.Context, teacher *models.User, req models.CreateBehaviorReportRequest) (*models.BehaviorReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report := &models.BehaviorReport{
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		StudentName: req.StudentName,
		ClassLevel:  req.ClassLevel,
		Report:      req.Report,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file report")
	}

	s.logger.Info("behavior report filed",
		zap.String("teacher", teacher.ID), zap.String("level", req.ClassLevel))
	return report, nil
}

// List returns reports matching the filter. Teachers only see their own.
func (s *BehaviorService) List(ctx context.Context, actor *models.JWTClaims, filter models.BehaviorReportFilter) ([]models.BehaviorReport, *models.Pagination, error) {
	if actor.Role == models.RoleTeacher {
		filter.TeacherID = actor.UserID
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return reports, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}
