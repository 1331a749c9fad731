package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type leaveRepository interface {
	FindByID(ctx context.Context, id string) (*models.LeaveApplication, error)
	Create(ctx context.Context, leave *models.LeaveApplication) error
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error)
	HasOpenForDate(ctx context.Context, teacherID string, date time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy *string, reviewedAt *time.Time) error
	Approve(ctx context.Context, id, teacherID string, year int, reviewedBy string, reviewedAt time.Time) error
	CancelApproved(ctx context.Context, id, teacherID string, year int) error
	FindBalance(ctx context.Context, teacherID string, year int) (*models.LeaveBalance, error)
	CreateBalance(ctx context.Context, balance *models.LeaveBalance) error
	ListBalances(ctx context.Context, year int) ([]models.LeaveBalance, error)
}

type leaveFlagReader interface {
	Get(ctx context.Context, name string) (*models.SystemFlag, error)
}

type leaveAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// LeaveService manages leave applications and annual balances.
type LeaveService struct {
	repo        leaveRepository
	flags       leaveFlagReader
	auditor     leaveAuditor
	validator   *validator.Validate
	logger      *zap.Logger
	defaultDays int
}

// NewLeaveService constructs a LeaveService instance.
func NewLeaveService(repo leaveRepository, flags leaveFlagReader, auditor leaveAuditor, validate *validator.Validate, logger *zap.Logger, defaultDays int) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if defaultDays <= 0 {
		defaultDays = 14
	}
	return &LeaveService{repo: repo, flags: flags, auditor: auditor, validator: validate, logger: logger, defaultDays: defaultDays}
}

// defaultAnnualDays resolves the allowance for new balance rows. The system
// flag wins over the configured default so operators can tune it at runtime.
func (s *LeaveService) defaultAnnualDays(ctx context.Context) int {
	if s.flags == nil {
		return s.defaultDays
	}
	flag, err := s.flags.Get(ctx, models.FlagDefaultAnnualLeaves)
	if err != nil {
		return s.defaultDays
	}
	if days, err := strconv.Atoi(flag.Value); err == nil && days > 0 {
		return days
	}
	return s.defaultDays
}

// Balance returns the teacher's balance for a year, creating the row with
// the default allowance on first use.
func (s *LeaveService) Balance(ctx context.Context, teacherID string, year int) (*models.LeaveBalance, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}

	balance, err := s.repo.FindBalance(ctx, teacherID, year)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
	}

	fresh := &models.LeaveBalance{
		TeacherID:   teacherID,
		Year:        year,
		TotalLeaves: s.defaultAnnualDays(ctx),
		UsedLeaves:  0,
	}
	if err := s.repo.CreateBalance(ctx, fresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave balance")
	}

	// Re-read in case a concurrent request created the row first.
	balance, err = s.repo.FindBalance(ctx, teacherID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
	}
	return balance, nil
}

// Submit files a new application after three pre-checks: the date lies in
// the future, the teacher has days remaining, and no open application exists
// for the same date.
func (s *LeaveService) Submit(ctx context.Context, teacher *models.User, req models.SubmitLeaveRequest) (*models.LeaveApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if !req.LeaveType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown leave type")
	}

	leaveDate, err := time.ParseInLocation("2006-01-02", req.LeaveDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "leave_date must be YYYY-MM-DD")
	}

	tomorrow := dateOnly(time.Now()).AddDate(0, 0, 1)
	if leaveDate.Before(tomorrow) {
		return nil, appErrors.Clone(appErrors.ErrLeaveDateInPast, "leave date must be tomorrow or later")
	}

	balance, err := s.Balance(ctx, teacher.ID, leaveDate.Year())
	if err != nil {
		return nil, err
	}
	if balance.Remaining() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrNoLeaveRemaining, "")
	}

	open, err := s.repo.HasOpenForDate(ctx, teacher.ID, leaveDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing leaves")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrDuplicateLeave, "")
	}

	leave := &models.LeaveApplication{
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		LeaveDate:   leaveDate,
		LeaveType:   req.LeaveType,
		Reason:      req.Reason,
		Status:      models.LeavePending,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit leave")
	}

	s.logger.Info("leave application submitted",
		zap.String("teacher", teacher.ID), zap.String("date", req.LeaveDate))
	return leave, nil
}

// List returns applications matching the filter. Teachers only see their
// own.
func (s *LeaveService) List(ctx context.Context, actor *models.JWTClaims, filter models.LeaveFilter) ([]models.LeaveApplication, *models.Pagination, error) {
	if actor.Role == models.RoleTeacher {
		filter.TeacherID = actor.UserID
	}

	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return leaves, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}

// Review approves or rejects a pending application. Approval charges one day
// against the teacher's balance in the same transaction.
func (s *LeaveService) Review(ctx context.Context, reviewerID, leaveID string, approve bool) (*models.LeaveApplication, error) {
	leave, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave")
	}
	if leave.Status != models.LeavePending {
		return nil, appErrors.Clone(appErrors.ErrLeaveNotPending, "")
	}

	now := time.Now().UTC()
	if approve {
		// Make sure the balance row exists before charging it.
		if _, err := s.Balance(ctx, leave.TeacherID, leave.LeaveDate.Year()); err != nil {
			return nil, err
		}
		if err := s.repo.Approve(ctx, leaveID, leave.TeacherID, leave.LeaveDate.Year(), reviewerID, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrLeaveNotPending, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave")
		}
	} else {
		if err := s.repo.UpdateStatus(ctx, leaveID, models.LeaveRejected, &reviewerID, &now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave")
		}
	}

	if s.auditor != nil {
		payload, _ := json.Marshal(map[string]interface{}{"approved": approve})
		if err := s.auditor.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &reviewerID,
			Action:     models.AuditActionLeaveReview,
			Resource:   "annual_leaves",
			ResourceID: &leaveID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record leave review audit log", zap.Error(err))
		}
	}

	return s.repo.FindByID(ctx, leaveID)
}

// Cancel withdraws an application. Teachers may cancel their own pending
// applications; approved ones are reverted with a balance refund and are
// reserved for admins.
func (s *LeaveService) Cancel(ctx context.Context, actor *models.JWTClaims, leaveID string) (*models.LeaveApplication, error) {
	leave, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave")
	}

	switch leave.Status {
	case models.LeavePending:
		if actor.Role == models.RoleTeacher && leave.TeacherID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot cancel another teacher's application")
		}
		if err := s.repo.UpdateStatus(ctx, leaveID, models.LeaveCancelled, nil, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel leave")
		}

	case models.LeaveApproved:
		if !actor.Role.AtLeast(models.RoleAdmin) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can cancel an approved leave")
		}
		if err := s.repo.CancelApproved(ctx, leaveID, leave.TeacherID, leave.LeaveDate.Year()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "leave is no longer approved")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel approved leave")
		}

	default:
		return nil, appErrors.Clone(appErrors.ErrConflict, "leave application cannot be cancelled in its current state")
	}

	return s.repo.FindByID(ctx, leaveID)
}

// Balances returns every teacher's balance for a year.
func (s *LeaveService) Balances(ctx context.Context, year int) ([]models.LeaveBalance, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}
	balances, err := s.repo.ListBalances(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave balances")
	}
	return balances, nil
}
