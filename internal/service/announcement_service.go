package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type announcementRepository interface {
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	ListForRole(ctx context.Context, role models.UserRole, limit int) ([]models.Announcement, error)
	ListAll(ctx context.Context, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService publishes and targets announcements by role audience.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService instance.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger}
}

// Create publishes an announcement authored by the given user.
func (s *AnnouncementService) Create(ctx context.Context, author *models.User, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	a := &models.Announcement{
		Title:      req.Title,
		Content:    req.Content,
		Audience:   req.Audience,
		AuthorID:   author.ID,
		AuthorName: author.Name,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	s.logger.Info("announcement published",
		zap.String("author", author.ID), zap.Strings("audience", req.Audience))
	return a, nil
}

// ListFor returns announcements visible to the role. Admins and above see
// everything.
func (s *AnnouncementService) ListFor(ctx context.Context, role models.UserRole, limit int) ([]models.Announcement, error) {
	var (
		announcements []models.Announcement
		err           error
	)
	if role.AtLeast(models.RoleAdmin) {
		announcements, err = s.repo.ListAll(ctx, limit)
	} else {
		announcements, err = s.repo.ListForRole(ctx, role, limit)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Update applies partial changes. Only the author or an admin may edit.
func (s *AnnouncementService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields provided for update")
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}

	if a.AuthorID != actor.UserID && !actor.Role.AtLeast(models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can edit an announcement")
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if len(req.Audience) > 0 {
		a.Audience = req.Audience
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return a, nil
}

// Delete removes an announcement. Only the author or an admin may delete.
func (s *AnnouncementService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}

	if a.AuthorID != actor.UserID && !actor.Role.AtLeast(models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete an announcement")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}
