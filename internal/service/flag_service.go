package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/repository"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

// maintenanceChannel carries maintenance flag flips between instances.
const maintenanceChannel = "edusync:flags:maintenance"

type flagRepository interface {
	Get(ctx context.Context, name string) (*models.SystemFlag, error)
	Set(ctx context.Context, name, value string) error
	List(ctx context.Context) ([]models.SystemFlag, error)
}

type flagBroadcaster interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string) (*repository.Subscription, error)
}

// FlagService manages named runtime toggles. The maintenance flag is held in
// memory and refreshed over a broadcast channel so checks stay off the
// database hot path.
type FlagService struct {
	repo        flagRepository
	broadcaster flagBroadcaster
	logger      *zap.Logger

	maintenance atomic.Bool
}

// NewFlagService constructs a FlagService instance.
func NewFlagService(repo flagRepository, broadcaster flagBroadcaster, logger *zap.Logger) *FlagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlagService{repo: repo, broadcaster: broadcaster, logger: logger}
}

// Load primes the in-memory maintenance state from the database. Called once
// at startup.
func (s *FlagService) Load(ctx context.Context) error {
	flag, err := s.repo.Get(ctx, models.FlagMaintenanceMode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.maintenance.Store(false)
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load maintenance flag")
	}
	s.maintenance.Store(parseBool(flag.Value))
	return nil
}

// Watch consumes maintenance broadcasts until the context is cancelled.
// Run it in its own goroutine.
func (s *FlagService) Watch(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	sub, err := s.broadcaster.Subscribe(ctx, maintenanceChannel)
	if err != nil {
		s.logger.Warn("maintenance watch unavailable", zap.Error(err))
		return
	}
	defer sub.Close()

	for {
		message, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("maintenance watch receive failed", zap.Error(err))
			continue
		}
		enabled := parseBool(message)
		s.maintenance.Store(enabled)
		s.logger.Info("maintenance mode updated", zap.Bool("enabled", enabled))
	}
}

// MaintenanceEnabled reports the current in-memory maintenance state.
func (s *FlagService) MaintenanceEnabled() bool {
	return s.maintenance.Load()
}

// SetMaintenance persists the flag and broadcasts the change.
func (s *FlagService) SetMaintenance(ctx context.Context, enabled bool) error {
	value := strconv.FormatBool(enabled)
	if err := s.repo.Set(ctx, models.FlagMaintenanceMode, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set maintenance flag")
	}
	s.maintenance.Store(enabled)

	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, maintenanceChannel, value); err != nil {
			s.logger.Warn("failed to broadcast maintenance change", zap.Error(err))
		}
	}
	return nil
}

// Get returns a single flag.
func (s *FlagService) Get(ctx context.Context, name string) (*models.SystemFlag, error) {
	flag, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "flag not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load flag")
	}
	return flag, nil
}

// Set upserts a flag value. Maintenance changes go through SetMaintenance so
// they also broadcast.
func (s *FlagService) Set(ctx context.Context, name, value string) error {
	if name == models.FlagMaintenanceMode {
		return s.SetMaintenance(ctx, parseBool(value))
	}
	if err := s.repo.Set(ctx, name, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set flag")
	}
	return nil
}

// List returns every flag.
func (s *FlagService) List(ctx context.Context) ([]models.SystemFlag, error) {
	flags, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list flags")
	}
	return flags, nil
}

func parseBool(raw string) bool {
	enabled, err := strconv.ParseBool(raw)
	return err == nil && enabled
}
