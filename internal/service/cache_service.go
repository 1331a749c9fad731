package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type cacheBackend interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the cache backend with hit/miss accounting. All cache
// access in the service layer goes through here so the hit ratio on the
// metrics endpoint stays honest. A nil backend disables caching entirely.
type CacheService struct {
	backend cacheBackend
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCacheService constructs a CacheService instance. metrics may be nil.
func NewCacheService(backend cacheBackend, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{backend: backend, metrics: metrics, logger: logger}
}

// Enabled reports whether a backend is configured.
func (s *CacheService) Enabled() bool {
	return s.backend != nil
}

// Get loads key into dest. Returns false on a miss or when caching is
// disabled so callers can fall through to the database.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if err := s.backend.Get(ctx, key, dest); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			if s.metrics != nil {
				s.metrics.RecordCacheMiss()
			}
			return false, nil
		}
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
	return true, nil
}

// Set stores value under key for ttl. Failures are logged, not returned, so
// a degraded cache never fails a request.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if err := s.backend.Set(ctx, key, value, ttl); err != nil && !errors.Is(err, appErrors.ErrCacheUnavailable) {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a single key.
func (s *CacheService) Delete(ctx context.Context, key string) {
	if !s.Enabled() {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, appErrors.ErrCacheUnavailable) {
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every key matching pattern. Used after writes that make
// cached dashboard payloads stale.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.backend.DeleteByPattern(ctx, pattern); err != nil && !errors.Is(err, appErrors.ErrCacheUnavailable) {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
