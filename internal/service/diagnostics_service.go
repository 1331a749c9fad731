package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DiagnosticCheck is one health probe result.
type DiagnosticCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
	Duration string `json:"duration"`
}

type databasePinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

type diagnosticsCounter interface {
	Count(ctx context.Context) (int, error)
}

// DiagnosticsService runs a fixed sequence of read-only probes so an
// operator can tell which dependency is unhealthy without shell access.
type DiagnosticsService struct {
	db       databasePinger
	cache    cachePinger
	users    diagnosticsCounter
	settings settingsRepository
	logger   *zap.Logger
}

// NewDiagnosticsService constructs a DiagnosticsService instance. cache may
// be nil when Redis is not configured.
func NewDiagnosticsService(db databasePinger, cache cachePinger, users diagnosticsCounter, settings settingsRepository, logger *zap.Logger) *DiagnosticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticsService{db: db, cache: cache, users: users, settings: settings, logger: logger}
}

// Run executes every probe and returns the results in order. Probes never
// abort the sequence; a failed dependency is a result, not an error.
func (s *DiagnosticsService) Run(ctx context.Context) []DiagnosticCheck {
	checks := []DiagnosticCheck{
		s.probe(ctx, "database", s.checkDatabase),
		s.probe(ctx, "cache", s.checkCache),
		s.probe(ctx, "users_table", s.checkUsers),
		s.probe(ctx, "ai_settings", s.checkAISettings),
	}

	for _, check := range checks {
		if !check.Passed {
			s.logger.Warn("diagnostic check failed",
				zap.String("check", check.Name),
				zap.String("detail", check.Detail))
		}
	}
	return checks
}

func (s *DiagnosticsService) probe(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) DiagnosticCheck {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	detail, err := fn(ctx)
	check := DiagnosticCheck{
		Name:     name,
		Passed:   err == nil,
		Detail:   detail,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		check.Detail = err.Error()
	}
	return check
}

func (s *DiagnosticsService) checkDatabase(ctx context.Context) (string, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("ping failed: %w", err)
	}
	return "reachable", nil
}

func (s *DiagnosticsService) checkCache(ctx context.Context) (string, error) {
	if s.cache == nil {
		return "not configured", nil
	}
	if err := s.cache.Ping(ctx); err != nil {
		return "", fmt.Errorf("ping failed: %w", err)
	}
	return "reachable", nil
}

func (s *DiagnosticsService) checkUsers(ctx context.Context) (string, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count failed: %w", err)
	}
	return fmt.Sprintf("%d users", count), nil
}

func (s *DiagnosticsService) checkAISettings(ctx context.Context) (string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no settings row")
		}
		return "", fmt.Errorf("load failed: %w", err)
	}

	problems := make([]string, 0)
	if len(settings.APIKeys) == 0 {
		problems = append(problems, "no api keys")
	}
	if settings.Model == "" {
		problems = append(problems, "no model")
	}
	if settings.CurrentIndex < 0 || (len(settings.APIKeys) > 0 && settings.CurrentIndex >= len(settings.APIKeys)) {
		problems = append(problems, fmt.Sprintf("current_index %d out of range", settings.CurrentIndex))
	}
	if len(problems) > 0 {
		return "", errors.New(strings.Join(problems, "; "))
	}
	return fmt.Sprintf("%d keys, model %s", len(settings.APIKeys), settings.Model), nil
}
