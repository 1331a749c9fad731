package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/dto"
	"github.com/edusync/edusync-api/internal/models"
)

// StatsProvider bundles the counters the assistant tools and the admin
// dashboard both read.
type StatsProvider struct {
	sessions   *SessionService
	attendance *AttendanceService
	schedules  *ScheduleService
}

// NewStatsProvider constructs a StatsProvider instance.
func NewStatsProvider(sessions *SessionService, attendance *AttendanceService, schedules *ScheduleService) *StatsProvider {
	return &StatsProvider{sessions: sessions, attendance: attendance, schedules: schedules}
}

// ActiveClassCount returns how many class sessions are running right now.
func (p *StatsProvider) ActiveClassCount(ctx context.Context) (int, error) {
	return p.sessions.ActiveCount(ctx)
}

// AttendanceStats returns attendance counts for the given date.
func (p *StatsProvider) AttendanceStats(ctx context.Context, date time.Time) (*models.AttendanceStats, error) {
	return p.attendance.Stats(ctx, date)
}

// ScheduleStats returns total and today slot counts.
func (p *StatsProvider) ScheduleStats(ctx context.Context, now time.Time) (*models.ScheduleStats, error) {
	return p.schedules.Stats(ctx, now)
}

// DashboardService assembles per-role summary payloads. Payloads are cached
// per role (per user for teachers) and invalidated by TTL only.
type DashboardService struct {
	users      *UserService
	schedules  *ScheduleService
	attendance *AttendanceService
	sessions   *SessionService
	leaves     *LeaveService
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(users *UserService, schedules *ScheduleService, attendance *AttendanceService, sessions *SessionService, leaves *LeaveService, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		users:      users,
		schedules:  schedules,
		attendance: attendance,
		sessions:   sessions,
		leaves:     leaves,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Admin builds the creator/admin overview.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboard, error) {
	const cacheKey = "edusync:dashboard:admin"

	var cached dto.AdminDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	now := s.now()

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	scheduleStats, err := s.schedules.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	attendanceStats, err := s.attendance.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	activeSessions, err := s.sessions.ActiveCount(ctx)
	if err != nil {
		return nil, err
	}
	pending, _, err := s.leaves.List(ctx, &models.JWTClaims{Role: models.RoleAdmin}, models.LeaveFilter{Status: models.LeavePending, Limit: 20})
	if err != nil {
		return nil, err
	}

	payload := &dto.AdminDashboard{
		TotalUsers:      totalUsers,
		ScheduleStats:   scheduleStats,
		AttendanceStats: attendanceStats,
		ActiveSessions:  activeSessions,
		PendingLeaves:   pending,
		GeneratedAt:     now,
	}
	s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
	return payload, nil
}

// Head builds the head-of-school teacher board.
func (s *DashboardService) Head(ctx context.Context) (*dto.HeadDashboard, error) {
	const cacheKey = "edusync:dashboard:head"

	var cached dto.HeadDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	now := s.now()

	board, err := s.attendance.Board(ctx)
	if err != nil {
		return nil, err
	}
	attendanceStats, err := s.attendance.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	payload := &dto.HeadDashboard{
		Board:           board,
		AttendanceStats: attendanceStats,
		ActiveSessions:  active,
		GeneratedAt:     now,
	}
	s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
	return payload, nil
}

// Teacher builds a teacher's personal summary. Cached per teacher because
// every block is scoped to the caller.
func (s *DashboardService) Teacher(ctx context.Context, teacherID string) (*dto.TeacherDashboard, error) {
	cacheKey := fmt.Sprintf("edusync:dashboard:teacher:%s", teacherID)

	var cached dto.TeacherDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	now := s.now()
	day := now.Weekday().String()

	todaySchedules, _, err := s.schedules.List(ctx, models.ScheduleFilter{Day: day, TeacherID: teacherID, PageSize: 100})
	if err != nil {
		return nil, err
	}
	attendance, err := s.attendance.Today(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	activeSession, err := s.sessions.Active(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	balance, err := s.leaves.Balance(ctx, teacherID, now.Year())
	if err != nil {
		return nil, err
	}

	payload := &dto.TeacherDashboard{
		TodaySchedules: todaySchedules,
		Attendance:     attendance,
		ActiveSession:  activeSession,
		LeaveBalance:   balance,
		GeneratedAt:    now,
	}
	s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
	return payload, nil
}
