package dto

import (
	"time"

	"github.com/edusync/edusync-api/internal/models"
)

// AdminDashboard is the summary payload for creator and admin users.
type AdminDashboard struct {
	TotalUsers      int                       `json:"total_users"`
	ScheduleStats   *models.ScheduleStats     `json:"schedule_stats"`
	AttendanceStats *models.AttendanceStats   `json:"attendance_stats"`
	ActiveSessions  int                       `json:"active_sessions"`
	PendingLeaves   []models.LeaveApplication `json:"pending_leaves"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// HeadDashboard shows the head of school today's teacher board.
type HeadDashboard struct {
	Board           []models.TeacherAttendanceRow `json:"board"`
	AttendanceStats *models.AttendanceStats       `json:"attendance_stats"`
	ActiveSessions  []models.ClassSession         `json:"active_sessions"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}

// TeacherDashboard is a teacher's personal summary.
type TeacherDashboard struct {
	TodaySchedules []models.Schedule     `json:"today_schedules"`
	Attendance     *models.AttendanceLog `json:"attendance,omitempty"`
	ActiveSession  *models.ClassSession  `json:"active_session,omitempty"`
	LeaveBalance   *models.LeaveBalance  `json:"leave_balance"`
	GeneratedAt    time.Time             `json:"generated_at"`
}
