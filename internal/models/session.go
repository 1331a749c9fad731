package models

import "time"

// SessionStatus tracks whether a class session is running.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ClassSession is created when a teacher starts a scheduled class and closed
// when the class ends. Duration is derived from start/end, never stored.
type ClassSession struct {
	ID         string        `db:"id" json:"id"`
	TeacherID  string        `db:"teacher_id" json:"teacher_id"`
	ScheduleID string        `db:"schedule_id" json:"schedule_id"`
	ClassLevel string        `db:"class_level" json:"class_level"`
	Subject    string        `db:"subject" json:"subject"`
	StartTime  time.Time     `db:"start_time" json:"start_time"`
	EndTime    *time.Time    `db:"end_time" json:"end_time,omitempty"`
	Status     SessionStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// DurationMinutes returns the session length rounded to whole minutes, or 0
// while the session is still active.
func (s ClassSession) DurationMinutes() int {
	if s.EndTime == nil {
		return 0
	}
	return int(s.EndTime.Sub(s.StartTime).Round(time.Minute) / time.Minute)
}
