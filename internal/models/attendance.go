package models

import "time"

// AttendanceStatus represents a teacher's daily status.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceBreak   AttendanceStatus = "break"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceBreak, AttendanceAbsent:
		return true
	default:
		return false
	}
}

// AttendanceLog is one teacher's check-in row for a single day.
type AttendanceLog struct {
	ID        string           `db:"id" json:"id"`
	TeacherID string           `db:"teacher_id" json:"teacher_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceStats counts today's teacher statuses across the school.
// NoCheckin covers teachers without an attendance row for the day.
type AttendanceStats struct {
	Present   int `json:"present"`
	Break     int `json:"break"`
	Absent    int `json:"absent"`
	NoCheckin int `json:"no_checkin"`
}

// TeacherAttendanceRow merges a teacher with today's attendance status for
// the head-of-school board.
type TeacherAttendanceRow struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	CurrentStatus string     `db:"current_status" json:"current_status"`
	Remarks       *string    `db:"remarks" json:"remarks,omitempty"`
	LastUpdate    *time.Time `db:"last_update" json:"last_update,omitempty"`
}
