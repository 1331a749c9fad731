package models

import "time"

// BehaviorReport is an append-only note a teacher files about a student.
// Reports are never edited after creation.
type BehaviorReport struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	StudentName string    `db:"student_name" json:"student_name"`
	ClassLevel  string    `db:"class_level" json:"class_level"`
	Report      string    `db:"report" json:"report"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BehaviorReportFilter narrows report listings.
type BehaviorReportFilter struct {
	TeacherID   string `form:"teacher_id"`
	ClassLevel  string `form:"class_level"`
	StudentName string `form:"student_name"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// CreateBehaviorReportRequest is the payload for filing a report.
type CreateBehaviorReportRequest struct {
	StudentName string `json:"student_name" validate:"required,min=2,max=100"`
	ClassLevel  string `json:"class_level" validate:"required,max=50"`
	Report      string `json:"report" validate:"required,min=5,max=2000"`
}
