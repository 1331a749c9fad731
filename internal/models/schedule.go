package models

import "time"

// Schedule represents one weekly recurring class slot.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	Day       string    `db:"day" json:"day"`
	Time      string    `db:"time" json:"time"`
	Level     string    `db:"level" json:"level"`
	Subject   string    `db:"subject" json:"subject"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	Day       string
	Level     string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleUpdate carries the optional fields of a schedule update. Nil means
// the column is left untouched.
type ScheduleUpdate struct {
	Day       *string
	Time      *string
	Level     *string
	Subject   *string
	TeacherID *string
}

// Empty reports whether no field is set.
func (u ScheduleUpdate) Empty() bool {
	return u.Day == nil && u.Time == nil && u.Level == nil && u.Subject == nil && u.TeacherID == nil
}

// CreateScheduleRequest is the payload for adding a weekly slot.
type CreateScheduleRequest struct {
	Day       string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Time      string `json:"time" validate:"required"`
	Level     string `json:"level" validate:"required,max=50"`
	Subject   string `json:"subject" validate:"required,max=100"`
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
}

// UpdateScheduleRequest carries partial changes to a slot.
type UpdateScheduleRequest struct {
	Day       *string `json:"day,omitempty" validate:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Time      *string `json:"time,omitempty"`
	Level     *string `json:"level,omitempty" validate:"omitempty,max=50"`
	Subject   *string `json:"subject,omitempty" validate:"omitempty,max=100"`
	TeacherID *string `json:"teacher_id,omitempty" validate:"omitempty,uuid4"`
}

// SaveDayRequest replaces every slot of one day and class level at once. The
// schedule matrix editor submits whole columns this way.
type SaveDayRequest struct {
	Day   string        `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Level string        `json:"level" validate:"required,max=50"`
	Slots []SaveDaySlot `json:"slots" validate:"dive"`
}

// SaveDaySlot is one cell of a matrix save.
type SaveDaySlot struct {
	Time      string `json:"time" validate:"required"`
	Subject   string `json:"subject" validate:"required,max=100"`
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
}

// ScheduleStats summarises the schedule table for the assistant tools.
type ScheduleStats struct {
	TotalSchedules int `json:"total_schedules"`
	TodaySchedules int `json:"today_schedules"`
}
