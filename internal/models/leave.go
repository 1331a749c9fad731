package models

import "time"

// LeaveStatus is the lifecycle state of a leave application.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "Pending"
	LeaveApproved  LeaveStatus = "Approved"
	LeaveRejected  LeaveStatus = "Rejected"
	LeaveCancelled LeaveStatus = "Cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected, LeaveCancelled:
		return true
	}
	return false
}

// LeaveType distinguishes annual leave from other absence categories.
type LeaveType string

const (
	LeaveAnnual    LeaveType = "Annual"
	LeaveMedical   LeaveType = "Medical"
	LeaveEmergency LeaveType = "Emergency"
	LeaveSick      LeaveType = "Sick"
	LeaveMaternity LeaveType = "Maternity"
	LeavePaternity LeaveType = "Paternity"
	LeaveUnpaid    LeaveType = "Unpaid"
	LeaveOther     LeaveType = "Other"
)

// Valid reports whether the leave type is recognised.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveMedical, LeaveEmergency, LeaveSick,
		LeaveMaternity, LeavePaternity, LeaveUnpaid, LeaveOther:
		return true
	}
	return false
}

// LeaveApplication is a single-day leave request submitted by a teacher.
type LeaveApplication struct {
	ID          string      `db:"id" json:"id"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	TeacherName string      `db:"teacher_name" json:"teacher_name"`
	LeaveDate   time.Time   `db:"leave_date" json:"leave_date"`
	LeaveType   LeaveType   `db:"leave_type" json:"leave_type"`
	Reason      string      `db:"reason" json:"reason"`
	Status      LeaveStatus `db:"status" json:"status"`
	ReviewedBy  *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// LeaveBalance tracks a teacher's annual allowance for one year. Remaining is
// always computed from the two stored columns.
type LeaveBalance struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Year        int       `db:"year" json:"year"`
	TotalLeaves int       `db:"total_leaves" json:"total_leaves"`
	UsedLeaves  int       `db:"used_leaves" json:"used_leaves"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Remaining returns the number of leave days still available.
func (b LeaveBalance) Remaining() int {
	return b.TotalLeaves - b.UsedLeaves
}

// LeaveFilter narrows leave application listings.
type LeaveFilter struct {
	TeacherID string      `form:"teacher_id"`
	Status    LeaveStatus `form:"status"`
	Year      int         `form:"year"`
	Page      int         `form:"page"`
	Limit     int         `form:"limit"`
}

// SubmitLeaveRequest is the payload for a teacher applying for leave.
type SubmitLeaveRequest struct {
	LeaveDate string    `json:"leave_date" validate:"required,datetime=2006-01-02"`
	LeaveType LeaveType `json:"leave_type" validate:"required"`
	Reason    string    `json:"reason" validate:"required,min=3,max=500"`
}

// ReviewLeaveRequest is the payload for an admin approving or rejecting a
// pending application.
type ReviewLeaveRequest struct {
	Approve bool `json:"approve"`
}
