package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusync/edusync-api/internal/models"
)

// LeaveRepository provides database access for leave applications and annual
// balances.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new instance of LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// FindByID returns a leave application by identifier.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	const query = `SELECT id, teacher_id, teacher_name, leave_date, leave_type, reason, status, reviewed_by, reviewed_at, created_at, updated_at FROM annual_leaves WHERE id = $1 LIMIT 1`
	var leave models.LeaveApplication
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave by id: %w", err)
	}
	return &leave, nil
}

// Create inserts a new pending application.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveApplication) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now

	const query = `INSERT INTO annual_leaves (id, teacher_id, teacher_name, leave_date, leave_type, reason, status, created_at, updated_at) VALUES (:id, :teacher_id, :teacher_name, :leave_date, :leave_type, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// List returns applications matching the filter with total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error) {
	baseQuery := `FROM annual_leaves WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM leave_date) = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("SELECT id, teacher_id, teacher_name, leave_date, leave_type, reason, status, reviewed_by, reviewed_at, created_at, updated_at %s ORDER BY leave_date DESC LIMIT %d OFFSET %d", baseQuery, limit, offset)

	var leaves []models.LeaveApplication
	if err := r.db.SelectContext(ctx, &leaves, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}

	return leaves, total, nil
}

// HasOpenForDate reports whether the teacher already has a Pending or
// Approved application for the date.
func (r *LeaveRepository) HasOpenForDate(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	const query = `SELECT COUNT(*) FROM annual_leaves WHERE teacher_id = $1 AND leave_date = $2 AND status IN ('Pending', 'Approved')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, date); err != nil {
		return false, fmt.Errorf("check duplicate leave: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus transitions an application into a reviewed or cancelled state.
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy *string, reviewedAt *time.Time) error {
	const query = `UPDATE annual_leaves SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, reviewedBy, reviewedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update leave status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leave status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Approve marks the application approved and charges one day against the
// teacher's balance for the year, atomically.
func (r *LeaveRepository) Approve(ctx context.Context, id, teacherID string, year int, reviewedBy string, reviewedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve leave: %w", err)
	}
	defer tx.Rollback()

	const updateLeave = `UPDATE annual_leaves SET status = 'Approved', reviewed_by = $2, reviewed_at = $3, updated_at = $3 WHERE id = $1 AND status = 'Pending'`
	res, err := tx.ExecContext(ctx, updateLeave, id, reviewedBy, reviewedAt)
	if err != nil {
		return fmt.Errorf("approve leave: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve leave rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const charge = `UPDATE teacher_leave_balances SET used_leaves = used_leaves + 1, updated_at = $3 WHERE teacher_id = $1 AND year = $2`
	if _, err := tx.ExecContext(ctx, charge, teacherID, year, reviewedAt); err != nil {
		return fmt.Errorf("charge leave balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve leave: %w", err)
	}
	return nil
}

// CancelApproved reverts an approved application and refunds the day. Used
// when an admin cancels an already-approved leave.
func (r *LeaveRepository) CancelApproved(ctx context.Context, id, teacherID string, year int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel leave: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	const updateLeave = `UPDATE annual_leaves SET status = 'Cancelled', updated_at = $2 WHERE id = $1 AND status = 'Approved'`
	res, err := tx.ExecContext(ctx, updateLeave, id, now)
	if err != nil {
		return fmt.Errorf("cancel leave: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel leave rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const refund = `UPDATE teacher_leave_balances SET used_leaves = GREATEST(used_leaves - 1, 0), updated_at = $3 WHERE teacher_id = $1 AND year = $2`
	if _, err := tx.ExecContext(ctx, refund, teacherID, year, now); err != nil {
		return fmt.Errorf("refund leave balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel leave: %w", err)
	}
	return nil
}

// FindBalance returns the teacher's balance row for a year.
func (r *LeaveRepository) FindBalance(ctx context.Context, teacherID string, year int) (*models.LeaveBalance, error) {
	const query = `SELECT id, teacher_id, year, total_leaves, used_leaves, created_at, updated_at FROM teacher_leave_balances WHERE teacher_id = $1 AND year = $2 LIMIT 1`
	var balance models.LeaveBalance
	if err := r.db.GetContext(ctx, &balance, query, teacherID, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave balance: %w", err)
	}
	return &balance, nil
}

// CreateBalance inserts a fresh balance row for a teacher and year. A
// conflicting concurrent insert is ignored so the caller can re-read.
func (r *LeaveRepository) CreateBalance(ctx context.Context, balance *models.LeaveBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if balance.CreatedAt.IsZero() {
		balance.CreatedAt = now
	}
	balance.UpdatedAt = now

	const query = `INSERT INTO teacher_leave_balances (id, teacher_id, year, total_leaves, used_leaves, created_at, updated_at) VALUES (:id, :teacher_id, :year, :total_leaves, :used_leaves, :created_at, :updated_at) ON CONFLICT (teacher_id, year) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, balance); err != nil {
		return fmt.Errorf("create leave balance: %w", err)
	}
	return nil
}

// ListBalances returns every teacher's balance for a year.
func (r *LeaveRepository) ListBalances(ctx context.Context, year int) ([]models.LeaveBalance, error) {
	const query = `SELECT id, teacher_id, year, total_leaves, used_leaves, created_at, updated_at FROM teacher_leave_balances WHERE year = $1 ORDER BY teacher_id`
	var balances []models.LeaveBalance
	if err := r.db.SelectContext(ctx, &balances, query, year); err != nil {
		return nil, fmt.Errorf("list leave balances: %w", err)
	}
	return balances, nil
}
