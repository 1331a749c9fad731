package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusync/edusync-api/internal/models"
)

// AttendanceRepository provides database access for daily teacher attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByTeacherAndDate returns a teacher's attendance row for one day.
func (r *AttendanceRepository) FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.AttendanceLog, error) {
	const query = `SELECT id, teacher_id, date, status, remarks, created_at, updated_at FROM attendance_logs WHERE teacher_id = $1 AND date = $2 LIMIT 1`
	var log models.AttendanceLog
	if err := r.db.GetContext(ctx, &log, query, teacherID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance log: %w", err)
	}
	return &log, nil
}

// Upsert writes a teacher's status for the day, overwriting any earlier
// check-in for the same date.
func (r *AttendanceRepository) Upsert(ctx context.Context, log *models.AttendanceLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	const query = `INSERT INTO attendance_logs (id, teacher_id, date, status, remarks, created_at, updated_at)
		VALUES (:id, :teacher_id, :date, :status, :remarks, :created_at, :updated_at)
		ON CONFLICT (teacher_id, date) DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("upsert attendance log: %w", err)
	}
	return nil
}

// ListByDate returns all attendance rows for the given day.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceLog, error) {
	const query = `SELECT id, teacher_id, date, status, remarks, created_at, updated_at FROM attendance_logs WHERE date = $1 ORDER BY updated_at DESC`
	var logs []models.AttendanceLog
	if err := r.db.SelectContext(ctx, &logs, query, date); err != nil {
		return nil, fmt.Errorf("list attendance logs: %w", err)
	}
	return logs, nil
}

// ListByTeacher returns a teacher's attendance history between two dates.
func (r *AttendanceRepository) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.AttendanceLog, error) {
	const query = `SELECT id, teacher_id, date, status, remarks, created_at, updated_at FROM attendance_logs WHERE teacher_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date DESC`
	var logs []models.AttendanceLog
	if err := r.db.SelectContext(ctx, &logs, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return logs, nil
}

// Board joins every teacher with their status for the day. Teachers without a
// row surface with the no_checkin status.
func (r *AttendanceRepository) Board(ctx context.Context, date time.Time) ([]models.TeacherAttendanceRow, error) {
	const query = `SELECT u.id, u.name, u.email,
			COALESCE(a.status, 'no_checkin') AS current_status,
			a.remarks,
			a.updated_at AS last_update
		FROM users u
		LEFT JOIN attendance_logs a ON a.teacher_id = u.id AND a.date = $1
		WHERE u.role = 'teacher'
		ORDER BY u.name ASC`
	var rows []models.TeacherAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("attendance board: %w", err)
	}
	return rows, nil
}

// Stats counts teacher statuses for the day, including teachers with no row.
func (r *AttendanceRepository) Stats(ctx context.Context, date time.Time) (*models.AttendanceStats, error) {
	const query = `SELECT
			COUNT(*) FILTER (WHERE a.status = 'present') AS present,
			COUNT(*) FILTER (WHERE a.status = 'break') AS break,
			COUNT(*) FILTER (WHERE a.status = 'absent') AS absent,
			COUNT(*) FILTER (WHERE a.status IS NULL) AS no_checkin
		FROM users u
		LEFT JOIN attendance_logs a ON a.teacher_id = u.id AND a.date = $1
		WHERE u.role = 'teacher'`
	var stats struct {
		Present   int `db:"present"`
		Break     int `db:"break"`
		Absent    int `db:"absent"`
		NoCheckin int `db:"no_checkin"`
	}
	if err := r.db.GetContext(ctx, &stats, query, date); err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	return &models.AttendanceStats{
		Present:   stats.Present,
		Break:     stats.Break,
		Absent:    stats.Absent,
		NoCheckin: stats.NoCheckin,
	}, nil
}
