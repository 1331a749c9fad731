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

// SessionRepository provides database access for class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new active session.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO class_sessions (id, teacher_id, schedule_id, class_level, subject, start_time, end_time, status, created_at) VALUES (:id, :teacher_id, :schedule_id, :class_level, :subject, :start_time, :end_time, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// FindByID returns a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	const query = `SELECT id, teacher_id, schedule_id, class_level, subject, start_time, end_time, status, created_at FROM class_sessions WHERE id = $1 LIMIT 1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class session: %w", err)
	}
	return &session, nil
}

// FindActiveByTeacher returns the teacher's running session if one exists.
func (r *SessionRepository) FindActiveByTeacher(ctx context.Context, teacherID string) (*models.ClassSession, error) {
	const query = `SELECT id, teacher_id, schedule_id, class_level, subject, start_time, end_time, status, created_at FROM class_sessions WHERE teacher_id = $1 AND status = 'active' ORDER BY start_time DESC LIMIT 1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return &session, nil
}

// End closes a session at the given time.
func (r *SessionRepository) End(ctx context.Context, id string, endTime time.Time) error {
	const query = `UPDATE class_sessions SET end_time = $2, status = 'completed' WHERE id = $1 AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query, id, endTime)
	if err != nil {
		return fmt.Errorf("end class session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end class session rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByTeacher returns a teacher's sessions newest first.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID string, limit int) ([]models.ClassSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT id, teacher_id, schedule_id, class_level, subject, start_time, end_time, status, created_at FROM class_sessions WHERE teacher_id = $1 ORDER BY start_time DESC LIMIT %d", limit)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

// ListActive returns every running session across the school.
func (r *SessionRepository) ListActive(ctx context.Context) ([]models.ClassSession, error) {
	const query = `SELECT id, teacher_id, schedule_id, class_level, subject, start_time, end_time, status, created_at FROM class_sessions WHERE status = 'active' ORDER BY start_time ASC`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

// CountActive returns the number of running sessions.
func (r *SessionRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM class_sessions WHERE status = 'active'`); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return total, nil
}
