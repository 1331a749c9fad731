package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusync/edusync-api/internal/models"
)

// BehaviorRepository provides database access for student behavior reports.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository creates a new instance of BehaviorRepository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// Create inserts a new report. Reports are append-only.
func (r *BehaviorRepository) Create(ctx context.Context, report *models.BehaviorReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO behavior_reports (id, teacher_id, teacher_name, student_name, class_level, report, created_at) VALUES (:id, :teacher_id, :teacher_name, :student_name, :class_level, :report, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create behavior report: %w", err)
	}
	return nil
}

// List returns reports matching the filter with total count, newest first.
func (r *BehaviorRepository) List(ctx context.Context, filter models.BehaviorReportFilter) ([]models.BehaviorReport, int, error) {
	baseQuery := `FROM behavior_reports WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassLevel != "" {
		conditions = append(conditions, fmt.Sprintf("class_level = $%d", len(args)+1))
		args = append(args, filter.ClassLevel)
	}
	if filter.StudentName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(student_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.StudentName)+"%")
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

	listQuery := fmt.Sprintf("SELECT id, teacher_id, teacher_name, student_name, class_level, report, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, limit, offset)

	var reports []models.BehaviorReport
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list behavior reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count behavior reports: %w", err)
	}

	return reports, total, nil
}
