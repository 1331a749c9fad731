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

// ScheduleRepository provides database access for weekly class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID returns a schedule slot by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, day, time, level, subject, teacher_id, created_at, updated_at FROM schedules WHERE id = $1 LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule by id: %w", err)
	}
	return &schedule, nil
}

// List returns schedule slots matching the filter with total count.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	baseQuery := `FROM schedules WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day":        true,
		"time":       true,
		"level":      true,
		"subject":    true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "time"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 200
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, day, time, level, subject, teacher_id, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// Create inserts a new schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, day, time, level, subject, teacher_id, created_at, updated_at) VALUES (:id, :day, :time, :level, :subject, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of the update to an existing slot. It
// reports sql.ErrNoRows when the slot does not exist.
func (r *ScheduleRepository) Update(ctx context.Context, id string, update models.ScheduleUpdate) error {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Day != nil {
		add("day", *update.Day)
	}
	if update.Time != nil {
		add("time", *update.Time)
	}
	if update.Level != nil {
		add("level", *update.Level)
	}
	if update.Subject != nil {
		add("subject", *update.Subject)
	}
	if update.TeacherID != nil {
		add("teacher_id", *update.TeacherID)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE schedules SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a schedule slot. It reports sql.ErrNoRows when nothing was
// deleted.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll wipes the whole schedule table and returns the number of removed
// slots. Used by the weekly reset.
func (r *ScheduleRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules`)
	if err != nil {
		return 0, fmt.Errorf("delete all schedules: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all schedules rows affected: %w", err)
	}
	return affected, nil
}

// ReplaceForDayLevel swaps out every slot of one day and class level for the
// provided set inside a single transaction.
func (r *ScheduleRepository) ReplaceForDayLevel(ctx context.Context, day, level string, schedules []models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedules: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE day = $1 AND level = $2`, day, level); err != nil {
		return fmt.Errorf("clear schedules for %s/%s: %w", day, level, err)
	}

	const insert = `INSERT INTO schedules (id, day, time, level, subject, teacher_id, created_at, updated_at) VALUES (:id, :day, :time, :level, :subject, :teacher_id, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range schedules {
		if schedules[i].ID == "" {
			schedules[i].ID = uuid.NewString()
		}
		schedules[i].CreatedAt = now
		schedules[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, schedules[i]); err != nil {
			return fmt.Errorf("insert schedule for %s/%s: %w", day, level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedules: %w", err)
	}
	return nil
}

// Stats returns the total slot count and the count for the given weekday.
func (r *ScheduleRepository) Stats(ctx context.Context, day string) (*models.ScheduleStats, error) {
	var stats models.ScheduleStats
	if err := r.db.GetContext(ctx, &stats.TotalSchedules, `SELECT COUNT(*) FROM schedules`); err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.TodaySchedules, `SELECT COUNT(*) FROM schedules WHERE day = $1`, day); err != nil {
		return nil, fmt.Errorf("count schedules for day: %w", err)
	}
	return &stats, nil
}
