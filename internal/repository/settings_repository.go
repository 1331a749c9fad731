package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edusync/edusync-api/internal/models"
)

// SettingsRepository provides database access for assistant settings and the
// command error log.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// aiSettingsRow is the raw table shape. access_level is jsonb.
type aiSettingsRow struct {
	ID           string         `db:"id"`
	APIKeys      pq.StringArray `db:"api_keys"`
	CurrentIndex int            `db:"current_index"`
	Model        string         `db:"model"`
	AccessLevel  []byte         `db:"access_level"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row aiSettingsRow) toModel() (*models.AISettings, error) {
	settings := &models.AISettings{
		ID:           row.ID,
		APIKeys:      row.APIKeys,
		CurrentIndex: row.CurrentIndex,
		Model:        row.Model,
		AccessLevel:  models.AccessLevel{},
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.AccessLevel) > 0 {
		if err := json.Unmarshal(row.AccessLevel, &settings.AccessLevel); err != nil {
			return nil, fmt.Errorf("decode access level: %w", err)
		}
	}
	return settings, nil
}

// Get returns the singleton assistant settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*models.AISettings, error) {
	const query = `SELECT id, api_keys, current_index, model, access_level, updated_at FROM ai_settings ORDER BY updated_at DESC LIMIT 1`
	var row aiSettingsRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get ai settings: %w", err)
	}
	return row.toModel()
}

// Save upserts the settings row.
func (r *SettingsRepository) Save(ctx context.Context, settings *models.AISettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	settings.UpdatedAt = time.Now().UTC()

	access, err := json.Marshal(settings.AccessLevel)
	if err != nil {
		return fmt.Errorf("encode access level: %w", err)
	}

	const query = `INSERT INTO ai_settings (id, api_keys, current_index, model, access_level, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET api_keys = EXCLUDED.api_keys, current_index = EXCLUDED.current_index, model = EXCLUDED.model, access_level = EXCLUDED.access_level, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, settings.ID, settings.APIKeys, settings.CurrentIndex, settings.Model, access, settings.UpdatedAt); err != nil {
		return fmt.Errorf("save ai settings: %w", err)
	}
	return nil
}

// UpdateCurrentIndex persists the rotation cursor after a key succeeds.
func (r *SettingsRepository) UpdateCurrentIndex(ctx context.Context, id string, index int) error {
	const query = `UPDATE ai_settings SET current_index = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, index, time.Now().UTC()); err != nil {
		return fmt.Errorf("update ai key index: %w", err)
	}
	return nil
}

// LogCommandError records a failed command entry for later diagnosis.
func (r *SettingsRepository) LogCommandError(ctx context.Context, entry *models.CommandError) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO ai_command_errors (id, command_json, error_message, user_role, created_at) VALUES (:id, :command_json, :error_message, :user_role, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("log command error: %w", err)
	}
	return nil
}

// ListCommandErrors returns recent command failures, newest first.
func (r *SettingsRepository) ListCommandErrors(ctx context.Context, limit int) ([]models.CommandError, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, command_json, error_message, user_role, created_at FROM ai_command_errors ORDER BY created_at DESC LIMIT %d`, limit)
	var entries []models.CommandError
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list command errors: %w", err)
	}
	return entries, nil
}
