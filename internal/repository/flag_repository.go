package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edusync/edusync-api/internal/models"
)

// FlagRepository provides database access for named system flags.
type FlagRepository struct {
	db *sqlx.DB
}

// NewFlagRepository creates a new instance of FlagRepository.
func NewFlagRepository(db *sqlx.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Get returns a flag by name.
func (r *FlagRepository) Get(ctx context.Context, name string) (*models.SystemFlag, error) {
	const query = `SELECT name, value, updated_at FROM system_flags WHERE name = $1 LIMIT 1`
	var flag models.SystemFlag
	if err := r.db.GetContext(ctx, &flag, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get system flag: %w", err)
	}
	return &flag, nil
}

// Set upserts a flag value.
func (r *FlagRepository) Set(ctx context.Context, name, value string) error {
	const query = `INSERT INTO system_flags (name, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, name, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set system flag: %w", err)
	}
	return nil
}

// List returns all flags.
func (r *FlagRepository) List(ctx context.Context) ([]models.SystemFlag, error) {
	const query = `SELECT name, value, updated_at FROM system_flags ORDER BY name`
	var flags []models.SystemFlag
	if err := r.db.SelectContext(ctx, &flags, query); err != nil {
		return nil, fmt.Errorf("list system flags: %w", err)
	}
	return flags, nil
}
