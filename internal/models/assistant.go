package models

import (
	"time"

	"github.com/lib/pq"
)

// AISettings is the singleton row controlling the assistant: the key pool,
// the model name, and which roles may use chat and commands.
type AISettings struct {
	ID           string         `db:"id" json:"id"`
	APIKeys      pq.StringArray `db:"api_keys" json:"api_keys"`
	CurrentIndex int            `db:"current_index" json:"current_index"`
	Model        string         `db:"model" json:"model"`
	AccessLevel  AccessLevel    `db:"access_level" json:"access_level"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AccessLevel maps each role to its assistant capabilities. Stored as jsonb.
type AccessLevel map[string]RoleAccess

// RoleAccess enumerates what a single role may do with the assistant.
type RoleAccess struct {
	Chat     bool `json:"chat"`
	Commands bool `json:"commands"`
}

// CanChat reports whether the role may use the chat assistant.
func (a AccessLevel) CanChat(role UserRole) bool {
	return a[string(role)].Chat
}

// CanCommand reports whether the role may run data-changing commands.
func (a AccessLevel) CanCommand(role UserRole) bool {
	return a[string(role)].Commands
}

// UpdateAISettingsRequest carries partial changes to the assistant settings.
type UpdateAISettingsRequest struct {
	APIKeys     []string    `json:"api_keys,omitempty"`
	Model       *string     `json:"model,omitempty" validate:"omitempty,min=1,max=200"`
	AccessLevel AccessLevel `json:"access_level,omitempty"`
}

// CommandError is a persisted record of a command entry that failed during
// apply, kept for operator diagnosis.
type CommandError struct {
	ID           string    `db:"id" json:"id"`
	CommandJSON  string    `db:"command_json" json:"command_json"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	UserRole     string    `db:"user_role" json:"user_role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SystemFlag is a named runtime toggle such as maintenance mode.
type SystemFlag struct {
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Well-known flag names.
const (
	FlagMaintenanceMode     = "maintenance_mode"
	FlagDefaultAnnualLeaves = "default_annual_leaves"
)
