package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Command types the assistant may emit.
const (
	CommandAddSchedule    = "AddSchedule"
	CommandUpdateSchedule = "UpdateSchedule"
	CommandDeleteSchedule = "DeleteSchedule"
)

// RawCommand is one operation exactly as parsed from an assistant response.
// Commands stay as loose maps until execution so validation can report the
// original field values and reviewers can edit arbitrary keys.
type RawCommand map[string]interface{}

// Type returns the trimmed command discriminator, or the empty string.
func (c RawCommand) Type() string {
	raw, ok := c["command"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

// CommandValidation is the outcome of checking a single command before it is
// shown for review or executed.
type CommandValidation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// PlannedCommand pairs a raw command with its validation result inside a
// stored plan.
type PlannedCommand struct {
	Raw        RawCommand        `json:"raw"`
	Validation CommandValidation `json:"validation"`
}

// CommandPlan is a reviewed-before-apply batch of commands held in cache
// until the requesting user confirms, edits, or abandons it.
type CommandPlan struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	UserRole  UserRole         `json:"user_role"`
	Commands  []PlannedCommand `json:"commands"`
	CreatedAt time.Time        `json:"created_at"`
}

// ValidCount returns how many commands in the plan passed validation.
func (p CommandPlan) ValidCount() int {
	n := 0
	for _, c := range p.Commands {
		if c.Validation.Valid {
			n++
		}
	}
	return n
}

// EditPlanRequest replaces the raw command list of a stored plan with the
// reviewer's edited JSON.
type EditPlanRequest struct {
	Commands json.RawMessage `json:"commands" validate:"required"`
}

// ApplySummary reports the outcome of executing a plan.
type ApplySummary struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
