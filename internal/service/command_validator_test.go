package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusync/edusync-api/internal/models"
)

const validTeacherID = "11111111-2222-3333-4444-555555555555"

func validAddSchedule() models.RawCommand {
	return models.RawCommand{
		"command":    "AddSchedule",
		"day":        "Monday",
		"time":       "08:00",
		"level":      "10A",
		"subject":    "Math",
		"teacher_id": validTeacherID,
	}
}

func TestValidateCommandAddSchedule(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(models.RawCommand)
		valid   bool
		message string
	}{
		{name: "complete command", mutate: func(models.RawCommand) {}, valid: true},
		{
			name:    "missing day",
			mutate:  func(cmd models.RawCommand) { delete(cmd, "day") },
			message: "AddSchedule failed: Missing or empty 'day'. Field value was: '<nil>'",
		},
		{
			name:    "empty subject",
			mutate:  func(cmd models.RawCommand) { cmd["subject"] = "   " },
			message: "AddSchedule failed: Missing or empty 'subject'. Field value was: '   '",
		},
		{
			name:   "out of range time still matches shape",
			mutate: func(cmd models.RawCommand) { cmd["time"] = "25:99" },
			valid:  true,
		},
		{
			name:    "single digit hour",
			mutate:  func(cmd models.RawCommand) { cmd["time"] = "8:00" },
			message: "AddSchedule failed: Invalid time format for '8:00'. Expected HH:MM (24-hour).",
		},
		{
			name:    "malformed teacher id",
			mutate:  func(cmd models.RawCommand) { cmd["teacher_id"] = "not-a-uuid" },
			message: "AddSchedule failed: Invalid teacher_id format for 'not-a-uuid'. Expected UUID.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validAddSchedule()
			tt.mutate(cmd)
			result := ValidateCommand(cmd)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, tt.message, result.Message)
			}
		})
	}
}

func TestValidateCommandUpdateSchedule(t *testing.T) {
	tests := []struct {
		name    string
		cmd     models.RawCommand
		valid   bool
		message string
	}{
		{
			name:  "single field update",
			cmd:   models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "subject": "Physics"},
			valid: true,
		},
		{
			name:    "missing id",
			cmd:     models.RawCommand{"command": "UpdateSchedule", "subject": "Physics"},
			message: "UpdateSchedule failed: Missing or empty 'id'.",
		},
		{
			name:    "no update fields",
			cmd:     models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID},
			message: "UpdateSchedule failed for ID " + validTeacherID + ": No fields provided for update.",
		},
		{
			name:  "unknown key counts as update field",
			cmd:   models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "mystery": "value"},
			valid: true,
		},
		{
			name:    "bad time format",
			cmd:     models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "time": "morning"},
			message: "UpdateSchedule failed for ID " + validTeacherID + ": Invalid time format for 'morning'. Expected HH:MM (24-hour).",
		},
		{
			name:  "empty time skips format check",
			cmd:   models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "time": "", "subject": "Art"},
			valid: true,
		},
		{
			name:    "bad teacher id",
			cmd:     models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "teacher_id": "nope"},
			message: "UpdateSchedule failed for ID " + validTeacherID + ": Invalid teacher_id format for 'nope'. Expected UUID.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateCommand(tt.cmd)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, tt.message, result.Message)
			}
		})
	}
}

func TestValidateCommandDeleteSchedule(t *testing.T) {
	result := ValidateCommand(models.RawCommand{"command": "DeleteSchedule", "id": validTeacherID})
	assert.True(t, result.Valid)

	// Extra keys are ignored for deletes.
	result = ValidateCommand(models.RawCommand{"command": "DeleteSchedule", "id": validTeacherID, "day": "Friday"})
	assert.True(t, result.Valid)

	result = ValidateCommand(models.RawCommand{"command": "DeleteSchedule"})
	assert.Equal(t, "DeleteSchedule failed: Missing or empty 'id'.", result.Message)

	result = ValidateCommand(models.RawCommand{"command": "DeleteSchedule", "id": "123"})
	assert.Equal(t, "DeleteSchedule failed: Invalid id format for '123'. Expected UUID.", result.Message)
}

func TestValidateCommandTotality(t *testing.T) {
	result := ValidateCommand(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid command object.", result.Message)

	result = ValidateCommand(models.RawCommand{})
	assert.Equal(t, "Missing or invalid command type.", result.Message)

	result = ValidateCommand(models.RawCommand{"command": 42})
	assert.Equal(t, "Missing or invalid command type.", result.Message)

	result = ValidateCommand(models.RawCommand{"command": "DropTable"})
	assert.Equal(t, "Unknown command type: DropTable", result.Message)
}
