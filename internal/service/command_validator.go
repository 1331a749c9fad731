package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/edusync/edusync-api/internal/models"
)

// uuidPattern accepts the standard xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx form.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// timePattern is a shape check only. Out-of-range values such as 25:99 are
// accepted here and rejected by the database constraint.
var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// addScheduleRequiredFields are checked in order so error messages are
// deterministic.
var addScheduleRequiredFields = []string{"day", "time", "level", "subject", "teacher_id"}

// ValidateCommand checks a single raw command and reports the first problem
// found. It never mutates the command.
func ValidateCommand(cmd models.RawCommand) models.CommandValidation {
	if cmd == nil {
		return invalid("Invalid command object.")
	}

	commandType := cmd.Type()
	if commandType == "" {
		return invalid("Missing or invalid command type.")
	}

	switch commandType {
	case models.CommandAddSchedule:
		for _, field := range addScheduleRequiredFields {
			if !isNonEmptyString(cmd[field]) {
				return invalid(fmt.Sprintf("AddSchedule failed: Missing or empty '%s'. Field value was: '%v'", field, cmd[field]))
			}
		}
		if timeValue := stringValue(cmd["time"]); !timePattern.MatchString(strings.TrimSpace(timeValue)) {
			return invalid(fmt.Sprintf("AddSchedule failed: Invalid time format for '%v'. Expected HH:MM (24-hour).", cmd["time"]))
		}
		if teacherID := stringValue(cmd["teacher_id"]); !uuidPattern.MatchString(strings.TrimSpace(teacherID)) {
			return invalid(fmt.Sprintf("AddSchedule failed: Invalid teacher_id format for '%v'. Expected UUID.", cmd["teacher_id"]))
		}

	case models.CommandUpdateSchedule:
		if !isNonEmptyString(cmd["id"]) {
			return invalid("UpdateSchedule failed: Missing or empty 'id'.")
		}
		id := strings.TrimSpace(stringValue(cmd["id"]))
		if !uuidPattern.MatchString(id) {
			return invalid(fmt.Sprintf("UpdateSchedule failed: Invalid id format for '%v'. Expected UUID.", cmd["id"]))
		}

		updateFieldCount := 0
		for key := range cmd {
			if key != "command" && key != "id" {
				updateFieldCount++
			}
		}
		if updateFieldCount == 0 {
			return invalid(fmt.Sprintf("UpdateSchedule failed for ID %s: No fields provided for update.", id))
		}

		if value, ok := cmd["time"]; ok && isTruthy(value) {
			timeValue, isString := value.(string)
			if !isString || !timePattern.MatchString(strings.TrimSpace(timeValue)) {
				return invalid(fmt.Sprintf("UpdateSchedule failed for ID %s: Invalid time format for '%v'. Expected HH:MM (24-hour).", id, value))
			}
		}
		if value, ok := cmd["teacher_id"]; ok && isTruthy(value) {
			teacherID, isString := value.(string)
			if !isString || !uuidPattern.MatchString(strings.TrimSpace(teacherID)) {
				return invalid(fmt.Sprintf("UpdateSchedule failed for ID %s: Invalid teacher_id format for '%v'. Expected UUID.", id, value))
			}
		}

	case models.CommandDeleteSchedule:
		if !isNonEmptyString(cmd["id"]) {
			return invalid("DeleteSchedule failed: Missing or empty 'id'.")
		}
		if id := strings.TrimSpace(stringValue(cmd["id"])); !uuidPattern.MatchString(id) {
			return invalid(fmt.Sprintf("DeleteSchedule failed: Invalid id format for '%v'. Expected UUID.", cmd["id"]))
		}

	default:
		return invalid(fmt.Sprintf("Unknown command type: %s", commandType))
	}

	return models.CommandValidation{Valid: true}
}

func invalid(message string) models.CommandValidation {
	return models.CommandValidation{Valid: false, Message: message}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func isNonEmptyString(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// isTruthy mirrors loose truthiness so empty strings and zero values skip the
// optional format checks instead of failing them.
func isTruthy(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	case bool:
		return value
	case float64:
		return value != 0
	default:
		return true
	}
}
