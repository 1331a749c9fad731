package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

var codeFencePrefix = regexp.MustCompile("^```[a-zA-Z]*\n?")

type planStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type commandErrorLogger interface {
	LogCommandError(ctx context.Context, entry *models.CommandError) error
}

type commandAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CommandService turns assistant responses into reviewed plans and executes
// confirmed plans against the schedule table. Plans live in cache until the
// reviewer applies or abandons them.
type CommandService struct {
	schedules scheduleRepository
	errorLog  commandErrorLogger
	store     planStore
	auditor   commandAuditor
	logger    *zap.Logger
	planTTL   time.Duration
}

// NewCommandService constructs a CommandService instance.
func NewCommandService(schedules scheduleRepository, errorLog commandErrorLogger, store planStore, auditor commandAuditor, logger *zap.Logger, planTTL time.Duration) *CommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if planTTL <= 0 {
		planTTL = 30 * time.Minute
	}
	return &CommandService{schedules: schedules, errorLog: errorLog, store: store, auditor: auditor, logger: logger, planTTL: planTTL}
}

// StripCodeFence removes a leading ```lang marker and trailing ``` from an
// assistant response.
func StripCodeFence(response string) string {
	jsonStr := strings.TrimSpace(response)
	if strings.HasPrefix(jsonStr, "```") {
		jsonStr = codeFencePrefix.ReplaceAllString(jsonStr, "")
		jsonStr = strings.TrimSuffix(jsonStr, "```")
		jsonStr = strings.TrimSpace(jsonStr)
	}
	return jsonStr
}

// ParseCommands decodes an assistant response into raw commands. The payload
// must be a JSON array whose members all carry a string "command" field.
// Malformed payloads are recorded in the command error log.
func (s *CommandService) ParseCommands(ctx context.Context, response string, userRole models.UserRole) ([]models.RawCommand, error) {
	jsonStr := StripCodeFence(response)

	var rawCommands []models.RawCommand
	if err := json.Unmarshal([]byte(jsonStr), &rawCommands); err != nil {
		s.logParseFailure(ctx, jsonStr, err.Error(), userRole)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse AI commands")
	}

	for _, cmd := range rawCommands {
		if cmd == nil {
			s.logParseFailure(ctx, jsonStr, "command entry is not an object", userRole)
			return nil, appErrors.Clone(appErrors.ErrValidation, "AI response did not contain a valid array of commands or commands lacked a .command property.")
		}
		if _, ok := cmd["command"].(string); !ok {
			s.logParseFailure(ctx, jsonStr, "command entry lacks a string command field", userRole)
			return nil, appErrors.Clone(appErrors.ErrValidation, "AI response did not contain a valid array of commands or commands lacked a .command property.")
		}
	}

	return rawCommands, nil
}

// Plan validates each command and stores the batch for review.
func (s *CommandService) Plan(ctx context.Context, userID string, userRole models.UserRole, commands []models.RawCommand) (*models.CommandPlan, error) {
	plan := &models.CommandPlan{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserRole:  userRole,
		Commands:  make([]models.PlannedCommand, 0, len(commands)),
		CreatedAt: time.Now().UTC(),
	}

	for _, cmd := range commands {
		plan.Commands = append(plan.Commands, models.PlannedCommand{
			Raw:        cmd,
			Validation: ValidateCommand(cmd),
		})
	}

	if err := s.store.Set(ctx, planKey(plan.ID), plan, s.planTTL); err != nil {
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return nil, appErrors.Clone(appErrors.ErrCacheUnavailable, "command plans require the cache backend")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store command plan")
	}

	return plan, nil
}

// GetPlan loads a stored plan. Only the user who created a plan may see it.
func (s *CommandService) GetPlan(ctx context.Context, userID, planID string) (*models.CommandPlan, error) {
	var plan models.CommandPlan
	if err := s.store.Get(ctx, planKey(planID), &plan); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "command plan not found or expired")
		}
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return nil, appErrors.Clone(appErrors.ErrCacheUnavailable, "command plans require the cache backend")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load command plan")
	}
	if plan.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "command plan belongs to another user")
	}
	return &plan, nil
}

// EditPlan replaces the command list of a stored plan with the reviewer's
// edited JSON and re-validates every entry.
func (s *CommandService) EditPlan(ctx context.Context, userID, planID string, rawCommands json.RawMessage) (*models.CommandPlan, error) {
	plan, err := s.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	var commands []models.RawCommand
	if err := json.Unmarshal(rawCommands, &commands); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "edited commands are not a valid JSON array")
	}

	plan.Commands = plan.Commands[:0]
	for _, cmd := range commands {
		plan.Commands = append(plan.Commands, models.PlannedCommand{
			Raw:        cmd,
			Validation: ValidateCommand(cmd),
		})
	}

	if err := s.store.Set(ctx, planKey(plan.ID), plan, s.planTTL); err != nil {
		if errors.Is(err, appErrors.ErrCacheUnavailable) {
			return nil, appErrors.Clone(appErrors.ErrCacheUnavailable, "command plans require the cache backend")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store command plan")
	}

	return plan, nil
}

// AbandonPlan discards a stored plan without applying it.
func (s *CommandService) AbandonPlan(ctx context.Context, userID, planID string) error {
	if _, err := s.GetPlan(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, planKey(planID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to discard command plan")
	}
	return nil
}

// Apply executes a reviewed plan. Invalid entries are skipped, each valid
// entry is re-validated and executed in isolation, and failures are recorded
// without stopping the batch. The plan is discarded afterwards regardless of
// outcome.
func (s *CommandService) Apply(ctx context.Context, userID string, userRole models.UserRole, planID string) (*models.ApplySummary, error) {
	plan, err := s.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	summary := &models.ApplySummary{}

	for _, entry := range plan.Commands {
		if !entry.Validation.Valid {
			s.logger.Warn("skipping pre-invalidated command",
				zap.String("command", entry.Raw.Type()),
				zap.String("reason", entry.Validation.Message))
			summary.Skipped++
			continue
		}

		// Commands may have been edited since planning, so check again
		// right before touching the database.
		if final := ValidateCommand(entry.Raw); !final.Valid {
			s.recordFailure(ctx, entry.Raw, "Final DB Check Validation Error: "+final.Message, userRole)
			summary.Failed++
			summary.Errors = append(summary.Errors, final.Message)
			continue
		}

		if err := s.execute(ctx, entry.Raw); err != nil {
			message := fmt.Sprintf("Execution Error: %s (Command: %s)", err.Error(), entry.Raw.Type())
			s.recordFailure(ctx, entry.Raw, message, userRole)
			summary.Failed++
			summary.Errors = append(summary.Errors, message)
			continue
		}

		summary.Applied++
	}

	if err := s.store.Delete(ctx, planKey(planID)); err != nil {
		s.logger.Warn("failed to discard applied command plan", zap.Error(err))
	}

	if s.auditor != nil {
		payload, _ := json.Marshal(summary)
		if err := s.auditor.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &plan.UserID,
			Action:     models.AuditActionCommandApply,
			Resource:   "schedules",
			ResourceID: &plan.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record command apply audit log", zap.Error(err))
		}
	}

	if summary.Applied == 0 && summary.Failed+summary.Skipped > 0 && len(plan.Commands) > 0 {
		s.logger.Warn("all planned commands failed processing, no changes applied",
			zap.String("plan", plan.ID), zap.Int("failed", summary.Failed))
	}

	return summary, nil
}

func (s *CommandService) execute(ctx context.Context, cmd models.RawCommand) error {
	switch cmd.Type() {
	case models.CommandAddSchedule:
		schedule := &models.Schedule{
			Day:       strings.TrimSpace(stringValue(cmd["day"])),
			Time:      strings.TrimSpace(stringValue(cmd["time"])),
			Level:     strings.TrimSpace(stringValue(cmd["level"])),
			Subject:   strings.TrimSpace(stringValue(cmd["subject"])),
			TeacherID: strings.TrimSpace(stringValue(cmd["teacher_id"])),
		}
		return s.schedules.Create(ctx, schedule)

	case models.CommandUpdateSchedule:
		id := strings.TrimSpace(stringValue(cmd["id"]))
		update := models.ScheduleUpdate{}
		for key, value := range cmd {
			if key == "command" || key == "id" {
				continue
			}
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %q must be a string", key)
			}
			trimmedValue := strings.TrimSpace(str)
			switch key {
			case "day":
				update.Day = &trimmedValue
			case "time":
				update.Time = &trimmedValue
			case "level":
				update.Level = &trimmedValue
			case "subject":
				update.Subject = &trimmedValue
			case "teacher_id":
				update.TeacherID = &trimmedValue
			default:
				return fmt.Errorf("column %q does not exist on schedules", key)
			}
		}
		if err := s.schedules.Update(ctx, id, update); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("schedule %s not found", id)
			}
			return err
		}
		return nil

	case models.CommandDeleteSchedule:
		id := strings.TrimSpace(stringValue(cmd["id"]))
		if err := s.schedules.Delete(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("schedule %s not found", id)
			}
			return err
		}
		return nil
	}

	return fmt.Errorf("unknown command type: %s", cmd.Type())
}

func (s *CommandService) recordFailure(ctx context.Context, cmd models.RawCommand, message string, userRole models.UserRole) {
	s.logger.Warn("command execution failure", zap.String("command", cmd.Type()), zap.String("error", message))

	payload, err := json.Marshal(cmd)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", cmd))
	}
	if err := s.errorLog.LogCommandError(ctx, &models.CommandError{
		CommandJSON:  string(payload),
		ErrorMessage: message,
		UserRole:     string(userRole),
	}); err != nil {
		s.logger.Error("failed to persist command error", zap.Error(err))
	}
}

func (s *CommandService) logParseFailure(ctx context.Context, raw, reason string, userRole models.UserRole) {
	payload, _ := json.Marshal(map[string]string{"rawResponse": raw, "parseError": reason})
	if err := s.errorLog.LogCommandError(ctx, &models.CommandError{
		CommandJSON:  string(payload),
		ErrorMessage: "Failed to parse AI JSON response.",
		UserRole:     string(userRole),
	}); err != nil {
		s.logger.Error("failed to persist parse error", zap.Error(err))
	}
}

func planKey(id string) string {
	return "assistant:plan:" + id
}
