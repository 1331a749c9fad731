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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/dto"
	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
	"github.com/edusync/edusync-api/pkg/openrouter"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.AISettings, error)
	Save(ctx context.Context, settings *models.AISettings) error
	UpdateCurrentIndex(ctx context.Context, id string, index int) error
	ListCommandErrors(ctx context.Context, limit int) ([]models.CommandError, error)
}

type assistantUserService interface {
	Create(ctx context.Context, actorRole models.UserRole, req models.CreateUserRequest) (*models.User, error)
	Count(ctx context.Context) (int, error)
	Teachers(ctx context.Context) ([]models.User, error)
}

type assistantStatsProvider interface {
	ActiveClassCount(ctx context.Context) (int, error)
	AttendanceStats(ctx context.Context, date time.Time) (*models.AttendanceStats, error)
	ScheduleStats(ctx context.Context, now time.Time) (*models.ScheduleStats, error)
}

type completionClient interface {
	Complete(ctx context.Context, apiKey, model string, messages []openrouter.Message) (string, error)
}

// AssistantService is the gateway to the chat model. It rotates over the
// configured key pool, enforces per-role access, and dispatches creator tool
// commands with a second completion round.
type AssistantService struct {
	client    completionClient
	settings  settingsRepository
	users     assistantUserService
	stats     assistantStatsProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssistantService constructs an AssistantService instance.
func NewAssistantService(client completionClient, settings settingsRepository, users assistantUserService, stats assistantStatsProvider, validate *validator.Validate, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssistantService{client: client, settings: settings, users: users, stats: stats, validator: validate, logger: logger}
}

// loadSettings fetches and sanity-checks the assistant configuration.
func (s *AssistantService) loadSettings(ctx context.Context) (*models.AISettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAssistantDisabled, "AI settings not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load AI settings")
	}
	if len(settings.APIKeys) == 0 {
		return nil, appErrors.Clone(appErrors.ErrAssistantDisabled, "No API keys configured")
	}
	if strings.TrimSpace(settings.Model) == "" {
		return nil, appErrors.Clone(appErrors.ErrAssistantDisabled, "AI model not set")
	}
	if settings.CurrentIndex < 0 || settings.CurrentIndex >= len(settings.APIKeys) {
		settings.CurrentIndex = 0
	}
	return settings, nil
}

// Chat answers one user turn. Every configured key is tried at most once,
// starting from the stored rotation cursor; the index of the key that
// succeeded is persisted so the next request starts there.
func (s *AssistantService) Chat(ctx context.Context, userID string, role models.UserRole, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.AccessLevel.CanChat(role) {
		return nil, appErrors.Clone(appErrors.ErrAssistantDisabled, fmt.Sprintf("AI chat is not enabled for the %s role", role))
	}

	var teacherNames []string
	if role == models.RoleAdmin {
		teachers, err := s.users.Teachers(ctx)
		if err != nil {
			s.logger.Warn("failed to load teacher names for system prompt", zap.Error(err))
		}
		for _, teacher := range teachers {
			teacherNames = append(teacherNames, teacher.Name)
		}
	}

	messages := make([]openrouter.Message, 0, len(req.History)+2)
	messages = append(messages, openrouter.Message{Role: "system", Content: SystemPromptForRole(role, teacherNames)})
	for _, turn := range req.History {
		messages = append(messages, openrouter.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openrouter.Message{Role: "user", Content: req.Message})

	currentIndex := settings.CurrentIndex
	keys := settings.APIKeys

	for attempt := 0; attempt < len(keys); attempt++ {
		key := keys[currentIndex]

		if !openrouter.ValidateKey(key) {
			s.logger.Warn("skipping API key with invalid format", zap.Int("key", currentIndex+1))
			currentIndex = (currentIndex + 1) % len(keys)
			continue
		}

		s.logger.Debug("calling completion endpoint",
			zap.Int("key", currentIndex+1), zap.Int("of", len(keys)), zap.String("model", settings.Model))

		response, err := s.client.Complete(ctx, key, settings.Model, messages)
		if err != nil {
			s.logger.Warn(openrouter.HumanizeError(err, currentIndex), zap.Error(err))
			currentIndex = (currentIndex + 1) % len(keys)
			continue
		}

		reply := s.postProcess(ctx, role, response, key, settings.Model, messages)

		if err := s.settings.UpdateCurrentIndex(ctx, settings.ID, currentIndex); err != nil {
			s.logger.Warn("failed to persist key rotation cursor", zap.Error(err))
		}

		return &dto.ChatResponse{Reply: reply, KeyIndex: currentIndex}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrAllKeysFailed, "")
}

// postProcess inspects a raw completion. A single JSON object carrying a
// "command" field is a creator tool call; anything else is cleaned prose.
func (s *AssistantService) postProcess(ctx context.Context, role models.UserRole, response, apiKey, model string, history []openrouter.Message) string {
	var command models.RawCommand
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &command); err == nil && command.Type() != "" {
		if role != models.RoleCreator {
			return fmt.Sprintf("Permission denied: Only the Creator can execute system commands. Your role (%s) does not have sufficient privileges.", role)
		}
		return s.runCreatorCommand(ctx, command, apiKey, model, history)
	}
	return CleanResponse(response)
}

// runCreatorCommand executes a creator tool call. Data commands feed their
// output back for a second completion so the reply reads naturally; addUser
// returns its result directly.
func (s *AssistantService) runCreatorCommand(ctx context.Context, command models.RawCommand, apiKey, model string, history []openrouter.Message) string {
	var toolResult string

	switch command.Type() {
	case "addUser":
		return s.addUserTool(ctx, command)

	case "getUsersCount":
		count, err := s.users.Count(ctx)
		if err != nil {
			return fmt.Sprintf("Error executing command: %v", err)
		}
		toolResult = fmt.Sprintf("Tool output: Total users in system: %d", count)

	case "getActiveClassesCount":
		count, err := s.stats.ActiveClassCount(ctx)
		if err != nil {
			return fmt.Sprintf("Error executing command: %v", err)
		}
		toolResult = fmt.Sprintf("Tool output: Active classes currently in session: %d", count)

	case "getTodayAttendanceStats":
		stats, err := s.stats.AttendanceStats(ctx, time.Now())
		if err != nil {
			return fmt.Sprintf("Error executing command: %v", err)
		}
		toolResult = fmt.Sprintf("Tool output: Today's attendance - Present: %d, On Break: %d, Absent: %d, No Check-in: %d",
			stats.Present, stats.Break, stats.Absent, stats.NoCheckin)

	case "getScheduleStats":
		stats, err := s.stats.ScheduleStats(ctx, time.Now())
		if err != nil {
			return fmt.Sprintf("Error executing command: %v", err)
		}
		toolResult = fmt.Sprintf("Tool output: Total schedules: %d, Today's schedules: %d",
			stats.TotalSchedules, stats.TodaySchedules)

	default:
		return fmt.Sprintf("Unknown command: %s", command.Type())
	}

	commandJSON, _ := json.Marshal(command)
	enhanced := make([]openrouter.Message, 0, len(history)+2)
	enhanced = append(enhanced, history...)
	enhanced = append(enhanced,
		openrouter.Message{Role: "assistant", Content: string(commandJSON)},
		openrouter.Message{Role: "user", Content: toolResult},
	)

	natural, err := s.client.Complete(ctx, apiKey, model, enhanced)
	if err != nil {
		s.logger.Warn("second completion for tool output failed", zap.Error(err))
		return toolResult
	}
	return CleanResponse(natural)
}

func (s *AssistantService) addUserTool(ctx context.Context, command models.RawCommand) string {
	name := strings.TrimSpace(stringValue(command["name"]))
	email := strings.TrimSpace(stringValue(command["email"]))
	password := stringValue(command["password"])
	role := models.UserRole(strings.TrimSpace(stringValue(command["role"])))

	if name == "" || email == "" || password == "" || role == "" {
		return "Error: Missing required fields (name, email, password, role)"
	}
	if role != models.RoleTeacher && role != models.RoleHead && role != models.RoleAdmin {
		return fmt.Sprintf("Error: Invalid role %q. Valid roles: teacher, head, admin", role)
	}

	_, err := s.users.Create(ctx, models.RoleCreator, models.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return fmt.Sprintf("Error: Failed to create user - %v", err)
	}
	return fmt.Sprintf("Success: User %q created successfully with role %q", name, role)
}

// GetSettings returns the assistant configuration for the settings screen.
func (s *AssistantService) GetSettings(ctx context.Context) (*models.AISettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "AI settings not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load AI settings")
	}
	return settings, nil
}

// UpdateSettings applies a partial settings change. Keys are format-checked
// before being stored.
func (s *AssistantService) UpdateSettings(ctx context.Context, req models.UpdateAISettingsRequest) (*models.AISettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid AI settings payload")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load AI settings")
		}
		settings = &models.AISettings{AccessLevel: models.AccessLevel{}}
	}

	if req.APIKeys != nil {
		for i, key := range req.APIKeys {
			if !openrouter.ValidateKey(key) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("API key #%d has an invalid format", i+1))
			}
		}
		settings.APIKeys = req.APIKeys
		settings.CurrentIndex = 0
	}
	if req.Model != nil {
		settings.Model = strings.TrimSpace(*req.Model)
	}
	if req.AccessLevel != nil {
		settings.AccessLevel = req.AccessLevel
	}

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save AI settings")
	}
	return settings, nil
}

// CommandErrors returns recent failed command entries.
func (s *AssistantService) CommandErrors(ctx context.Context, limit int) ([]models.CommandError, error) {
	entries, err := s.settings.ListCommandErrors(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list command errors")
	}
	return entries, nil
}

// CanUseCommands reports whether the role may run the command pipeline.
func (s *AssistantService) CanUseCommands(ctx context.Context, role models.UserRole) (bool, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.AccessLevel.CanCommand(role), nil
}

// Echo and boilerplate patterns stripped from model replies before they reach
// the user.
var cleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^I understand you're asking about[^.]*\.\s*`),
	regexp.MustCompile(`(?i)^As a \w+, I can help you[^.]*\.\s*`),
	regexp.MustCompile(`This response was generated using[^.]*\.\s*`),
	regexp.MustCompile(`using key #\d+[^.]*\.\s*`),
	regexp.MustCompile(`\(Model: [^)]+\)`),
	regexp.MustCompile(`\[Key \d+ of \d+\]`),
	regexp.MustCompile(`(?i)^(I'll help you|Let me help you|I can assist you)[^.]*\.\s*`),
	regexp.MustCompile(`(?i)^(Here's|Here are)[^:]*:\s*`),
	regexp.MustCompile(`(?i)^(Certainly|Of course|Sure|Absolutely)[,!.]\s*`),
}

// CleanResponse strips echo phrases, key metadata, and filler prefixes from a
// model reply.
func CleanResponse(response string) string {
	cleaned := response
	for _, pattern := range cleanPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}
