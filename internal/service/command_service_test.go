package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type fakeScheduleRepo struct {
	created   []*models.Schedule
	updates   map[string]models.ScheduleUpdate
	deleted   []string
	schedules map[string]*models.Schedule
	createErr error
	updateErr error
}

func (f *fakeScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := f.schedules[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	out := make([]models.Schedule, 0, len(f.schedules))
	for _, s := range f.schedules {
		if filter.Day != "" && s.Day != filter.Day {
			continue
		}
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, schedule)
	return nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, id string, update models.ScheduleUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = make(map[string]models.ScheduleUpdate)
	}
	f.updates[id] = update
	return nil
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeScheduleRepo) DeleteAll(ctx context.Context) (int64, error) {
	count := int64(len(f.schedules))
	f.schedules = nil
	return count, nil
}

func (f *fakeScheduleRepo) ReplaceForDayLevel(ctx context.Context, day, level string, schedules []models.Schedule) error {
	return nil
}

func (f *fakeScheduleRepo) Stats(ctx context.Context, day string) (*models.ScheduleStats, error) {
	return &models.ScheduleStats{TotalSchedules: len(f.schedules)}, nil
}

type memPlanStore struct {
	entries map[string][]byte
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{entries: make(map[string][]byte)}
}

func (m *memPlanStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memPlanStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memPlanStore) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type fakeErrorLog struct {
	entries []*models.CommandError
}

func (f *fakeErrorLog) LogCommandError(ctx context.Context, entry *models.CommandError) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeAuditor struct {
	logs []*models.AuditLog
}

func (f *fakeAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func newCommandService(repo *fakeScheduleRepo, errorLog *fakeErrorLog, store *memPlanStore, auditor *fakeAuditor) *CommandService {
	return NewCommandService(repo, errorLog, store, auditor, zap.NewNop(), time.Minute)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[{"command":"AddSchedule"}]`, StripCodeFence("```json\n[{\"command\":\"AddSchedule\"}]\n```"))
	assert.Equal(t, `[{"command":"AddSchedule"}]`, StripCodeFence("```\n[{\"command\":\"AddSchedule\"}]\n```"))
	assert.Equal(t, `[]`, StripCodeFence("[]"))
}

func TestParseCommandsValidArray(t *testing.T) {
	svc := newCommandService(&fakeScheduleRepo{}, &fakeErrorLog{}, newMemPlanStore(), &fakeAuditor{})

	commands, err := svc.ParseCommands(context.Background(),
		"```json\n[{\"command\":\"DeleteSchedule\",\"id\":\""+validTeacherID+"\"}]\n```", models.RoleCreator)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "DeleteSchedule", commands[0].Type())
}

func TestParseCommandsMalformedJSONIsLogged(t *testing.T) {
	errorLog := &fakeErrorLog{}
	svc := newCommandService(&fakeScheduleRepo{}, errorLog, newMemPlanStore(), &fakeAuditor{})

	_, err := svc.ParseCommands(context.Background(), "not json at all", models.RoleCreator)
	require.Error(t, err)
	require.Len(t, errorLog.entries, 1)
	assert.Equal(t, "Failed to parse AI JSON response.", errorLog.entries[0].ErrorMessage)
	assert.Contains(t, errorLog.entries[0].CommandJSON, "rawResponse")
}

func TestParseCommandsRejectsEntryWithoutCommandField(t *testing.T) {
	errorLog := &fakeErrorLog{}
	svc := newCommandService(&fakeScheduleRepo{}, errorLog, newMemPlanStore(), &fakeAuditor{})

	_, err := svc.ParseCommands(context.Background(), `[{"id":"x"}]`, models.RoleCreator)
	require.Error(t, err)
	assert.Len(t, errorLog.entries, 1)
}

func TestPlanAndApplySingleCommand(t *testing.T) {
	repo := &fakeScheduleRepo{}
	auditor := &fakeAuditor{}
	store := newMemPlanStore()
	svc := newCommandService(repo, &fakeErrorLog{}, store, auditor)
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.NoError(t, err)
	require.Len(t, plan.Commands, 1)
	assert.True(t, plan.Commands[0].Validation.Valid)

	summary, err := svc.Apply(ctx, "u1", models.RoleCreator, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Failed)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Monday", repo.created[0].Day)

	// Plan is gone after apply.
	_, err = svc.GetPlan(ctx, "u1", plan.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.Len(t, auditor.logs, 1)
	assert.Equal(t, models.AuditActionCommandApply, auditor.logs[0].Action)
}

func TestApplySkipsInvalidMiddleEntry(t *testing.T) {
	repo := &fakeScheduleRepo{}
	errorLog := &fakeErrorLog{}
	svc := newCommandService(repo, errorLog, newMemPlanStore(), &fakeAuditor{})
	ctx := context.Background()

	invalid := models.RawCommand{"command": "AddSchedule", "day": "Tuesday"}
	batch := []models.RawCommand{
		validAddSchedule(),
		invalid,
		{"command": "DeleteSchedule", "id": validTeacherID},
	}

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.ValidCount())

	summary, err := svc.Apply(ctx, "u1", models.RoleCreator, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, []string{validTeacherID}, repo.deleted)
	// Pre-invalidated entries are skipped, not recorded as failures.
	assert.Empty(t, errorLog.entries)
}

func TestApplyRecordsExecutionFailure(t *testing.T) {
	repo := &fakeScheduleRepo{createErr: errors.New("insert failed")}
	errorLog := &fakeErrorLog{}
	svc := newCommandService(repo, errorLog, newMemPlanStore(), &fakeAuditor{})
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.NoError(t, err)

	summary, err := svc.Apply(ctx, "u1", models.RoleCreator, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Applied)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, errorLog.entries, 1)
	assert.Contains(t, errorLog.entries[0].ErrorMessage, "Execution Error: insert failed")
	assert.Contains(t, errorLog.entries[0].ErrorMessage, "(Command: AddSchedule)")
}

func TestApplyUpdateRejectsUnknownColumn(t *testing.T) {
	repo := &fakeScheduleRepo{}
	errorLog := &fakeErrorLog{}
	svc := newCommandService(repo, errorLog, newMemPlanStore(), &fakeAuditor{})
	ctx := context.Background()

	cmd := models.RawCommand{"command": "UpdateSchedule", "id": validTeacherID, "room": "B12"}
	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{cmd})
	require.NoError(t, err)
	require.True(t, plan.Commands[0].Validation.Valid)

	summary, err := svc.Apply(ctx, "u1", models.RoleCreator, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, repo.updates)
}

func TestGetPlanOwnership(t *testing.T) {
	svc := newCommandService(&fakeScheduleRepo{}, &fakeErrorLog{}, newMemPlanStore(), &fakeAuditor{})
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.NoError(t, err)

	_, err = svc.GetPlan(ctx, "someone-else", plan.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

type unavailableStore struct{}

func (unavailableStore) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheUnavailable
}

func (unavailableStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return appErrors.ErrCacheUnavailable
}

func (unavailableStore) Delete(ctx context.Context, key string) error {
	return appErrors.ErrCacheUnavailable
}

func TestPlanFailsWithoutCacheBackend(t *testing.T) {
	svc := NewCommandService(&fakeScheduleRepo{}, &fakeErrorLog{}, unavailableStore{}, &fakeAuditor{}, zap.NewNop(), time.Minute)
	ctx := context.Background()

	_, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCacheUnavailable.Code, appErrors.FromError(err).Code)

	_, err = svc.GetPlan(ctx, "u1", "any-plan-id")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCacheUnavailable.Code, appErrors.FromError(err).Code)
}

func TestEditPlanRevalidates(t *testing.T) {
	svc := newCommandService(&fakeScheduleRepo{}, &fakeErrorLog{}, newMemPlanStore(), &fakeAuditor{})
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.NoError(t, err)

	edited := json.RawMessage(`[{"command":"UpdateSchedule","id":"` + validTeacherID + `","time":"bad"}]`)
	updated, err := svc.EditPlan(ctx, "u1", plan.ID, edited)
	require.NoError(t, err)
	require.Len(t, updated.Commands, 1)
	assert.False(t, updated.Commands[0].Validation.Valid)
	assert.Contains(t, updated.Commands[0].Validation.Message, "Invalid time format")
}

func TestAbandonPlanDeletes(t *testing.T) {
	store := newMemPlanStore()
	svc := newCommandService(&fakeScheduleRepo{}, &fakeErrorLog{}, store, &fakeAuditor{})
	ctx := context.Background()

	plan, err := svc.Plan(ctx, "u1", models.RoleCreator, []models.RawCommand{validAddSchedule()})
	require.NoError(t, err)

	require.NoError(t, svc.AbandonPlan(ctx, "u1", plan.ID))
	assert.Empty(t, store.entries)
}
