package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

const scheduleTeacherID = "0b91a9e1-4b4c-4d2e-9f5a-1c2d3e4f5a6b"

func newScheduleService(repo *fakeScheduleRepo) (*ScheduleService, *fakeAuditor) {
	auditor := &fakeAuditor{}
	return NewScheduleService(repo, auditor, nil, zap.NewNop()), auditor
}

func TestCreateScheduleSuccess(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc, _ := newScheduleService(repo)

	schedule, err := svc.Create(context.Background(), models.CreateScheduleRequest{
		Day:       "Monday",
		Time:      "08:30",
		Level:     "10A",
		Subject:   "Mathematics",
		TeacherID: scheduleTeacherID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Monday", schedule.Day)
	require.Len(t, repo.created, 1)
}

func TestCreateScheduleRejectsLooseTime(t *testing.T) {
	svc, _ := newScheduleService(&fakeScheduleRepo{})

	_, err := svc.Create(context.Background(), models.CreateScheduleRequest{
		Day:       "Monday",
		Time:      "8:30",
		Level:     "10A",
		Subject:   "Mathematics",
		TeacherID: scheduleTeacherID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateScheduleRejectsBadDay(t *testing.T) {
	svc, _ := newScheduleService(&fakeScheduleRepo{})

	_, err := svc.Create(context.Background(), models.CreateScheduleRequest{
		Day:       "Funday",
		Time:      "08:30",
		Level:     "10A",
		Subject:   "Mathematics",
		TeacherID: scheduleTeacherID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateScheduleRequiresAtLeastOneField(t *testing.T) {
	svc, _ := newScheduleService(&fakeScheduleRepo{})

	_, err := svc.Update(context.Background(), "s1", models.UpdateScheduleRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateScheduleAppliesPartialChange(t *testing.T) {
	repo := &fakeScheduleRepo{schedules: map[string]*models.Schedule{
		"s1": {ID: "s1", Day: "Monday", Time: "08:30", Subject: "Mathematics"},
	}}
	svc, _ := newScheduleService(repo)

	subject := "Physics"
	updated, err := svc.Update(context.Background(), "s1", models.UpdateScheduleRequest{Subject: &subject})
	require.NoError(t, err)
	assert.Equal(t, "s1", updated.ID)
	require.Contains(t, repo.updates, "s1")
	assert.Equal(t, "Physics", *repo.updates["s1"].Subject)
	assert.Nil(t, repo.updates["s1"].Day)
}

func TestGetScheduleNotFound(t *testing.T) {
	svc, _ := newScheduleService(&fakeScheduleRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveDayValidatesEverySlot(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc, _ := newScheduleService(repo)

	err := svc.SaveDay(context.Background(), models.SaveDayRequest{
		Day:   "Tuesday",
		Level: "11B",
		Slots: []models.SaveDaySlot{
			{Time: "08:00", Subject: "History", TeacherID: scheduleTeacherID},
			{Time: "noon", Subject: "Biology", TeacherID: scheduleTeacherID},
		},
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, `time "noon"`)
}

func TestSaveDayAcceptsEmptySlotList(t *testing.T) {
	svc, _ := newScheduleService(&fakeScheduleRepo{})

	err := svc.SaveDay(context.Background(), models.SaveDayRequest{Day: "Tuesday", Level: "11B"})
	assert.NoError(t, err)
}

func TestWeeklyResetAudited(t *testing.T) {
	repo := &fakeScheduleRepo{schedules: map[string]*models.Schedule{
		"s1": {ID: "s1"}, "s2": {ID: "s2"},
	}}
	svc, auditor := newScheduleService(repo)

	removed, err := svc.WeeklyReset(context.Background(), "creator1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	require.Len(t, auditor.logs, 1)
	assert.Equal(t, models.AuditActionWeeklyReset, auditor.logs[0].Action)
	assert.JSONEq(t, `{"removed":2}`, string(auditor.logs[0].NewValues))
}

func TestScheduleStatsUsesWeekdayName(t *testing.T) {
	repo := &fakeScheduleRepo{schedules: map[string]*models.Schedule{"s1": {ID: "s1"}}}
	svc, _ := newScheduleService(repo)

	wednesday := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	stats, err := svc.Stats(context.Background(), wednesday)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSchedules)
}
