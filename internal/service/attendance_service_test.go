package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	logs        map[string]*models.AttendanceLog
	board       []models.TeacherAttendanceRow
	historyFrom time.Time
	historyTo   time.Time
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{logs: make(map[string]*models.AttendanceLog)}
}

func attendanceKey(teacherID string, date time.Time) string {
	return teacherID + date.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.AttendanceLog, error) {
	log, ok := f.logs[attendanceKey(teacherID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *log
	return &clone, nil
}

func (f *fakeAttendanceRepo) Upsert(ctx context.Context, log *models.AttendanceLog) error {
	stored := *log
	f.logs[attendanceKey(log.TeacherID, log.Date)] = &stored
	return nil
}

func (f *fakeAttendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceLog, error) {
	var out []models.AttendanceLog
	for _, log := range f.logs {
		if log.Date.Equal(date) {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.AttendanceLog, error) {
	f.historyFrom = from
	f.historyTo = to
	var out []models.AttendanceLog
	for _, log := range f.logs {
		if log.TeacherID == teacherID && !log.Date.Before(from) && !log.Date.After(to) {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) Board(ctx context.Context, date time.Time) ([]models.TeacherAttendanceRow, error) {
	return f.board, nil
}

func (f *fakeAttendanceRepo) Stats(ctx context.Context, date time.Time) (*models.AttendanceStats, error) {
	stats := &models.AttendanceStats{}
	for _, log := range f.logs {
		if !log.Date.Equal(date) {
			continue
		}
		switch log.Status {
		case models.AttendancePresent:
			stats.Present++
		case models.AttendanceBreak:
			stats.Break++
		case models.AttendanceAbsent:
			stats.Absent++
		}
	}
	return stats, nil
}

func newAttendanceService(repo *fakeAttendanceRepo) *AttendanceService {
	return NewAttendanceService(repo, nil, zap.NewNop())
}

func TestCheckInStoresTodayStatus(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := newAttendanceService(repo)

	log, err := svc.CheckIn(context.Background(), "t1", CheckInRequest{Status: models.AttendancePresent})
	require.NoError(t, err)
	assert.Equal(t, dateOnly(time.Now()), log.Date)

	today, err := svc.Today(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, models.AttendancePresent, today.Status)
}

func TestCheckInOverwritesEarlierStatus(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := newAttendanceService(repo)

	_, err := svc.CheckIn(context.Background(), "t1", CheckInRequest{Status: models.AttendancePresent})
	require.NoError(t, err)
	remarks := "leaving early"
	_, err = svc.CheckIn(context.Background(), "t1", CheckInRequest{Status: models.AttendanceBreak, Remarks: &remarks})
	require.NoError(t, err)

	today, err := svc.Today(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceBreak, today.Status)
	require.NotNil(t, today.Remarks)
	assert.Equal(t, "leaving early", *today.Remarks)
	// Still a single row for the day.
	assert.Len(t, repo.logs, 1)
}

func TestCheckInRejectsUnknownStatus(t *testing.T) {
	svc := newAttendanceService(newFakeAttendanceRepo())

	_, err := svc.CheckIn(context.Background(), "t1", CheckInRequest{Status: "vacation"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTodayWithoutCheckInReturnsNil(t *testing.T) {
	svc := newAttendanceService(newFakeAttendanceRepo())

	today, err := svc.Today(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, today)
}

func TestHistoryDefaultsToLastThirtyDays(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := newAttendanceService(repo)

	_, err := svc.History(context.Background(), "t1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, dateOnly(time.Now()), repo.historyTo)
	assert.Equal(t, dateOnly(time.Now()).AddDate(0, 0, -30), repo.historyFrom)
}

func TestStatsCountsTodayOnly(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := newAttendanceService(repo)

	_, err := svc.CheckIn(context.Background(), "t1", CheckInRequest{Status: models.AttendancePresent})
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), "t2", CheckInRequest{Status: models.AttendanceAbsent})
	require.NoError(t, err)
	yesterday := dateOnly(time.Now()).AddDate(0, 0, -1)
	repo.logs["t3"+yesterday.Format("2006-01-02")] = &models.AttendanceLog{
		TeacherID: "t3", Date: yesterday, Status: models.AttendancePresent,
	}

	stats, err := svc.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 1, stats.Absent)
	assert.Zero(t, stats.Break)
}
