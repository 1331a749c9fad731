package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusync/edusync-api/internal/models"
)

func TestScheduleCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{Day: "Monday", Time: "08:00", Level: "Grade 5", Subject: "Math", TeacherID: "t1"}
	err := repo.Create(context.Background(), schedule)
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleUpdatePartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET subject = $1, updated_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	subject := "Science"
	err := repo.Update(context.Background(), "s1", models.ScheduleUpdate{Subject: &subject})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedules SET").WillReturnResult(sqlmock.NewResult(0, 0))

	day := "Tuesday"
	err := repo.Update(context.Background(), "missing", models.ScheduleUpdate{Day: &day})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "day", "time", "level", "subject", "teacher_id", "created_at", "updated_at"}).
		AddRow("s1", "Monday", "08:00", "Grade 5", "Math", "t1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, time, level, subject, teacher_id, created_at, updated_at FROM schedules WHERE 1=1 AND day = $1")).
		WithArgs("Monday").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND day = $1")).
		WithArgs("Monday").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{Day: "Monday"})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleDeleteAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules")).WillReturnResult(sqlmock.NewResult(0, 12))

	removed, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleReplaceForDayLevel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE day = $1 AND level = $2")).
		WithArgs("Monday", "Grade 5").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForDayLevel(context.Background(), "Monday", "Grade 5", []models.Schedule{
		{Day: "Monday", Time: "08:00", Level: "Grade 5", Subject: "Math", TeacherID: "t1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
