package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type fakeLeaveRepo struct {
	leaves    map[string]*models.LeaveApplication
	balances  map[string]*models.LeaveBalance
	openDates map[string]bool
	nextID    int
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{
		leaves:    make(map[string]*models.LeaveApplication),
		balances:  make(map[string]*models.LeaveBalance),
		openDates: make(map[string]bool),
	}
}

func balanceKey(teacherID string, year int) string {
	return fmt.Sprintf("%s:%d", teacherID, year)
}

func (f *fakeLeaveRepo) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	leave, ok := f.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *leave
	return &clone, nil
}

func (f *fakeLeaveRepo) Create(ctx context.Context, leave *models.LeaveApplication) error {
	f.nextID++
	leave.ID = fmt.Sprintf("leave-%d", f.nextID)
	stored := *leave
	f.leaves[leave.ID] = &stored
	return nil
}

func (f *fakeLeaveRepo) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveApplication, int, error) {
	var out []models.LeaveApplication
	for _, leave := range f.leaves {
		if filter.TeacherID != "" && leave.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && leave.Status != filter.Status {
			continue
		}
		out = append(out, *leave)
	}
	return out, len(out), nil
}

func (f *fakeLeaveRepo) HasOpenForDate(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	return f.openDates[teacherID+date.Format("2006-01-02")], nil
}

func (f *fakeLeaveRepo) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy *string, reviewedAt *time.Time) error {
	leave, ok := f.leaves[id]
	if !ok {
		return sql.ErrNoRows
	}
	leave.Status = status
	leave.ReviewedBy = reviewedBy
	leave.ReviewedAt = reviewedAt
	return nil
}

func (f *fakeLeaveRepo) Approve(ctx context.Context, id, teacherID string, year int, reviewedBy string, reviewedAt time.Time) error {
	leave, ok := f.leaves[id]
	if !ok || leave.Status != models.LeavePending {
		return sql.ErrNoRows
	}
	leave.Status = models.LeaveApproved
	leave.ReviewedBy = &reviewedBy
	leave.ReviewedAt = &reviewedAt
	if balance, ok := f.balances[balanceKey(teacherID, year)]; ok {
		balance.UsedLeaves++
	}
	return nil
}

func (f *fakeLeaveRepo) CancelApproved(ctx context.Context, id, teacherID string, year int) error {
	leave, ok := f.leaves[id]
	if !ok || leave.Status != models.LeaveApproved {
		return sql.ErrNoRows
	}
	leave.Status = models.LeaveCancelled
	if balance, ok := f.balances[balanceKey(teacherID, year)]; ok && balance.UsedLeaves > 0 {
		balance.UsedLeaves--
	}
	return nil
}

func (f *fakeLeaveRepo) FindBalance(ctx context.Context, teacherID string, year int) (*models.LeaveBalance, error) {
	balance, ok := f.balances[balanceKey(teacherID, year)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *balance
	return &clone, nil
}

func (f *fakeLeaveRepo) CreateBalance(ctx context.Context, balance *models.LeaveBalance) error {
	stored := *balance
	stored.ID = balanceKey(balance.TeacherID, balance.Year)
	f.balances[stored.ID] = &stored
	return nil
}

func (f *fakeLeaveRepo) ListBalances(ctx context.Context, year int) ([]models.LeaveBalance, error) {
	var out []models.LeaveBalance
	for _, balance := range f.balances {
		if balance.Year == year {
			out = append(out, *balance)
		}
	}
	return out, nil
}

type fakeFlagReader struct {
	flags map[string]string
}

func (f *fakeFlagReader) Get(ctx context.Context, name string) (*models.SystemFlag, error) {
	value, ok := f.flags[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SystemFlag{Name: name, Value: value}, nil
}

func newLeaveService(repo *fakeLeaveRepo) (*LeaveService, *fakeAuditor) {
	auditor := &fakeAuditor{}
	return NewLeaveService(repo, &fakeFlagReader{}, auditor, nil, zap.NewNop(), 14), auditor
}

func testTeacher() *models.User {
	return &models.User{ID: "t1", Name: "Alex Kim", Role: models.RoleTeacher}
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestSubmitLeaveSuccess(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)

	leave, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
		LeaveDate: futureDate(2),
		LeaveType: models.LeaveAnnual,
		Reason:    "family event",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeavePending, leave.Status)
	assert.Equal(t, "Alex Kim", leave.TeacherName)
	// First use provisions the default allowance.
	balance := repo.balances[balanceKey("t1", leave.LeaveDate.Year())]
	require.NotNil(t, balance)
	assert.Equal(t, 14, balance.TotalLeaves)
}

func TestSubmitLeaveRejectsTodayAndPast(t *testing.T) {
	svc, _ := newLeaveService(newFakeLeaveRepo())

	for _, offset := range []int{0, -1} {
		_, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
			LeaveDate: futureDate(offset),
			LeaveType: models.LeaveSick,
			Reason:    "unwell",
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrLeaveDateInPast.Code, appErrors.FromError(err).Code)
	}
}

func TestSubmitAnnualLeaveRequiresRemainingDays(t *testing.T) {
	repo := newFakeLeaveRepo()
	year := time.Now().AddDate(0, 0, 2).Year()
	repo.balances[balanceKey("t1", year)] = &models.LeaveBalance{
		TeacherID: "t1", Year: year, TotalLeaves: 10, UsedLeaves: 10,
	}
	svc, _ := newLeaveService(repo)

	_, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
		LeaveDate: futureDate(2),
		LeaveType: models.LeaveAnnual,
		Reason:    "holiday",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoLeaveRemaining.Code, appErrors.FromError(err).Code)
}

func TestSubmitExhaustedBalanceRejectsEveryType(t *testing.T) {
	year := time.Now().AddDate(0, 0, 2).Year()
	for _, leaveType := range []models.LeaveType{
		models.LeaveSick, models.LeaveEmergency, models.LeaveUnpaid,
	} {
		repo := newFakeLeaveRepo()
		repo.balances[balanceKey("t1", year)] = &models.LeaveBalance{
			TeacherID: "t1", Year: year, TotalLeaves: 10, UsedLeaves: 10,
		}
		svc, _ := newLeaveService(repo)

		_, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
			LeaveDate: futureDate(2),
			LeaveType: leaveType,
			Reason:    "unwell",
		})
		require.Error(t, err, "type %s", leaveType)
		assert.Equal(t, appErrors.ErrNoLeaveRemaining.Code, appErrors.FromError(err).Code)
	}
}

func TestSubmitAcceptsFullLeaveTypeSet(t *testing.T) {
	for _, leaveType := range []models.LeaveType{
		models.LeaveMedical, models.LeaveMaternity, models.LeavePaternity,
		models.LeaveOther,
	} {
		repo := newFakeLeaveRepo()
		svc, _ := newLeaveService(repo)

		leave, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
			LeaveDate: futureDate(2),
			LeaveType: leaveType,
			Reason:    "personal circumstances",
		})
		require.NoError(t, err, "type %s", leaveType)
		assert.Equal(t, leaveType, leave.LeaveType)
	}

	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	_, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
		LeaveDate: futureDate(2),
		LeaveType: "Vacation",
		Reason:    "personal circumstances",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitLeaveDuplicateDate(t *testing.T) {
	repo := newFakeLeaveRepo()
	date := futureDate(3)
	repo.openDates["t1"+date] = true
	svc, _ := newLeaveService(repo)

	_, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
		LeaveDate: date,
		LeaveType: models.LeaveAnnual,
		Reason:    "holiday",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateLeave.Code, appErrors.FromError(err).Code)
}

func TestDefaultAnnualDaysFlagOverride(t *testing.T) {
	repo := newFakeLeaveRepo()
	flags := &fakeFlagReader{flags: map[string]string{models.FlagDefaultAnnualLeaves: "20"}}
	svc := NewLeaveService(repo, flags, &fakeAuditor{}, nil, zap.NewNop(), 14)

	balance, err := svc.Balance(context.Background(), "t1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 20, balance.TotalLeaves)
}

func submitPending(t *testing.T, svc *LeaveService) *models.LeaveApplication {
	t.Helper()
	leave, err := svc.Submit(context.Background(), testTeacher(), models.SubmitLeaveRequest{
		LeaveDate: futureDate(5),
		LeaveType: models.LeaveAnnual,
		Reason:    "holiday",
	})
	require.NoError(t, err)
	return leave
}

func TestReviewApproveChargesBalance(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, auditor := newLeaveService(repo)
	leave := submitPending(t, svc)

	reviewed, err := svc.Review(context.Background(), "admin1", leave.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin1", *reviewed.ReviewedBy)

	balance := repo.balances[balanceKey("t1", leave.LeaveDate.Year())]
	assert.Equal(t, 1, balance.UsedLeaves)

	require.Len(t, auditor.logs, 1)
	assert.Equal(t, models.AuditActionLeaveReview, auditor.logs[0].Action)
}

func TestReviewRejectLeavesBalanceUntouched(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	reviewed, err := svc.Review(context.Background(), "admin1", leave.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveRejected, reviewed.Status)
	balance := repo.balances[balanceKey("t1", leave.LeaveDate.Year())]
	assert.Zero(t, balance.UsedLeaves)
}

func TestReviewOnlyPending(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	_, err := svc.Review(context.Background(), "admin1", leave.ID, true)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), "admin1", leave.ID, true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLeaveNotPending.Code, appErrors.FromError(err).Code)
}

func TestCancelPendingByOwner(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	cancelled, err := svc.Cancel(context.Background(), actor, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveCancelled, cancelled.Status)
}

func TestCancelPendingOfOtherTeacherForbidden(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	actor := &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher}
	_, err := svc.Cancel(context.Background(), actor, leave.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCancelApprovedRefundsBalanceAdminOnly(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	_, err := svc.Review(context.Background(), "admin1", leave.ID, true)
	require.NoError(t, err)

	teacherActor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err = svc.Cancel(context.Background(), teacherActor, leave.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	adminActor := &models.JWTClaims{UserID: "admin1", Role: models.RoleAdmin}
	cancelled, err := svc.Cancel(context.Background(), adminActor, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveCancelled, cancelled.Status)

	balance := repo.balances[balanceKey("t1", leave.LeaveDate.Year())]
	assert.Zero(t, balance.UsedLeaves)
}

func TestCancelRejectedConflicts(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	leave := submitPending(t, svc)

	_, err := svc.Review(context.Background(), "admin1", leave.ID, false)
	require.NoError(t, err)

	actor := &models.JWTClaims{UserID: "admin1", Role: models.RoleAdmin}
	_, err = svc.Cancel(context.Background(), actor, leave.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestListScopesTeachersToOwnLeaves(t *testing.T) {
	repo := newFakeLeaveRepo()
	svc, _ := newLeaveService(repo)
	submitPending(t, svc)
	other := &models.LeaveApplication{ID: "leave-x", TeacherID: "t2", Status: models.LeavePending}
	repo.leaves[other.ID] = other

	actor := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	leaves, page, err := svc.List(context.Background(), actor, models.LeaveFilter{})
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, "t1", leaves[0].TeacherID)
	assert.Equal(t, 1, page.TotalCount)
}
