package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

type mockAvailabilityStore struct {
	records       map[string]*models.VolunteerAvailability
	created       *models.VolunteerAvailability
	replaced      types.JSONText
	replaceFail   bool
	deactivated   []string
	replaceCalled bool
}

func availabilityKey(tenantID, volunteerID, ministryID string) string {
	return tenantID + "|" + volunteerID + "|" + ministryID
}

func (m *mockAvailabilityStore) FindActive(ctx context.Context, tenantID, volunteerID, ministryID string) (*models.VolunteerAvailability, error) {
	if record, ok := m.records[availabilityKey(tenantID, volunteerID, ministryID)]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAvailabilityStore) Create(ctx context.Context, record *models.VolunteerAvailability) error {
	if m.records == nil {
		m.records = make(map[string]*models.VolunteerAvailability)
	}
	if record.ID == "" {
		record.ID = "avail-1"
	}
	m.records[availabilityKey(record.TenantID, record.VolunteerID, record.MinistryID)] = record
	m.created = record
	return nil
}

func (m *mockAvailabilityStore) ReplaceBlockedDates(ctx context.Context, id string, dates types.JSONText, readAt time.Time) (bool, error) {
	m.replaceCalled = true
	if m.replaceFail {
		return false, nil
	}
	m.replaced = dates
	return true, nil
}

func (m *mockAvailabilityStore) Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error {
	m.deactivated = append(m.deactivated, availabilityKey(tenantID, volunteerID, ministryID))
	return nil
}

type mockQuotaResolver struct {
	quota int
}

func (m *mockQuotaResolver) MonthlyQuota(ctx context.Context, tenantID, volunteerID, ministryID string) (int, error) {
	return m.quota, nil
}

type mockMembershipProvider struct {
	inactive map[string]bool
}

func (m *mockMembershipProvider) IsActiveMember(ctx context.Context, tenantID, volunteerID, ministryID string, branchID *string) (bool, error) {
	return !m.inactive[volunteerID], nil
}

type mockConfirmedAssignments struct {
	byVolunteerDate map[string][]models.Assignment
}

func (m *mockConfirmedAssignments) ListConfirmedByVolunteerOnDate(ctx context.Context, tenantID, volunteerID string, date time.Time) ([]models.Assignment, error) {
	return m.byVolunteerDate[volunteerID+"|"+date.Format("2006-01-02")], nil
}

func newAvailabilityRecord(t *testing.T, blocked ...time.Time) *models.VolunteerAvailability {
	t.Helper()
	dates := make([]models.BlockedDate, 0, len(blocked))
	for _, day := range blocked {
		dates = append(dates, models.BlockedDate{Date: models.DateOnly(day), IsBlocked: true})
	}
	encoded, err := models.EncodeBlockedDates(dates)
	require.NoError(t, err)
	return &models.VolunteerAvailability{
		ID:                     "avail-1",
		TenantID:               "t1",
		VolunteerID:            "v1",
		MinistryID:             "m1",
		BlockedDates:           encoded,
		MaxBlockedDaysPerMonth: 3,
		IsActive:               true,
		LastUpdated:            time.Now().UTC(),
	}
}

func newAvailabilityService(store *mockAvailabilityStore) *AvailabilityService {
	return NewAvailabilityService(store, &mockQuotaResolver{quota: 3}, &mockMembershipProvider{},
		&mockConfirmedAssignments{}, zap.NewNop(), 10)
}

func TestAvailabilityServiceBlockDateCreatesRecord(t *testing.T) {
	store := &mockAvailabilityStore{}
	svc := newAvailabilityService(store)

	record, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), "vacation")
	require.NoError(t, err)
	require.NotNil(t, store.created)
	assert.Equal(t, 3, record.MaxBlockedDaysPerMonth)

	dates, err := record.Dates()
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "vacation", dates[0].Reason)
	assert.True(t, dates[0].IsBlocked)
}

func TestAvailabilityServiceBlockDateAlreadyBlocked(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	store := &mockAvailabilityStore{records: map[string]*models.VolunteerAvailability{
		availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t, day),
	}}
	svc := newAvailabilityService(store)

	_, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", day, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyBlocked.Code, appErr.Code)
	assert.False(t, store.replaceCalled)
}

func TestAvailabilityServiceBlockDateQuotaExceeded(t *testing.T) {
	sept := func(d int) time.Time { return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC) }
	store := &mockAvailabilityStore{records: map[string]*models.VolunteerAvailability{
		availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t, sept(1), sept(2), sept(3)),
	}}
	svc := newAvailabilityService(store)

	_, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", sept(20), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErrors.FromError(err).Code)

	// the quota is per calendar month, so an adjacent month still accepts
	_, err = svc.BlockDate(context.Background(), "t1", "v1", "m1", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.True(t, store.replaceCalled)
}

func TestAvailabilityServiceBlockDateRejectsConfirmedAssignment(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	store := &mockAvailabilityStore{}
	assignments := &mockConfirmedAssignments{byVolunteerDate: map[string][]models.Assignment{
		"v1|2026-09-14": {{ID: "a1", Status: models.AssignmentStatusConfirmed}},
	}}
	svc := NewAvailabilityService(store, &mockQuotaResolver{quota: 3},
		&mockMembershipProvider{}, assignments, zap.NewNop(), 10)

	_, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", day, "vacation")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.created)
	assert.False(t, store.replaceCalled)

	// an adjacent day without a confirmed assignment still blocks normally
	_, err = svc.BlockDate(context.Background(), "t1", "v1", "m1", day.AddDate(0, 0, 1), "vacation")
	require.NoError(t, err)
	require.NotNil(t, store.created)
}

func TestAvailabilityServiceBlockDateDefaultQuotaWhenUnset(t *testing.T) {
	store := &mockAvailabilityStore{}
	svc := NewAvailabilityService(store, &mockQuotaResolver{quota: 0},
		&mockMembershipProvider{}, &mockConfirmedAssignments{}, zap.NewNop(), 10)

	record, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.Equal(t, 10, record.MaxBlockedDaysPerMonth)
}

func TestAvailabilityServiceBlockDateConcurrentUpdate(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	store := &mockAvailabilityStore{
		records: map[string]*models.VolunteerAvailability{
			availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t),
		},
		replaceFail: true,
	}
	svc := newAvailabilityService(store)

	_, err := svc.BlockDate(context.Background(), "t1", "v1", "m1", day, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceUnblockDateNoop(t *testing.T) {
	store := &mockAvailabilityStore{}
	svc := newAvailabilityService(store)

	err := svc.UnblockDate(context.Background(), "t1", "v1", "m1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, store.replaceCalled)
}

func TestAvailabilityServiceUnblockDateRemoves(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	store := &mockAvailabilityStore{records: map[string]*models.VolunteerAvailability{
		availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t, day),
	}}
	svc := newAvailabilityService(store)

	err := svc.UnblockDate(context.Background(), "t1", "v1", "m1", day)
	require.NoError(t, err)
	assert.True(t, store.replaceCalled)
	assert.JSONEq(t, `[]`, string(store.replaced))
}

func TestAvailabilityServiceMonthlyBlockedDays(t *testing.T) {
	store := &mockAvailabilityStore{records: map[string]*models.VolunteerAvailability{
		availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
	}}
	svc := newAvailabilityService(store)

	info, err := svc.MonthlyBlockedDays(context.Background(), "t1", "v1", "m1", "2026-09")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Used)
	assert.Equal(t, 3, info.Quota)

	_, err = svc.MonthlyBlockedDays(context.Background(), "t1", "v1", "m1", "september")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceCanBlockDateConflictingAssignment(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	assignments := &mockConfirmedAssignments{byVolunteerDate: map[string][]models.Assignment{
		"v1|2026-09-14": {{ID: "a1", Status: models.AssignmentStatusConfirmed}},
	}}
	svc := NewAvailabilityService(&mockAvailabilityStore{}, &mockQuotaResolver{quota: 3},
		&mockMembershipProvider{}, assignments, zap.NewNop(), 10)

	decision, err := svc.CanBlockDate(context.Background(), "t1", "v1", "m1", day)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.ReasonConflictingAssignment, decision.ReasonCode)
}

func TestAvailabilityServiceCheckAvailabilityBlockedWinsOverAssignment(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	store := &mockAvailabilityStore{records: map[string]*models.VolunteerAvailability{
		availabilityKey("t1", "v1", "m1"): newAvailabilityRecord(t, day),
	}}
	assignments := &mockConfirmedAssignments{byVolunteerDate: map[string][]models.Assignment{
		"v1|2026-09-14": {{ID: "a1", Status: models.AssignmentStatusConfirmed}},
	}}
	svc := NewAvailabilityService(store, &mockQuotaResolver{quota: 3},
		&mockMembershipProvider{}, assignments, zap.NewNop(), 10)

	decision, err := svc.CheckAvailability(context.Background(), "t1", "v1", "m1", day)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.ReasonDateBlocked, decision.ReasonCode)
}

func TestAvailabilityServiceCheckAvailabilityMembershipInactive(t *testing.T) {
	svc := NewAvailabilityService(&mockAvailabilityStore{}, &mockQuotaResolver{quota: 3},
		&mockMembershipProvider{inactive: map[string]bool{"v1": true}},
		&mockConfirmedAssignments{}, zap.NewNop(), 10)

	decision, err := svc.CheckAvailability(context.Background(), "t1", "v1", "m1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.ReasonMembershipInactive, decision.ReasonCode)
}

func TestAvailabilityServiceCheckAvailabilityAllowed(t *testing.T) {
	svc := newAvailabilityService(&mockAvailabilityStore{})

	decision, err := svc.CheckAvailability(context.Background(), "t1", "v1", "m1", time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.ReasonCode)
}
