package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

type mockHistoryStore struct {
	entries   []models.ServiceHistoryEntry
	duplicate bool
	stats     models.VolunteerServiceStats
	count     int
}

func (m *mockHistoryStore) Insert(ctx context.Context, entry *models.ServiceHistoryEntry) error {
	if m.duplicate {
		return appErrors.ErrDuplicateEntry
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryStore) Stats(ctx context.Context, tenantID, volunteerID string, from, to *time.Time) (*models.VolunteerServiceStats, error) {
	stats := m.stats
	return &stats, nil
}

func (m *mockHistoryStore) CountSince(ctx context.Context, tenantID, volunteerID, ministryID string, since time.Time) (int, error) {
	return m.count, nil
}

func TestHistoryServiceRecord(t *testing.T) {
	store := &mockHistoryStore{}
	svc := NewHistoryService(store, nil, zap.NewNop())

	entry, err := svc.Record(context.Background(), "t1", dto.RecordServiceHistoryRequest{
		VolunteerID: "v1", ScaleID: "scale-1", FunctionID: "f1", MinistryID: "m1",
		ServiceDate: "2026-09-14", Status: "completed", Notes: "arrived early",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ServiceHistoryStatusCompleted, entry.Status)
	require.NotNil(t, entry.Notes)
	assert.Equal(t, "arrived early", *entry.Notes)
	require.Len(t, store.entries, 1)
}

func TestHistoryServiceRecordRejectsBadStatus(t *testing.T) {
	svc := NewHistoryService(&mockHistoryStore{}, nil, zap.NewNop())

	_, err := svc.Record(context.Background(), "t1", dto.RecordServiceHistoryRequest{
		VolunteerID: "v1", ScaleID: "scale-1", FunctionID: "f1", MinistryID: "m1",
		ServiceDate: "2026-09-14", Status: "late",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHistoryServiceRecordDuplicate(t *testing.T) {
	svc := NewHistoryService(&mockHistoryStore{duplicate: true}, nil, zap.NewNop())

	_, err := svc.Record(context.Background(), "t1", dto.RecordServiceHistoryRequest{
		VolunteerID: "v1", ScaleID: "scale-1", FunctionID: "f1", MinistryID: "m1",
		ServiceDate: "2026-09-14", Status: "missed",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEntry.Code, appErrors.FromError(err).Code)
}

func TestHistoryServiceVolunteerStats(t *testing.T) {
	store := &mockHistoryStore{stats: models.VolunteerServiceStats{
		TotalServices: 8, CompletedServices: 6, MissedServices: 1, CancelledServices: 1,
	}}
	svc := NewHistoryService(store, nil, zap.NewNop())

	stats, err := svc.VolunteerStats(context.Background(), "t1", "v1", dto.ServiceStatsQuery{})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, stats.AttendanceRate, 0.01)
}

func TestHistoryServiceVolunteerStatsEmptyLedger(t *testing.T) {
	svc := NewHistoryService(&mockHistoryStore{}, nil, zap.NewNop())

	stats, err := svc.VolunteerStats(context.Background(), "t1", "v1", dto.ServiceStatsQuery{})
	require.NoError(t, err)
	assert.Zero(t, stats.TotalServices)
	assert.Zero(t, stats.AttendanceRate)
}

func TestHistoryServiceVolunteerStatsInvertedRange(t *testing.T) {
	svc := NewHistoryService(&mockHistoryStore{}, nil, zap.NewNop())

	_, err := svc.VolunteerStats(context.Background(), "t1", "v1", dto.ServiceStatsQuery{
		From: "2026-09-14", To: "2026-09-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
