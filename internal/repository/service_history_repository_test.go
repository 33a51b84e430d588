package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

func TestServiceHistoryRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewServiceHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO service_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ServiceHistoryEntry{
		TenantID:    "t1",
		VolunteerID: "v1",
		ScaleID:     "scale-1",
		FunctionID:  "f1",
		MinistryID:  "m1",
		ServiceDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Status:      models.ServiceHistoryStatusCompleted,
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.RecordedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceHistoryRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewServiceHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO service_history")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), &models.ServiceHistoryEntry{TenantID: "t1", VolunteerID: "v1"})
	require.True(t, errors.Is(err, appErrors.ErrDuplicateEntry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceHistoryRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewServiceHistoryRepository(db)
	rows := sqlmock.NewRows([]string{"total_services", "completed_services", "missed_services", "cancelled_services"}).
		AddRow(8, 6, 1, 1)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'completed')")).
		WithArgs("t1", "v1").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "t1", "v1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 8, stats.TotalServices)
	require.Equal(t, 6, stats.CompletedServices)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceHistoryRepositoryStatsWithRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewServiceHistoryRepository(db)
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"total_services", "completed_services", "missed_services", "cancelled_services"}).
		AddRow(3, 3, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("AND service_date >= $3 AND service_date <= $4")).
		WithArgs("t1", "v1", from, to).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "t1", "v1", &from, &to)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalServices)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceHistoryRepositoryCountSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewServiceHistoryRepository(db)
	since := time.Now().UTC().Add(-90 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM service_history")).
		WithArgs("t1", "v1", "m1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountSince(context.Background(), "t1", "v1", "m1", since)
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
