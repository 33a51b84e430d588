package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/require"

	"github.com/voluntix/roster-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "branch_id", "volunteer_id", "ministry_id", "blocked_dates", "max_blocked_days_per_month", "is_active", "last_updated", "created_at"}).
		AddRow("avail-1", "t1", nil, "v1", "m1", []byte(`[]`), 5, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, branch_id, volunteer_id, ministry_id, blocked_dates")).
		WithArgs("t1", "v1", "m1").
		WillReturnRows(rows)

	record, err := repo.FindActive(context.Background(), "t1", "v1", "m1")
	require.NoError(t, err)
	require.Equal(t, "avail-1", record.ID)
	require.Equal(t, 5, record.MaxBlockedDaysPerMonth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryFindActiveMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, branch_id, volunteer_id")).
		WithArgs("t1", "v1", "m1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "t1", "v1", "m1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO volunteer_availability")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.VolunteerAvailability{TenantID: "t1", VolunteerID: "v1", MinistryID: "m1", MaxBlockedDaysPerMonth: 5}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.True(t, record.IsActive)
	require.JSONEq(t, `[]`, string(record.BlockedDates))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceBlockedDatesGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	readAt := time.Now().UTC()
	dates := types.JSONText(`[{"date":"2026-09-14T00:00:00Z","is_blocked":true}]`)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE volunteer_availability")).
		WithArgs(dates, "avail-1", readAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.ReplaceBlockedDates(context.Background(), "avail-1", dates, readAt)
	require.NoError(t, err)
	require.True(t, ok)

	// a stale read timestamp matches zero rows and reports a lost race
	mock.ExpectExec(regexp.QuoteMeta("UPDATE volunteer_availability")).
		WithArgs(dates, "avail-1", readAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.ReplaceBlockedDates(context.Background(), "avail-1", dates, readAt)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE volunteer_availability")).
		WithArgs("t1", "v1", "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "t1", "v1", "m1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
