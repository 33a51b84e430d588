package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/voluntix/roster-api/internal/models"
)

func TestScaleRepositoryTransitionStatusGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScaleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scales SET status = $1, version = version + 1")).
		WithArgs(models.ScaleStatusPublished, "t1", "scale-1", models.ScaleStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.TransitionStatus(context.Background(), "t1", "scale-1", models.ScaleStatusDraft, models.ScaleStatusPublished))

	// the from-status predicate matches zero rows once someone else moved it
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scales SET status = $1, version = version + 1")).
		WithArgs(models.ScaleStatusPublished, "t1", "scale-1", models.ScaleStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.TransitionStatus(context.Background(), "t1", "scale-1", models.ScaleStatusDraft, models.ScaleStatusPublished)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScaleRepositoryListConfirmedByVolunteerOnDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScaleRepository(db)
	now := time.Now().UTC()
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "scale_id", "function_id", "volunteer_id", "status", "created_at", "updated_at"}).
		AddRow("a1", "t1", "scale-1", "f1", "v1", "confirmed", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN scales s ON s.id = a.scale_id")).
		WithArgs("t1", "v1", day).
		WillReturnRows(rows)

	assignments, err := repo.ListConfirmedByVolunteerOnDate(context.Background(), "t1", "v1", day)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, models.AssignmentStatusConfirmed, assignments[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScaleRepositoryCreateAssignmentsBumpsVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScaleRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scale_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scale_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scales SET version = version + 1")).
		WithArgs("t1", "scale-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assignments := []models.Assignment{
		{FunctionID: "f1", VolunteerID: "v1", Status: models.AssignmentStatusConfirmed},
		{FunctionID: "f1", VolunteerID: "v2", Status: models.AssignmentStatusConfirmed},
	}
	require.NoError(t, repo.CreateAssignments(context.Background(), "t1", "scale-1", assignments))
	require.NotEmpty(t, assignments[0].ID)
	require.Equal(t, "t1", assignments[0].TenantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScaleRepositoryCreateAssignmentsEmptyNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScaleRepository(db)
	require.NoError(t, repo.CreateAssignments(context.Background(), "t1", "scale-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
