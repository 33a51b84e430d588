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

func pendingSwapRequest() *models.SubstitutionRequest {
	return &models.SubstitutionRequest{
		ID:          "req-1",
		TenantID:    "t1",
		ScaleID:     "scale-1",
		RequesterID: "v-req",
		TargetID:    "v-target",
		FunctionID:  "f1",
		Status:      models.SubstitutionStatusPending,
		ExpiresAt:   time.Now().UTC().Add(24 * time.Hour),
	}
}

func TestSubstitutionRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubstitutionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO substitution_requests")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), pendingSwapRequest())
	require.True(t, errors.Is(err, appErrors.ErrDuplicateRequest))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryTransitionIfPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubstitutionRepository(db)
	reason := "out of town"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests")).
		WithArgs(models.SubstitutionStatusRejected, &reason, "t1", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.TransitionIfPending(context.Background(), "t1", "req-1", models.SubstitutionStatusRejected, &reason)
	require.NoError(t, err)
	require.True(t, ok)

	// already resolved: the status guard matches zero rows
	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests")).
		WithArgs(models.SubstitutionStatusCancelled, nil, "t1", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.TransitionIfPending(context.Background(), "t1", "req-1", models.SubstitutionStatusCancelled, nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryExecuteSwapCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubstitutionRepository(db)
	req := pendingSwapRequest()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests")).
		WithArgs("t1", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scale_assignments")).
		WithArgs("t1", "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scale_assignments")).
		WithArgs(sqlmock.AnyArg(), "t1", "scale-1", "f1", "v-target").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scales SET version = version + 1")).
		WithArgs("t1", "scale-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ExecuteSwap(context.Background(), req, "a1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryExecuteSwapLosesStatusRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubstitutionRepository(db)
	req := pendingSwapRequest()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests")).
		WithArgs("t1", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ExecuteSwap(context.Background(), req, "a1")
	require.True(t, errors.Is(err, appErrors.ErrAlreadyResponded))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryExecuteSwapRollsBackOnUnconfirmedAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubstitutionRepository(db)
	req := pendingSwapRequest()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE substitution_requests")).
		WithArgs("t1", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scale_assignments")).
		WithArgs("t1", "a1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ExecuteSwap(context.Background(), req, "a1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
