package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

const pqUniqueViolation = "23505"

// SubstitutionRepository persists swap requests and owns the atomic swap
// execution against the scale's assignments.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

const substitutionColumns = `id, tenant_id, scale_id, requester_id, target_id, function_id, reason, status, rejection_reason, expires_at, created_at, updated_at`

// Insert creates a pending request. The partial unique index on
// (tenant_id, scale_id, requester_id) WHERE status = 'pending' closes the
// check-then-insert race; a violation maps to DUPLICATE_REQUEST.
func (r *SubstitutionRepository) Insert(ctx context.Context, req *models.SubstitutionRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	req.Status = models.SubstitutionStatusPending

	const query = `INSERT INTO substitution_requests (id, tenant_id, scale_id, requester_id, target_id, function_id, reason, status, rejection_reason, expires_at, created_at, updated_at)
		VALUES (:id, :tenant_id, :scale_id, :requester_id, :target_id, :function_id, :reason, :status, :rejection_reason, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.ErrDuplicateRequest
		}
		return fmt.Errorf("insert substitution request: %w", err)
	}
	return nil
}

// FindByID loads a request scoped to its tenant.
func (r *SubstitutionRepository) FindByID(ctx context.Context, tenantID, requestID string) (*models.SubstitutionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM substitution_requests WHERE tenant_id = $1 AND id = $2`, substitutionColumns)
	var req models.SubstitutionRequest
	if err := r.db.GetContext(ctx, &req, query, tenantID, requestID); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByScale returns all requests for a scale, newest first.
func (r *SubstitutionRepository) ListByScale(ctx context.Context, tenantID, scaleID string) ([]models.SubstitutionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM substitution_requests WHERE tenant_id = $1 AND scale_id = $2 ORDER BY created_at DESC`, substitutionColumns)
	var requests []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &requests, query, tenantID, scaleID); err != nil {
		return nil, err
	}
	return requests, nil
}

// TransitionIfPending flips a request into a terminal state only while it is
// still pending. False means another writer already resolved it.
func (r *SubstitutionRepository) TransitionIfPending(ctx context.Context, tenantID, requestID string, status models.SubstitutionStatus, rejectionReason *string) (bool, error) {
	const query = `UPDATE substitution_requests
		SET status = $1, rejection_reason = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, rejectionReason, tenantID, requestID)
	if err != nil {
		return false, fmt.Errorf("transition substitution request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition substitution request rows: %w", err)
	}
	return affected > 0, nil
}

// ExecuteSwap applies an accepted swap as one transaction: the request flips
// to accepted (guarded on pending), the requester's assignment becomes
// swapped_out, the target gains a confirmed assignment for the same function,
// and the scale version is bumped. A concurrent accept loses the status guard
// and gets ALREADY_RESPONDED; partial application cannot survive the rollback.
func (r *SubstitutionRepository) ExecuteSwap(ctx context.Context, req *models.SubstitutionRequest, requesterAssignmentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const accept = `UPDATE substitution_requests
		SET status = 'accepted', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'pending'`
	result, execErr := tx.ExecContext(ctx, accept, req.TenantID, req.ID)
	if execErr != nil {
		err = fmt.Errorf("accept substitution request: %w", execErr)
		return err
	}
	affected, raErr := result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("accept substitution request rows: %w", raErr)
		return err
	}
	if affected == 0 {
		err = appErrors.ErrAlreadyResponded
		return err
	}

	const swapOut = `UPDATE scale_assignments
		SET status = 'swapped_out', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'confirmed'`
	result, execErr = tx.ExecContext(ctx, swapOut, req.TenantID, requesterAssignmentID)
	if execErr != nil {
		err = fmt.Errorf("swap out requester assignment: %w", execErr)
		return err
	}
	affected, raErr = result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("swap out requester assignment rows: %w", raErr)
		return err
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrConflict, "requester assignment is no longer confirmed")
		return err
	}

	const confirmTarget = `INSERT INTO scale_assignments (id, tenant_id, scale_id, function_id, volunteer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'confirmed', NOW(), NOW())
		ON CONFLICT (scale_id, function_id, volunteer_id)
		DO UPDATE SET status = 'confirmed', updated_at = NOW()`
	if _, execErr = tx.ExecContext(ctx, confirmTarget, uuid.NewString(), req.TenantID, req.ScaleID, req.FunctionID, req.TargetID); execErr != nil {
		err = fmt.Errorf("confirm target assignment: %w", execErr)
		return err
	}

	const bump = `UPDATE scales SET version = version + 1, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	if _, execErr = tx.ExecContext(ctx, bump, req.TenantID, req.ScaleID); execErr != nil {
		err = fmt.Errorf("bump scale version: %w", execErr)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit swap tx: %w", err)
	}
	return nil
}
