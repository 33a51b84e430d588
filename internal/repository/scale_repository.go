package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntix/roster-api/internal/models"
)

// ScaleRepository persists scales and their assignments.
type ScaleRepository struct {
	db *sqlx.DB
}

// NewScaleRepository constructs the repository.
func NewScaleRepository(db *sqlx.DB) *ScaleRepository {
	return &ScaleRepository{db: db}
}

const scaleColumns = `id, tenant_id, branch_id, ministry_id, service_date, status, auto_assign, version, function_slots, created_at, updated_at`

// FindByID loads a scale scoped to its tenant.
func (r *ScaleRepository) FindByID(ctx context.Context, tenantID, scaleID string) (*models.Scale, error) {
	query := fmt.Sprintf(`SELECT %s FROM scales WHERE tenant_id = $1 AND id = $2`, scaleColumns)
	var scale models.Scale
	if err := r.db.GetContext(ctx, &scale, query, tenantID, scaleID); err != nil {
		return nil, err
	}
	return &scale, nil
}

// TransitionStatus moves the scale between lifecycle phases. The previous
// status is part of the predicate so concurrent transitions cannot race; zero
// matched rows surfaces as sql.ErrNoRows for the service to map.
func (r *ScaleRepository) TransitionStatus(ctx context.Context, tenantID, scaleID string, from, to models.ScaleStatus) error {
	const query = `UPDATE scales SET status = $1, version = version + 1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, to, tenantID, scaleID, from)
	if err != nil {
		return fmt.Errorf("transition scale status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition scale status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const assignmentColumns = `id, tenant_id, scale_id, function_id, volunteer_id, status, created_at, updated_at`

// ListAssignments returns every assignment of a scale.
func (r *ScaleRepository) ListAssignments(ctx context.Context, tenantID, scaleID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM scale_assignments WHERE tenant_id = $1 AND scale_id = $2 ORDER BY function_id, volunteer_id`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, tenantID, scaleID); err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindAssignment returns a volunteer's assignment on a scale, or sql.ErrNoRows.
func (r *ScaleRepository) FindAssignment(ctx context.Context, tenantID, scaleID, volunteerID string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM scale_assignments WHERE tenant_id = $1 AND scale_id = $2 AND volunteer_id = $3`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, tenantID, scaleID, volunteerID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListConfirmedByVolunteerOnDate returns a volunteer's confirmed assignments
// across all ministries whose scale falls on the given calendar day. This is
// the cross-ministry double-booking guard of the availability validator.
func (r *ScaleRepository) ListConfirmedByVolunteerOnDate(ctx context.Context, tenantID, volunteerID string, date time.Time) ([]models.Assignment, error) {
	const query = `SELECT a.id, a.tenant_id, a.scale_id, a.function_id, a.volunteer_id, a.status, a.created_at, a.updated_at
		FROM scale_assignments a
		JOIN scales s ON s.id = a.scale_id
		WHERE a.tenant_id = $1 AND a.volunteer_id = $2 AND a.status = 'confirmed'
		  AND s.service_date::date = $3::date
		  AND s.status IN ('draft', 'published')`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, tenantID, volunteerID, models.DateOnly(date)); err != nil {
		return nil, err
	}
	return assignments, nil
}

// CreateAssignments inserts confirmed assignments and bumps the scale version
// in a single transaction so suggestion caches keyed by version fall stale.
func (r *ScaleRepository) CreateAssignments(ctx context.Context, tenantID, scaleID string, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignments tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO scale_assignments (id, tenant_id, scale_id, function_id, volunteer_id, status, created_at, updated_at)
		VALUES (:id, :tenant_id, :scale_id, :function_id, :volunteer_id, :status, :created_at, :updated_at)
		ON CONFLICT (scale_id, function_id, volunteer_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		assignments[i].TenantID = tenantID
		assignments[i].ScaleID = scaleID
		if assignments[i].CreatedAt.IsZero() {
			assignments[i].CreatedAt = now
		}
		assignments[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, assignments[i]); err != nil {
			err = fmt.Errorf("insert assignment: %w", err)
			return err
		}
	}

	const bump = `UPDATE scales SET version = version + 1, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	if _, err = tx.ExecContext(ctx, bump, tenantID, scaleID); err != nil {
		err = fmt.Errorf("bump scale version: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignments tx: %w", err)
	}
	return nil
}
