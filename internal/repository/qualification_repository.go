package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/voluntix/roster-api/internal/models"
)

// QualificationRepository reads qualification and membership data owned by the
// identity/role collaborator. The core consumes these tables read-only.
type QualificationRepository struct {
	db *sqlx.DB
}

// NewQualificationRepository constructs the repository.
func NewQualificationRepository(db *sqlx.DB) *QualificationRepository {
	return &QualificationRepository{db: db}
}

// GetApprovedFunctions returns the functions a volunteer is approved for in a
// ministry, with skill level.
func (r *QualificationRepository) GetApprovedFunctions(ctx context.Context, tenantID, volunteerID, ministryID string) ([]models.Qualification, error) {
	const query = `SELECT tenant_id, volunteer_id, ministry_id, function_id, level, approved
		FROM volunteer_qualifications
		WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND approved = TRUE
		ORDER BY function_id`
	var quals []models.Qualification
	if err := r.db.SelectContext(ctx, &quals, query, tenantID, volunteerID, ministryID); err != nil {
		return nil, err
	}
	return quals, nil
}

// ListApprovedVolunteers enumerates active members approved for a function in
// a ministry, optionally restricted to a branch. Unapproved qualifications and
// inactive members never surface.
func (r *QualificationRepository) ListApprovedVolunteers(ctx context.Context, tenantID, ministryID, functionID string, branchID *string) ([]models.Qualification, error) {
	query := `SELECT q.tenant_id, q.volunteer_id, q.ministry_id, q.function_id, q.level, q.approved
		FROM volunteer_qualifications q
		JOIN ministry_members m
		  ON m.tenant_id = q.tenant_id AND m.volunteer_id = q.volunteer_id AND m.ministry_id = q.ministry_id
		WHERE q.tenant_id = $1 AND q.ministry_id = $2 AND q.function_id = $3
		  AND q.approved = TRUE AND m.is_active = TRUE`
	args := []interface{}{tenantID, ministryID, functionID}
	if branchID != nil {
		args = append(args, *branchID)
		query += ` AND m.branch_id = $4`
	}
	query += ` ORDER BY q.volunteer_id`

	var quals []models.Qualification
	if err := r.db.SelectContext(ctx, &quals, query, args...); err != nil {
		return nil, err
	}
	return quals, nil
}

// IsActiveMember reports whether a volunteer holds active membership in the
// ministry (and branch when given).
func (r *QualificationRepository) IsActiveMember(ctx context.Context, tenantID, volunteerID, ministryID string, branchID *string) (bool, error) {
	query := `SELECT COUNT(*) FROM ministry_members
		WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND is_active = TRUE`
	args := []interface{}{tenantID, volunteerID, ministryID}
	if branchID != nil {
		args = append(args, *branchID)
		query += ` AND branch_id = $4`
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// MinistryFunctionIDs returns the function ids a ministry defines. Used as a
// data-integrity guard against scale templates referencing unknown functions.
func (r *QualificationRepository) MinistryFunctionIDs(ctx context.Context, tenantID, ministryID string) (map[string]struct{}, error) {
	const query = `SELECT function_id FROM ministry_functions WHERE tenant_id = $1 AND ministry_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, tenantID, ministryID); err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// MonthlyQuota resolves the blocked-day quota for a volunteer in a ministry:
// the per-volunteer override when present, otherwise the ministry setting.
// Zero means no setting exists and the caller applies its configured default.
func (r *QualificationRepository) MonthlyQuota(ctx context.Context, tenantID, volunteerID, ministryID string) (int, error) {
	const query = `SELECT COALESCE(
			(SELECT max_blocked_days_override FROM ministry_members
				WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND max_blocked_days_override IS NOT NULL),
			(SELECT max_blocked_days_per_month FROM ministry_settings
				WHERE tenant_id = $1 AND ministry_id = $3),
			0)`
	var quota int
	if err := r.db.GetContext(ctx, &quota, query, tenantID, volunteerID, ministryID); err != nil {
		return 0, err
	}
	return quota, nil
}
