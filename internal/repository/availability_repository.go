package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/voluntix/roster-api/internal/models"
)

// AvailabilityRepository persists volunteer blocked-date calendars. Every
// mutation touches exactly one row; concurrent writers are serialised by an
// optimistic last_updated guard rather than a lock.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, tenant_id, branch_id, volunteer_id, ministry_id, blocked_dates, max_blocked_days_per_month, is_active, last_updated, created_at`

// FindActive returns the single active record for the tuple, or sql.ErrNoRows.
func (r *AvailabilityRepository) FindActive(ctx context.Context, tenantID, volunteerID, ministryID string) (*models.VolunteerAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM volunteer_availability WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND is_active = TRUE`, availabilityColumns)
	var record models.VolunteerAvailability
	if err := r.db.GetContext(ctx, &record, query, tenantID, volunteerID, ministryID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new availability record. The partial unique index on
// (tenant_id, volunteer_id, ministry_id) WHERE is_active enforces the
// one-active-record invariant.
func (r *AvailabilityRepository) Create(ctx context.Context, record *models.VolunteerAvailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.LastUpdated = now
	record.IsActive = true
	if len(record.BlockedDates) == 0 {
		record.BlockedDates = types.JSONText(`[]`)
	}

	const query = `INSERT INTO volunteer_availability (id, tenant_id, branch_id, volunteer_id, ministry_id, blocked_dates, max_blocked_days_per_month, is_active, last_updated, created_at)
		VALUES (:id, :tenant_id, :branch_id, :volunteer_id, :ministry_id, :blocked_dates, :max_blocked_days_per_month, :is_active, :last_updated, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert volunteer availability: %w", err)
	}
	return nil
}

// ReplaceBlockedDates swaps the blocked-date list on one record. The update
// only applies when last_updated still matches the value the caller read; a
// false return means another writer got there first and the caller must re-read.
func (r *AvailabilityRepository) ReplaceBlockedDates(ctx context.Context, id string, dates types.JSONText, readAt time.Time) (bool, error) {
	const query = `UPDATE volunteer_availability
		SET blocked_dates = $1, last_updated = NOW()
		WHERE id = $2 AND last_updated = $3 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, dates, id, readAt)
	if err != nil {
		return false, fmt.Errorf("replace blocked dates: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace blocked dates rows: %w", err)
	}
	return affected > 0, nil
}

// Deactivate soft-deletes the active record for the tuple. No-op when absent.
func (r *AvailabilityRepository) Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error {
	const query = `UPDATE volunteer_availability
		SET is_active = FALSE, last_updated = NOW()
		WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND is_active = TRUE`
	if _, err := r.db.ExecContext(ctx, query, tenantID, volunteerID, ministryID); err != nil {
		return fmt.Errorf("deactivate volunteer availability: %w", err)
	}
	return nil
}
