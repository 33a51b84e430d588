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

// ServiceHistoryRepository persists the append-only service ledger.
type ServiceHistoryRepository struct {
	db *sqlx.DB
}

// NewServiceHistoryRepository constructs the repository.
func NewServiceHistoryRepository(db *sqlx.DB) *ServiceHistoryRepository {
	return &ServiceHistoryRepository{db: db}
}

// Insert appends one entry. The unique index on
// (volunteer_id, scale_id, function_id) keeps one record per realized
// assignment; violations map to DUPLICATE_ENTRY.
func (r *ServiceHistoryRepository) Insert(ctx context.Context, entry *models.ServiceHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	const query = `INSERT INTO service_history (id, tenant_id, volunteer_id, scale_id, function_id, ministry_id, service_date, status, notes, recorded_at)
		VALUES (:id, :tenant_id, :volunteer_id, :scale_id, :function_id, :ministry_id, :service_date, :status, :notes, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.ErrDuplicateEntry
		}
		return fmt.Errorf("insert service history entry: %w", err)
	}
	return nil
}

// Stats aggregates a volunteer's outcomes, optionally bounded by date range.
func (r *ServiceHistoryRepository) Stats(ctx context.Context, tenantID, volunteerID string, from, to *time.Time) (*models.VolunteerServiceStats, error) {
	query := `SELECT
			COUNT(*) AS total_services,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_services,
			COUNT(*) FILTER (WHERE status = 'missed') AS missed_services,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_services
		FROM service_history
		WHERE tenant_id = $1 AND volunteer_id = $2`
	args := []interface{}{tenantID, volunteerID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND service_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND service_date <= $%d", len(args))
	}

	var stats models.VolunteerServiceStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountSince counts a volunteer's realized services in a ministry from the
// given instant onward. Feeds the ranking engine's load-spreading key.
func (r *ServiceHistoryRepository) CountSince(ctx context.Context, tenantID, volunteerID, ministryID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM service_history
		WHERE tenant_id = $1 AND volunteer_id = $2 AND ministry_id = $3 AND service_date >= $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, tenantID, volunteerID, ministryID, since); err != nil {
		return 0, err
	}
	return count, nil
}
