package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

type serviceHistoryStore interface {
	Insert(ctx context.Context, entry *models.ServiceHistoryEntry) error
	Stats(ctx context.Context, tenantID, volunteerID string, from, to *time.Time) (*models.VolunteerServiceStats, error)
	CountSince(ctx context.Context, tenantID, volunteerID, ministryID string, since time.Time) (int, error)
}

// HistoryService is the append-only ledger of realized service outcomes. It
// feeds the ranking engine's fair-rotation signal.
type HistoryService struct {
	store     serviceHistoryStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHistoryService constructs the ledger service.
func NewHistoryService(store serviceHistoryStore, validate *validator.Validate, logger *zap.Logger) *HistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{store: store, validator: validate, logger: logger}
}

// Record appends one outcome. Duplicate (scale, volunteer, function) entries
// surface DUPLICATE_ENTRY from the unique index.
func (s *HistoryService) Record(ctx context.Context, tenantID string, req dto.RecordServiceHistoryRequest) (*models.ServiceHistoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid history payload")
	}
	status := models.ServiceHistoryStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be completed, missed or cancelled")
	}
	serviceDate, err := time.Parse("2006-01-02", req.ServiceDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "serviceDate must be YYYY-MM-DD")
	}

	entry := &models.ServiceHistoryEntry{
		TenantID:    tenantID,
		VolunteerID: req.VolunteerID,
		ScaleID:     req.ScaleID,
		FunctionID:  req.FunctionID,
		MinistryID:  req.MinistryID,
		ServiceDate: serviceDate,
		Status:      status,
	}
	if req.Notes != "" {
		entry.Notes = &req.Notes
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record history entry")
	}
	return entry, nil
}

// VolunteerStats aggregates a volunteer's record over an optional date range.
// The attendance rate is completed over total; an empty ledger reads as zero,
// not an error.
func (s *HistoryService) VolunteerStats(ctx context.Context, tenantID, volunteerID string, query dto.ServiceStatsQuery) (*models.VolunteerServiceStats, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stats query")
	}

	var from, to *time.Time
	if query.From != "" {
		t, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
		}
		from = &t
	}
	if query.To != "" {
		t, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}

	stats, err := s.store.Stats(ctx, tenantID, volunteerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate service stats")
	}
	if stats.TotalServices > 0 {
		stats.AttendanceRate = float64(stats.CompletedServices) / float64(stats.TotalServices) * 100
	}
	return stats, nil
}

// CountServicesSince counts ledger entries inside a trailing window, the
// rotation signal the suggestion ranking uses.
func (s *HistoryService) CountServicesSince(ctx context.Context, tenantID, volunteerID, ministryID string, since time.Time) (int, error) {
	count, err := s.store.CountSince(ctx, tenantID, volunteerID, ministryID, since)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count services")
	}
	return count, nil
}
