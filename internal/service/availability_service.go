package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

type availabilityStore interface {
	FindActive(ctx context.Context, tenantID, volunteerID, ministryID string) (*models.VolunteerAvailability, error)
	Create(ctx context.Context, record *models.VolunteerAvailability) error
	ReplaceBlockedDates(ctx context.Context, id string, dates types.JSONText, readAt time.Time) (bool, error)
	Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error
}

type quotaResolver interface {
	MonthlyQuota(ctx context.Context, tenantID, volunteerID, ministryID string) (int, error)
}

type membershipProvider interface {
	IsActiveMember(ctx context.Context, tenantID, volunteerID, ministryID string, branchID *string) (bool, error)
}

type confirmedAssignmentReader interface {
	ListConfirmedByVolunteerOnDate(ctx context.Context, tenantID, volunteerID string, date time.Time) ([]models.Assignment, error)
}

// AvailabilityService owns blocked-date calendars and answers availability
// questions for the assignment engine and the substitution workflow.
//
// Contract note: blocking a calendar day that is already blocked fails with
// ALREADY_BLOCKED rather than silently succeeding, so the monthly quota count
// always matches the number of accepted block calls.
type AvailabilityService struct {
	store        availabilityStore
	quotas       quotaResolver
	members      membershipProvider
	assignments  confirmedAssignmentReader
	logger       *zap.Logger
	defaultQuota int
}

// NewAvailabilityService wires the availability dependencies.
func NewAvailabilityService(
	store availabilityStore,
	quotas quotaResolver,
	members membershipProvider,
	assignments confirmedAssignmentReader,
	logger *zap.Logger,
	defaultQuota int,
) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultQuota <= 0 {
		defaultQuota = 10
	}
	return &AvailabilityService{
		store:        store,
		quotas:       quotas,
		members:      members,
		assignments:  assignments,
		logger:       logger,
		defaultQuota: defaultQuota,
	}
}

// BlockDate marks one calendar day as blocked. Fails with QUOTA_EXCEEDED when
// the day's month is already at the quota, with ALREADY_BLOCKED when the
// exact day is present, and with CONFLICT when the day carries a confirmed
// assignment (freeing it goes through the substitution workflow). The
// availability record is created on first use.
func (s *AvailabilityService) BlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time, reason string) (*models.VolunteerAvailability, error) {
	day := models.DateOnly(date)

	confirmed, err := s.assignments.ListConfirmedByVolunteerOnDate(ctx, tenantID, volunteerID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmed assignments")
	}
	if len(confirmed) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			"volunteer holds a confirmed assignment on this date; request a substitution instead")
	}

	record, err := s.loadRecord(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return nil, err
	}

	entry := models.BlockedDate{
		Date:      day,
		Reason:    reason,
		IsBlocked: true,
		CreatedAt: time.Now().UTC(),
	}

	if record == nil {
		quota, err := s.resolveQuota(ctx, tenantID, volunteerID, ministryID)
		if err != nil {
			return nil, err
		}
		encoded, err := models.EncodeBlockedDates([]models.BlockedDate{entry})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode blocked dates")
		}
		record = &models.VolunteerAvailability{
			TenantID:               tenantID,
			VolunteerID:            volunteerID,
			MinistryID:             ministryID,
			BlockedDates:           encoded,
			MaxBlockedDaysPerMonth: quota,
		}
		if err := s.store.Create(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability record")
		}
		return record, nil
	}

	dates, err := record.Dates()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode blocked dates")
	}
	for _, existing := range dates {
		if existing.IsBlocked && models.SameDay(existing.Date, day) {
			return nil, appErrors.ErrAlreadyBlocked
		}
	}
	if countBlockedInMonth(dates, day) >= record.MaxBlockedDaysPerMonth {
		return nil, appErrors.Clone(appErrors.ErrQuotaExceeded,
			fmt.Sprintf("monthly quota of %d blocked days reached for %s", record.MaxBlockedDaysPerMonth, models.MonthKey(day)))
	}

	dates = append(dates, entry)
	if err := s.persistDates(ctx, record, dates); err != nil {
		return nil, err
	}
	return record, nil
}

// UnblockDate removes the matching blocked day. No-op when the day or the
// whole record is absent.
func (s *AvailabilityService) UnblockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) error {
	record, err := s.loadRecord(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	dates, err := record.Dates()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode blocked dates")
	}

	day := models.DateOnly(date)
	kept := make([]models.BlockedDate, 0, len(dates))
	removed := false
	for _, existing := range dates {
		if models.SameDay(existing.Date, day) {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return nil
	}
	return s.persistDates(ctx, record, kept)
}

// MonthlyBlockedDays reports quota usage for one calendar month (YYYY-MM).
func (s *AvailabilityService) MonthlyBlockedDays(ctx context.Context, tenantID, volunteerID, ministryID, month string) (*models.MonthlyBlockedDaysInfo, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be formatted as YYYY-MM")
	}

	record, err := s.loadRecord(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return nil, err
	}

	info := &models.MonthlyBlockedDaysInfo{Month: month}
	if record == nil {
		quota, err := s.resolveQuota(ctx, tenantID, volunteerID, ministryID)
		if err != nil {
			return nil, err
		}
		info.Quota = quota
		return info, nil
	}

	dates, err := record.Dates()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode blocked dates")
	}
	for _, existing := range dates {
		if existing.IsBlocked && models.MonthKey(existing.Date) == month {
			info.Used++
		}
	}
	info.Quota = record.MaxBlockedDaysPerMonth
	return info, nil
}

// Deactivate soft-deletes the availability record for the tuple.
func (s *AvailabilityService) Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error {
	if err := s.store.Deactivate(ctx, tenantID, volunteerID, ministryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate availability record")
	}
	return nil
}

// CanBlockDate decides whether a block request for the day would be accepted.
// A day already carrying a confirmed assignment cannot be blocked; freeing it
// goes through the substitution workflow instead.
func (s *AvailabilityService) CanBlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error) {
	day := models.DateOnly(date)

	confirmed, err := s.assignments.ListConfirmedByVolunteerOnDate(ctx, tenantID, volunteerID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmed assignments")
	}
	if len(confirmed) > 0 {
		return &models.AvailabilityDecision{
			ReasonCode: models.ReasonConflictingAssignment,
			Reason:     "volunteer holds a confirmed assignment on this date; request a substitution instead",
		}, nil
	}

	record, err := s.loadRecord(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		dates, err := record.Dates()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode blocked dates")
		}
		for _, existing := range dates {
			if existing.IsBlocked && models.SameDay(existing.Date, day) {
				return &models.AvailabilityDecision{
					ReasonCode: models.ReasonDateBlocked,
					Reason:     "date is already blocked",
				}, nil
			}
		}
		if countBlockedInMonth(dates, day) >= record.MaxBlockedDaysPerMonth {
			return &models.AvailabilityDecision{
				ReasonCode: models.ReasonQuotaExceeded,
				Reason:     fmt.Sprintf("monthly quota of %d blocked days reached", record.MaxBlockedDaysPerMonth),
			}, nil
		}
	}

	return &models.AvailabilityDecision{Allowed: true}, nil
}

// CheckAvailability answers whether a volunteer can serve the ministry on the
// day. Pure read: identical inputs always yield identical decisions.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error) {
	day := models.DateOnly(date)

	record, err := s.loadRecord(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		dates, err := record.Dates()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode blocked dates")
		}
		for _, existing := range dates {
			if existing.IsBlocked && models.SameDay(existing.Date, day) {
				return &models.AvailabilityDecision{
					ReasonCode: models.ReasonDateBlocked,
					Reason:     "volunteer blocked this date",
				}, nil
			}
		}
	}

	confirmed, err := s.assignments.ListConfirmedByVolunteerOnDate(ctx, tenantID, volunteerID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmed assignments")
	}
	if len(confirmed) > 0 {
		return &models.AvailabilityDecision{
			ReasonCode: models.ReasonConflictingAssignment,
			Reason:     "volunteer already holds a confirmed assignment on this date",
		}, nil
	}

	active, err := s.members.IsActiveMember(ctx, tenantID, volunteerID, ministryID, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check ministry membership")
	}
	if !active {
		return &models.AvailabilityDecision{
			ReasonCode: models.ReasonMembershipInactive,
			Reason:     "volunteer is not an active member of the ministry",
		}, nil
	}

	return &models.AvailabilityDecision{Allowed: true}, nil
}

func (s *AvailabilityService) loadRecord(ctx context.Context, tenantID, volunteerID, ministryID string) (*models.VolunteerAvailability, error) {
	record, err := s.store.FindActive(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability record")
	}
	return record, nil
}

func (s *AvailabilityService) resolveQuota(ctx context.Context, tenantID, volunteerID, ministryID string) (int, error) {
	quota, err := s.quotas.MonthlyQuota(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve monthly quota")
	}
	if quota <= 0 {
		quota = s.defaultQuota
	}
	return quota, nil
}

func (s *AvailabilityService) persistDates(ctx context.Context, record *models.VolunteerAvailability, dates []models.BlockedDate) error {
	encoded, err := models.EncodeBlockedDates(dates)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode blocked dates")
	}
	ok, err := s.store.ReplaceBlockedDates(ctx, record.ID, encoded, record.LastUpdated)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist blocked dates")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrConflict, "availability record changed concurrently, retry")
	}
	record.BlockedDates = encoded
	return nil
}

func countBlockedInMonth(dates []models.BlockedDate, day time.Time) int {
	month := models.MonthKey(day)
	count := 0
	for _, existing := range dates {
		if existing.IsBlocked && models.MonthKey(existing.Date) == month {
			count++
		}
	}
	return count
}
