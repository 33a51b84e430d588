package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
	"github.com/voluntix/roster-api/pkg/events"
)

type scaleStore interface {
	FindByID(ctx context.Context, tenantID, scaleID string) (*models.Scale, error)
	ListAssignments(ctx context.Context, tenantID, scaleID string) ([]models.Assignment, error)
	TransitionStatus(ctx context.Context, tenantID, scaleID string, from, to models.ScaleStatus) error
	CreateAssignments(ctx context.Context, tenantID, scaleID string, assignments []models.Assignment) error
}

type qualificationProvider interface {
	GetApprovedFunctions(ctx context.Context, tenantID, volunteerID, ministryID string) ([]models.Qualification, error)
	ListApprovedVolunteers(ctx context.Context, tenantID, ministryID, functionID string, branchID *string) ([]models.Qualification, error)
	MinistryFunctionIDs(ctx context.Context, tenantID, ministryID string) (map[string]struct{}, error)
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error)
}

type serviceHistoryCounter interface {
	CountSince(ctx context.Context, tenantID, volunteerID, ministryID string, since time.Time) (int, error)
}

type serviceHistoryAppender interface {
	Insert(ctx context.Context, entry *models.ServiceHistoryEntry) error
}

// AssignmentConfig tunes the suggestion engine.
type AssignmentConfig struct {
	HistoryWindow      time.Duration
	SuggestionCacheTTL time.Duration
}

// AssignmentService ranks volunteers into the functional slots of a scale and
// drives the scale lifecycle. Suggestion generation is read-only; a separate
// confirmation step persists chosen assignments.
type AssignmentService struct {
	scales       scaleStore
	quals        qualificationProvider
	availability availabilityChecker
	history      serviceHistoryCounter
	ledger       serviceHistoryAppender
	cache        *CacheService
	publisher    events.Publisher
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          AssignmentConfig
}

// NewAssignmentService wires the engine's dependencies.
func NewAssignmentService(
	scales scaleStore,
	quals qualificationProvider,
	availability availabilityChecker,
	history serviceHistoryCounter,
	ledger serviceHistoryAppender,
	cache *CacheService,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AssignmentConfig,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 90 * 24 * time.Hour
	}
	if cfg.SuggestionCacheTTL <= 0 {
		cfg.SuggestionCacheTTL = 2 * time.Minute
	}
	return &AssignmentService{
		scales:       scales,
		quals:        quals,
		availability: availability,
		history:      history,
		ledger:       ledger,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// GenerateScaleAssignments produces ranked suggestions per function slot and a
// coverage report. It never mutates the scale. Reports are cached keyed by the
// scale version, so any assignment mutation invalidates them implicitly.
func (s *AssignmentService) GenerateScaleAssignments(ctx context.Context, tenantID, scaleID string) (*dto.ScaleSuggestionReport, error) {
	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, err
	}

	cacheKey := suggestionCacheKey(tenantID, scaleID, scale.Version)
	if s.cache.Enabled() {
		var cached dto.ScaleSuggestionReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	report, err := s.buildReport(ctx, scale)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.SuggestionCacheTTL); err != nil {
			s.logger.Warn("suggestion cache write failed", zap.String("scale_id", scaleID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordSuggestionRun(report.Coverage)
	}
	return report, nil
}

func (s *AssignmentService) buildReport(ctx context.Context, scale *models.Scale) (*dto.ScaleSuggestionReport, error) {
	slots, err := scale.Slots()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode function slots")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scale has no function slots")
	}

	ministryFns, err := s.quals.MinistryFunctionIDs(ctx, scale.TenantID, scale.MinistryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ministry functions")
	}
	for _, slot := range slots {
		if _, ok := ministryFns[slot.FunctionID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrMinistryMismatch,
				fmt.Sprintf("function %s is not defined by ministry %s", slot.FunctionID, scale.MinistryID))
		}
	}

	since := time.Now().UTC().Add(-s.cfg.HistoryWindow)
	report := &dto.ScaleSuggestionReport{
		ScaleID:      scale.ID,
		ScaleVersion: scale.Version,
		Suggestions:  make([]dto.FunctionSuggestions, 0, len(slots)),
	}

	requiredTotal := 0
	fillableTotal := 0
	for _, slot := range slots {
		candidates, err := s.rankedCandidates(ctx, scale, slot.FunctionID, since, "")
		if err != nil {
			return nil, err
		}

		limit := slot.RequiredSlots + slot.OptionalSlots
		suggested := candidates
		if len(suggested) > limit {
			suggested = suggested[:limit]
		}

		report.Suggestions = append(report.Suggestions, dto.FunctionSuggestions{
			FunctionID:     slot.FunctionID,
			RequiredSlots:  slot.RequiredSlots,
			OptionalSlots:  slot.OptionalSlots,
			IsRequired:     slot.IsRequired,
			AvailableCount: len(candidates),
			Volunteers:     suggested,
		})

		requiredTotal += slot.RequiredSlots
		if len(candidates) < slot.RequiredSlots {
			fillableTotal += len(candidates)
		} else {
			fillableTotal += slot.RequiredSlots
		}
		report.TotalVolunteersAvailable += len(candidates)
	}

	report.TotalVolunteersNeeded = requiredTotal
	if requiredTotal > 0 {
		report.Coverage = int(math.Round(float64(fillableTotal) / float64(requiredTotal) * 100))
	} else {
		report.Coverage = 100
	}
	report.RequiresApproval = report.Coverage < 100 || !scale.AutoAssign
	return report, nil
}

// rankedCandidates runs the eligibility pipeline for one function: approved
// qualifications, availability filter, then the composite ranking
// (level desc, trailing service count asc, volunteer id asc).
func (s *AssignmentService) rankedCandidates(ctx context.Context, scale *models.Scale, functionID string, since time.Time, exclude string) ([]dto.SuggestedVolunteer, error) {
	quals, err := s.quals.ListApprovedVolunteers(ctx, scale.TenantID, scale.MinistryID, functionID, scale.BranchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qualified volunteers")
	}

	candidates := make([]dto.SuggestedVolunteer, 0, len(quals))
	for _, qual := range quals {
		if qual.VolunteerID == exclude {
			continue
		}
		decision, err := s.availability.CheckAvailability(ctx, scale.TenantID, qual.VolunteerID, scale.MinistryID, scale.ServiceDate)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			continue
		}
		count, err := s.history.CountSince(ctx, scale.TenantID, qual.VolunteerID, scale.MinistryID, since)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recent services")
		}
		candidates = append(candidates, dto.SuggestedVolunteer{
			VolunteerID:    qual.VolunteerID,
			Level:          qual.Level,
			RecentServices: count,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Level.Rank() != candidates[j].Level.Rank() {
			return candidates[i].Level.Rank() > candidates[j].Level.Rank()
		}
		if candidates[i].RecentServices != candidates[j].RecentServices {
			return candidates[i].RecentServices < candidates[j].RecentServices
		}
		return candidates[i].VolunteerID < candidates[j].VolunteerID
	})
	return candidates, nil
}

// GetScale returns a scale with its assignment roster.
func (s *AssignmentService) GetScale(ctx context.Context, tenantID, scaleID string) (*dto.ScaleDetail, error) {
	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.scales.ListAssignments(ctx, tenantID, scaleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return &dto.ScaleDetail{Scale: *scale, Assignments: assignments}, nil
}

// ConfirmAssignments persists chosen suggestions as confirmed assignments on a
// draft scale, re-validating each pick against current eligibility.
func (s *AssignmentService) ConfirmAssignments(ctx context.Context, tenantID, scaleID string, req dto.ConfirmAssignmentsRequest) ([]models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}

	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, err
	}
	if scale.Status != models.ScaleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignments can only be confirmed on a draft scale")
	}

	assignments := make([]models.Assignment, 0, len(req.Picks))
	for _, pick := range req.Picks {
		approved, err := s.isApprovedFor(ctx, tenantID, pick.VolunteerID, scale.MinistryID, pick.FunctionID)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("volunteer %s is not approved for function %s", pick.VolunteerID, pick.FunctionID))
		}
		decision, err := s.availability.CheckAvailability(ctx, tenantID, pick.VolunteerID, scale.MinistryID, scale.ServiceDate)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("volunteer %s is unavailable: %s", pick.VolunteerID, decision.Reason))
		}
		assignments = append(assignments, models.Assignment{
			FunctionID:  pick.FunctionID,
			VolunteerID: pick.VolunteerID,
			Status:      models.AssignmentStatusConfirmed,
		})
	}

	if err := s.scales.CreateAssignments(ctx, tenantID, scaleID, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
	}
	return assignments, nil
}

// PublishScale moves a draft scale to published. When required coverage is
// incomplete the scale-published-with-gaps fact is emitted for notifiers.
func (s *AssignmentService) PublishScale(ctx context.Context, tenantID, scaleID string) (*dto.ScaleSuggestionReport, error) {
	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, err
	}
	if scale.Status != models.ScaleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft scales can be published")
	}

	report, err := s.buildReport(ctx, scale)
	if err != nil {
		return nil, err
	}

	if err := s.scales.TransitionStatus(ctx, tenantID, scaleID, models.ScaleStatusDraft, models.ScaleStatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "scale is no longer a draft")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish scale")
	}

	if report.Coverage < 100 && s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeScalePublishedWithGaps,
			TenantID: tenantID,
			Payload: map[string]interface{}{
				"scale_id": scaleID,
				"coverage": report.Coverage,
			},
		})
	}
	return report, nil
}

// CompleteScale marks a published scale as occurred and appends completed
// ledger entries for every confirmed assignment. Individual outcomes can be
// corrected afterwards through the history endpoint.
func (s *AssignmentService) CompleteScale(ctx context.Context, tenantID, scaleID string) error {
	return s.closeScale(ctx, tenantID, scaleID, models.ScaleStatusOccurred, models.ServiceHistoryStatusCompleted)
}

// CancelScale cancels a published scale and appends cancelled ledger entries.
func (s *AssignmentService) CancelScale(ctx context.Context, tenantID, scaleID string) error {
	return s.closeScale(ctx, tenantID, scaleID, models.ScaleStatusCancelled, models.ServiceHistoryStatusCancelled)
}

func (s *AssignmentService) closeScale(ctx context.Context, tenantID, scaleID string, to models.ScaleStatus, outcome models.ServiceHistoryStatus) error {
	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return err
	}
	if scale.Status != models.ScaleStatusPublished {
		return appErrors.Clone(appErrors.ErrConflict, "only published scales can be closed")
	}

	if err := s.scales.TransitionStatus(ctx, tenantID, scaleID, models.ScaleStatusPublished, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "scale is no longer published")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close scale")
	}

	assignments, err := s.scales.ListAssignments(ctx, tenantID, scaleID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentStatusConfirmed {
			continue
		}
		entry := &models.ServiceHistoryEntry{
			TenantID:    tenantID,
			VolunteerID: assignment.VolunteerID,
			ScaleID:     scaleID,
			FunctionID:  assignment.FunctionID,
			MinistryID:  scale.MinistryID,
			ServiceDate: scale.ServiceDate,
			Status:      outcome,
		}
		if err := s.ledger.Insert(ctx, entry); err != nil {
			if errors.Is(err, appErrors.ErrDuplicateEntry) {
				continue
			}
			s.logger.Error("ledger append failed",
				zap.String("scale_id", scaleID),
				zap.String("volunteer_id", assignment.VolunteerID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *AssignmentService) loadScale(ctx context.Context, tenantID, scaleID string) (*models.Scale, error) {
	scale, err := s.scales.FindByID(ctx, tenantID, scaleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrScaleNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scale")
	}
	return scale, nil
}

func (s *AssignmentService) isApprovedFor(ctx context.Context, tenantID, volunteerID, ministryID, functionID string) (bool, error) {
	quals, err := s.quals.GetApprovedFunctions(ctx, tenantID, volunteerID, ministryID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
	}
	for _, qual := range quals {
		if qual.FunctionID == functionID {
			return true, nil
		}
	}
	return false, nil
}

func suggestionCacheKey(tenantID, scaleID string, version int) string {
	return fmt.Sprintf("suggestions:%s:%s:v%d", tenantID, scaleID, version)
}
