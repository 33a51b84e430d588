package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
	"github.com/voluntix/roster-api/pkg/events"
)

type substitutionStore interface {
	Insert(ctx context.Context, req *models.SubstitutionRequest) error
	FindByID(ctx context.Context, tenantID, requestID string) (*models.SubstitutionRequest, error)
	ListByScale(ctx context.Context, tenantID, scaleID string) ([]models.SubstitutionRequest, error)
	TransitionIfPending(ctx context.Context, tenantID, requestID string, status models.SubstitutionStatus, rejectionReason *string) (bool, error)
	ExecuteSwap(ctx context.Context, req *models.SubstitutionRequest, requesterAssignmentID string) error
}

type assignmentFinder interface {
	FindByID(ctx context.Context, tenantID, scaleID string) (*models.Scale, error)
	FindAssignment(ctx context.Context, tenantID, scaleID, volunteerID string) (*models.Assignment, error)
}

// SubstitutionConfig tunes the swap workflow.
type SubstitutionConfig struct {
	RequestTTL time.Duration
}

// SubstitutionService runs the peer-to-peer swap workflow: a rostered
// volunteer asks a qualified peer to take over a confirmed assignment.
// Expiry is lazy; requests past their horizon are flipped on first touch.
type SubstitutionService struct {
	requests     substitutionStore
	scales       assignmentFinder
	quals        qualificationProvider
	availability availabilityChecker
	publisher    events.Publisher
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          SubstitutionConfig
}

// NewSubstitutionService wires the workflow's dependencies.
func NewSubstitutionService(
	requests substitutionStore,
	scales assignmentFinder,
	quals qualificationProvider,
	availability availabilityChecker,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SubstitutionConfig,
) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = 24 * time.Hour
	}
	return &SubstitutionService{
		requests:     requests,
		scales:       scales,
		quals:        quals,
		availability: availability,
		publisher:    publisher,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// FindSwapCandidates lists peers qualified for the requester's function on the
// scale, annotated with advisory availability. The list is informational; the
// binding check happens when a target accepts.
func (s *SubstitutionService) FindSwapCandidates(ctx context.Context, tenantID, requesterID, scaleID string) ([]models.SwapCandidate, error) {
	scale, assignment, err := s.requesterAssignment(ctx, tenantID, scaleID, requesterID)
	if err != nil {
		return nil, err
	}

	quals, err := s.quals.ListApprovedVolunteers(ctx, tenantID, scale.MinistryID, assignment.FunctionID, scale.BranchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qualified volunteers")
	}

	candidates := make([]models.SwapCandidate, 0, len(quals))
	for _, qual := range quals {
		if qual.VolunteerID == requesterID {
			continue
		}
		decision, err := s.availability.CheckAvailability(ctx, tenantID, qual.VolunteerID, scale.MinistryID, scale.ServiceDate)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, models.SwapCandidate{
			VolunteerID: qual.VolunteerID,
			Level:       qual.Level,
			IsAvailable: decision.Allowed,
			ReasonCode:  decision.ReasonCode,
			Reason:      decision.Reason,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].IsAvailable != candidates[j].IsAvailable {
			return candidates[i].IsAvailable
		}
		if candidates[i].Level.Rank() != candidates[j].Level.Rank() {
			return candidates[i].Level.Rank() > candidates[j].Level.Rank()
		}
		return candidates[i].VolunteerID < candidates[j].VolunteerID
	})
	return candidates, nil
}

// CreateSwapRequest opens a pending request from the requester's confirmed
// assignment towards a qualified target. One pending request per requester per
// scale; the database index backs that up under races.
func (s *SubstitutionService) CreateSwapRequest(ctx context.Context, tenantID, requesterID string, req dto.CreateSwapRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request payload")
	}
	if req.TargetID == requesterID {
		return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "cannot request a swap with yourself")
	}

	scale, assignment, err := s.requesterAssignment(ctx, tenantID, req.ScaleID, requesterID)
	if err != nil {
		return nil, err
	}
	if scale.Status != models.ScaleStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "swaps are only possible on published scales")
	}

	approved, err := s.targetApproved(ctx, tenantID, req.TargetID, scale.MinistryID, assignment.FunctionID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "target volunteer is not approved for this function")
	}
	if existing, err := s.scales.FindAssignment(ctx, tenantID, req.ScaleID, req.TargetID); err == nil &&
		existing.Status == models.AssignmentStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "target volunteer is already rostered on this scale")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check target assignment")
	}

	request := &models.SubstitutionRequest{
		TenantID:    tenantID,
		ScaleID:     req.ScaleID,
		RequesterID: requesterID,
		TargetID:    req.TargetID,
		FunctionID:  assignment.FunctionID,
		Reason:      req.Reason,
		ExpiresAt:   time.Now().UTC().Add(s.cfg.RequestTTL),
	}
	if err := s.requests.Insert(ctx, request); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateRequest) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap request")
	}

	if s.metrics != nil {
		s.metrics.RecordSwapRequestCreated()
	}
	s.publish(ctx, events.TypeSubstitutionRequestCreated, tenantID, map[string]interface{}{
		"request_id":   request.ID,
		"scale_id":     request.ScaleID,
		"requester_id": request.RequesterID,
		"target_id":    request.TargetID,
	})
	return request, nil
}

// RespondToSwapRequest records the target's accept or reject. Checks run in a
// fixed order so callers get stable error codes: not found, wrong responder,
// already resolved, expired. A failed availability re-check on accept leaves
// the request pending so the requester can seek another target.
func (s *SubstitutionService) RespondToSwapRequest(ctx context.Context, tenantID, actorID, requestID string, resp dto.RespondSwapRequest) (*models.SubstitutionRequest, error) {
	if err := s.validator.Struct(resp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap response payload")
	}

	request, err := s.loadRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.TargetID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the targeted volunteer may respond")
	}
	if request.Status.Terminal() {
		return nil, appErrors.ErrAlreadyResponded
	}
	if request.ExpiredAt(time.Now().UTC()) {
		s.expireRequest(ctx, request)
		return nil, appErrors.ErrRequestExpired
	}

	switch models.SwapDecision(resp.Decision) {
	case models.SwapDecisionRejected:
		var reason *string
		if resp.RejectionReason != "" {
			reason = &resp.RejectionReason
		}
		ok, err := s.requests.TransitionIfPending(ctx, tenantID, requestID, models.SubstitutionStatusRejected, reason)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject swap request")
		}
		if !ok {
			return nil, appErrors.ErrAlreadyResponded
		}
		request.Status = models.SubstitutionStatusRejected
		request.RejectionReason = reason

	case models.SwapDecisionAccepted:
		scale, err := s.loadScale(ctx, tenantID, request.ScaleID)
		if err != nil {
			return nil, err
		}
		decision, err := s.availability.CheckAvailability(ctx, tenantID, request.TargetID, scale.MinistryID, scale.ServiceDate)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			return nil, appErrors.Clone(appErrors.ErrTargetUnavailable, decision.Reason)
		}

		assignment, err := s.scales.FindAssignment(ctx, tenantID, request.ScaleID, request.RequesterID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "requester no longer holds an assignment on this scale")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requester assignment")
		}
		if err := s.requests.ExecuteSwap(ctx, request, assignment.ID); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to execute swap")
		}
		request.Status = models.SubstitutionStatusAccepted
		if s.metrics != nil {
			s.metrics.RecordSwapExecuted()
		}
		s.publish(ctx, events.TypeSwapExecuted, tenantID, map[string]interface{}{
			"request_id": request.ID,
			"scale_id":   request.ScaleID,
			"out":        request.RequesterID,
			"in":         request.TargetID,
		})

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be accepted or rejected")
	}

	if s.metrics != nil {
		s.metrics.RecordSwapRequestResponded(resp.Decision)
	}
	s.publish(ctx, events.TypeSubstitutionRequestResponded, tenantID, map[string]interface{}{
		"request_id": request.ID,
		"decision":   resp.Decision,
	})
	return request, nil
}

// CancelSwapRequest lets the requester withdraw a still-pending request.
func (s *SubstitutionService) CancelSwapRequest(ctx context.Context, tenantID, actorID, requestID string) (*models.SubstitutionRequest, error) {
	request, err := s.loadRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester may cancel")
	}
	if request.Status.Terminal() {
		return nil, appErrors.ErrAlreadyResponded
	}
	if request.ExpiredAt(time.Now().UTC()) {
		s.expireRequest(ctx, request)
		return nil, appErrors.ErrRequestExpired
	}

	ok, err := s.requests.TransitionIfPending(ctx, tenantID, requestID, models.SubstitutionStatusCancelled, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel swap request")
	}
	if !ok {
		return nil, appErrors.ErrAlreadyResponded
	}
	request.Status = models.SubstitutionStatusCancelled
	return request, nil
}

// GetSwapRequest loads a request, surfacing lazy expiry.
func (s *SubstitutionService) GetSwapRequest(ctx context.Context, tenantID, requestID string) (*models.SubstitutionRequest, error) {
	request, err := s.loadRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.ExpiredAt(time.Now().UTC()) {
		s.expireRequest(ctx, request)
		request.Status = models.SubstitutionStatusExpired
	}
	return request, nil
}

// ListSwapRequests returns a scale's requests with lazy expiry applied.
func (s *SubstitutionService) ListSwapRequests(ctx context.Context, tenantID, scaleID string) ([]models.SubstitutionRequest, error) {
	requests, err := s.requests.ListByScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swap requests")
	}
	now := time.Now().UTC()
	for i := range requests {
		if requests[i].ExpiredAt(now) {
			s.expireRequest(ctx, &requests[i])
			requests[i].Status = models.SubstitutionStatusExpired
		}
	}
	return requests, nil
}

// expireRequest opportunistically persists the expired transition. Losing the
// race to another writer is fine; the guard keeps terminal states immutable.
func (s *SubstitutionService) expireRequest(ctx context.Context, request *models.SubstitutionRequest) {
	if _, err := s.requests.TransitionIfPending(ctx, request.TenantID, request.ID, models.SubstitutionStatusExpired, nil); err != nil {
		s.logger.Warn("failed to persist request expiry",
			zap.String("request_id", request.ID),
			zap.Error(err))
	}
}

func (s *SubstitutionService) publish(ctx context.Context, eventType, tenantID string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.Event{Type: eventType, TenantID: tenantID, Payload: payload})
}

func (s *SubstitutionService) loadRequest(ctx context.Context, tenantID, requestID string) (*models.SubstitutionRequest, error) {
	request, err := s.requests.FindByID(ctx, tenantID, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRequestNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	return request, nil
}

func (s *SubstitutionService) loadScale(ctx context.Context, tenantID, scaleID string) (*models.Scale, error) {
	scale, err := s.scales.FindByID(ctx, tenantID, scaleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrScaleNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scale")
	}
	return scale, nil
}

func (s *SubstitutionService) requesterAssignment(ctx context.Context, tenantID, scaleID, requesterID string) (*models.Scale, *models.Assignment, error) {
	scale, err := s.loadScale(ctx, tenantID, scaleID)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.scales.FindAssignment(ctx, tenantID, scaleID, requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "requester holds no assignment on this scale")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requester assignment")
	}
	if assignment.Status != models.AssignmentStatusConfirmed {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "requester assignment is not confirmed")
	}
	return scale, assignment, nil
}

func (s *SubstitutionService) targetApproved(ctx context.Context, tenantID, targetID, ministryID, functionID string) (bool, error) {
	quals, err := s.quals.GetApprovedFunctions(ctx, tenantID, targetID, ministryID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target qualifications")
	}
	for _, qual := range quals {
		if qual.FunctionID == functionID {
			return true, nil
		}
	}
	return false, nil
}
