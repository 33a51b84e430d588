package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
	"github.com/voluntix/roster-api/pkg/response"
)

type substitutionService interface {
	FindSwapCandidates(ctx context.Context, tenantID, requesterID, scaleID string) ([]models.SwapCandidate, error)
	CreateSwapRequest(ctx context.Context, tenantID, requesterID string, req dto.CreateSwapRequest) (*models.SubstitutionRequest, error)
	RespondToSwapRequest(ctx context.Context, tenantID, actorID, requestID string, resp dto.RespondSwapRequest) (*models.SubstitutionRequest, error)
	CancelSwapRequest(ctx context.Context, tenantID, actorID, requestID string) (*models.SubstitutionRequest, error)
	GetSwapRequest(ctx context.Context, tenantID, requestID string) (*models.SubstitutionRequest, error)
	ListSwapRequests(ctx context.Context, tenantID, scaleID string) ([]models.SubstitutionRequest, error)
}

// SubstitutionHandler exposes the peer-to-peer swap workflow endpoints.
type SubstitutionHandler struct {
	service substitutionService
}

// NewSubstitutionHandler creates a new substitution handler.
func NewSubstitutionHandler(svc substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{service: svc}
}

// Candidates godoc
// @Summary List swap candidates
// @Description Qualified peers for the caller's assignment with advisory availability
// @Tags Substitutions
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scales/{id}/swap-candidates [get]
func (h *SubstitutionHandler) Candidates(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	candidates, err := h.service.FindSwapCandidates(c.Request.Context(), claims.TenantID, claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}

// Create godoc
// @Summary Create swap request
// @Description Open a pending substitution request against the caller's confirmed assignment
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSwapRequest true "Swap request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.service.CreateSwapRequest(c.Request.Context(), claims.TenantID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Respond godoc
// @Summary Respond to swap request
// @Description Accept or reject a pending substitution request as its target
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RespondSwapRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /substitutions/{id}/respond [post]
func (h *SubstitutionHandler) Respond(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RespondSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.service.RespondToSwapRequest(c.Request.Context(), claims.TenantID, claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel swap request
// @Description Withdraw a pending substitution request as its requester
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.CancelSwapRequest(c.Request.Context(), claims.TenantID, claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Get godoc
// @Summary Get swap request
// @Description Load one substitution request
// @Tags Substitutions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.GetSwapRequest(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ListByScale godoc
// @Summary List swap requests for a scale
// @Tags Substitutions
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Router /scales/{id}/substitutions [get]
func (h *SubstitutionHandler) ListByScale(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListSwapRequests(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
