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

type assignmentService interface {
	GetScale(ctx context.Context, tenantID, scaleID string) (*dto.ScaleDetail, error)
	GenerateScaleAssignments(ctx context.Context, tenantID, scaleID string) (*dto.ScaleSuggestionReport, error)
	ConfirmAssignments(ctx context.Context, tenantID, scaleID string, req dto.ConfirmAssignmentsRequest) ([]models.Assignment, error)
	PublishScale(ctx context.Context, tenantID, scaleID string) (*dto.ScaleSuggestionReport, error)
	CompleteScale(ctx context.Context, tenantID, scaleID string) error
	CancelScale(ctx context.Context, tenantID, scaleID string) error
}

// ScaleHandler exposes the suggestion engine and scale lifecycle endpoints.
type ScaleHandler struct {
	service assignmentService
}

// NewScaleHandler creates a new scale handler.
func NewScaleHandler(svc assignmentService) *ScaleHandler {
	return &ScaleHandler{service: svc}
}

// Get godoc
// @Summary Get a scale
// @Description A scale with its assignment roster
// @Tags Scales
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scales/{id} [get]
func (h *ScaleHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.GetScale(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Suggestions godoc
// @Summary Generate assignment suggestions
// @Description Ranked volunteer suggestions per function slot with a coverage report
// @Tags Scales
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scales/{id}/suggestions [get]
func (h *ScaleHandler) Suggestions(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.GenerateScaleAssignments(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Confirm godoc
// @Summary Confirm assignments
// @Description Persist chosen suggestions as confirmed assignments on a draft scale
// @Tags Scales
// @Accept json
// @Produce json
// @Param id path string true "Scale ID"
// @Param payload body dto.ConfirmAssignmentsRequest true "Assignment picks"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scales/{id}/assignments [post]
func (h *ScaleHandler) Confirm(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ConfirmAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	assignments, err := h.service.ConfirmAssignments(c.Request.Context(), claims.TenantID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignments)
}

// Publish godoc
// @Summary Publish a scale
// @Description Move a draft scale to published; gaps in required coverage are reported
// @Tags Scales
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scales/{id}/publish [post]
func (h *ScaleHandler) Publish(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.PublishScale(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Complete godoc
// @Summary Complete a scale
// @Description Mark a published scale as occurred and write ledger entries
// @Tags Scales
// @Produce json
// @Param id path string true "Scale ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /scales/{id}/complete [post]
func (h *ScaleHandler) Complete(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.CompleteScale(c.Request.Context(), claims.TenantID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel a scale
// @Description Cancel a published scale and write cancelled ledger entries
// @Tags Scales
// @Produce json
// @Param id path string true "Scale ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /scales/{id}/cancel [post]
func (h *ScaleHandler) Cancel(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.CancelScale(c.Request.Context(), claims.TenantID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
