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

type historyService interface {
	Record(ctx context.Context, tenantID string, req dto.RecordServiceHistoryRequest) (*models.ServiceHistoryEntry, error)
	VolunteerStats(ctx context.Context, tenantID, volunteerID string, query dto.ServiceStatsQuery) (*models.VolunteerServiceStats, error)
}

// HistoryHandler exposes the service-history ledger endpoints.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(svc historyService) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// Record godoc
// @Summary Record a service outcome
// @Description Append one realized outcome to the ledger
// @Tags History
// @Accept json
// @Produce json
// @Param payload body dto.RecordServiceHistoryRequest true "History entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /history [post]
func (h *HistoryHandler) Record(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RecordServiceHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.service.Record(c.Request.Context(), claims.TenantID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Stats godoc
// @Summary Volunteer service stats
// @Description Aggregate attendance record for a volunteer, optionally date-ranged
// @Tags History
// @Produce json
// @Param id path string true "Volunteer ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{id}/stats [get]
func (h *HistoryHandler) Stats(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.ServiceStatsQuery{From: c.Query("from"), To: c.Query("to")}
	stats, err := h.service.VolunteerStats(c.Request.Context(), claims.TenantID, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
