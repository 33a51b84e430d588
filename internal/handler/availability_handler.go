package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voluntix/roster-api/internal/dto"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
	"github.com/voluntix/roster-api/pkg/response"
)

type availabilityService interface {
	BlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time, reason string) (*models.VolunteerAvailability, error)
	UnblockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) error
	MonthlyBlockedDays(ctx context.Context, tenantID, volunteerID, ministryID, month string) (*models.MonthlyBlockedDaysInfo, error)
	Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error
	CanBlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error)
	CheckAvailability(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error)
}

// AvailabilityHandler exposes the self-service blocked-dates endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// BlockDate godoc
// @Summary Block a date
// @Description Mark one calendar day as unavailable for the caller in a ministry
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.BlockDateRequest true "Block date payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availability/blocked-dates [post]
func (h *AvailabilityHandler) BlockDate(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.BlockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	record, err := h.service.BlockDate(c.Request.Context(), claims.TenantID, claims.UserID, req.MinistryID, date, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UnblockDate godoc
// @Summary Unblock a date
// @Description Remove a previously blocked day; absent dates are a no-op
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.UnblockDateRequest true "Unblock date payload"
// @Success 204
// @Router /availability/blocked-dates [delete]
func (h *AvailabilityHandler) UnblockDate(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UnblockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	if err := h.service.UnblockDate(c.Request.Context(), claims.TenantID, claims.UserID, req.MinistryID, date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MonthlyBlockedDays godoc
// @Summary Monthly blocked-days usage
// @Description Quota usage for a volunteer in a ministry for one month
// @Tags Availability
// @Produce json
// @Param ministryId query string true "Ministry ID"
// @Param month query string true "Month (YYYY-MM)"
// @Param volunteerId query string false "Volunteer ID (defaults to caller)"
// @Success 200 {object} response.Envelope
// @Router /availability/blocked-days [get]
func (h *AvailabilityHandler) MonthlyBlockedDays(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ministryID := c.Query("ministryId")
	month := c.Query("month")
	if ministryID == "" || month == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ministryId and month are required"))
		return
	}
	volunteerID := c.DefaultQuery("volunteerId", claims.UserID)

	info, err := h.service.MonthlyBlockedDays(c.Request.Context(), claims.TenantID, volunteerID, ministryID, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// CanBlock godoc
// @Summary Pre-flight a block request
// @Description Whether blocking the day would be accepted; confirmed assignments route to substitutions
// @Tags Availability
// @Produce json
// @Param ministryId query string true "Ministry ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param volunteerId query string false "Volunteer ID (defaults to caller)"
// @Success 200 {object} response.Envelope
// @Router /availability/can-block [get]
func (h *AvailabilityHandler) CanBlock(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ministryID := c.Query("ministryId")
	rawDate := c.Query("date")
	if ministryID == "" || rawDate == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ministryId and date are required"))
		return
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	volunteerID := c.DefaultQuery("volunteerId", claims.UserID)

	decision, err := h.service.CanBlockDate(c.Request.Context(), claims.TenantID, volunteerID, ministryID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Check godoc
// @Summary Check availability
// @Description Advisory availability of a volunteer on a date
// @Tags Availability
// @Produce json
// @Param ministryId query string true "Ministry ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param volunteerId query string false "Volunteer ID (defaults to caller)"
// @Success 200 {object} response.Envelope
// @Router /availability/check [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ministryID := c.Query("ministryId")
	rawDate := c.Query("date")
	if ministryID == "" || rawDate == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ministryId and date are required"))
		return
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	volunteerID := c.DefaultQuery("volunteerId", claims.UserID)

	decision, err := h.service.CheckAvailability(c.Request.Context(), claims.TenantID, volunteerID, ministryID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Deactivate godoc
// @Summary Deactivate availability record
// @Description Soft-delete the caller's availability record for a ministry
// @Tags Availability
// @Produce json
// @Param ministryId query string true "Ministry ID"
// @Success 204
// @Router /availability [delete]
func (h *AvailabilityHandler) Deactivate(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ministryID := c.Query("ministryId")
	if ministryID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ministryId is required"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), claims.TenantID, claims.UserID, ministryID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
