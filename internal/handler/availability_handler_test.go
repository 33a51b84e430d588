package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/voluntix/roster-api/internal/middleware"
	"github.com/voluntix/roster-api/internal/models"
	appErrors "github.com/voluntix/roster-api/pkg/errors"
)

type availabilityServiceMock struct {
	record      *models.VolunteerAvailability
	blockErr    error
	decision    *models.AvailabilityDecision
	lastBlocked string
}

func (m *availabilityServiceMock) BlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time, reason string) (*models.VolunteerAvailability, error) {
	if m.blockErr != nil {
		return nil, m.blockErr
	}
	m.lastBlocked = volunteerID + "|" + date.Format("2006-01-02")
	return m.record, nil
}

func (m *availabilityServiceMock) UnblockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) error {
	return nil
}

func (m *availabilityServiceMock) MonthlyBlockedDays(ctx context.Context, tenantID, volunteerID, ministryID, month string) (*models.MonthlyBlockedDaysInfo, error) {
	return &models.MonthlyBlockedDaysInfo{Month: month, Used: 1, Quota: 3}, nil
}

func (m *availabilityServiceMock) Deactivate(ctx context.Context, tenantID, volunteerID, ministryID string) error {
	return nil
}

func (m *availabilityServiceMock) CanBlockDate(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error) {
	return m.decision, nil
}

func (m *availabilityServiceMock) CheckAvailability(ctx context.Context, tenantID, volunteerID, ministryID string, date time.Time) (*models.AvailabilityDecision, error) {
	return m.decision, nil
}

func testClaimsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: user, TenantID: "t1"})
		}
		c.Next()
	}
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func buildAvailabilityRouter(svc *availabilityServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(testClaimsMiddleware())
	h := NewAvailabilityHandler(svc)
	r.POST("/availability/blocked-dates", h.BlockDate)
	r.GET("/availability/blocked-days", h.MonthlyBlockedDays)
	r.GET("/availability/can-block", h.CanBlock)
	r.GET("/availability/check", h.Check)
	return r
}

func TestAvailabilityRoutes(t *testing.T) {
	t.Run("block date success", func(t *testing.T) {
		svc := &availabilityServiceMock{record: &models.VolunteerAvailability{ID: "avail-1"}}
		router := buildAvailabilityRouter(svc)

		req, _ := http.NewRequest(http.MethodPost, "/availability/blocked-dates",
			bytes.NewBufferString(`{"ministryId":"m1","date":"2026-09-14","reason":"vacation"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"avail-1"`)
		require.Equal(t, "v1|2026-09-14", svc.lastBlocked)
	})

	t.Run("block date unauthorized", func(t *testing.T) {
		router := buildAvailabilityRouter(&availabilityServiceMock{})

		req, _ := http.NewRequest(http.MethodPost, "/availability/blocked-dates",
			bytes.NewBufferString(`{"ministryId":"m1","date":"2026-09-14"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		require.Contains(t, resp.Body.String(), appErrors.ErrUnauthorized.Code)
	})

	t.Run("block date malformed date", func(t *testing.T) {
		router := buildAvailabilityRouter(&availabilityServiceMock{})

		req, _ := http.NewRequest(http.MethodPost, "/availability/blocked-dates",
			bytes.NewBufferString(`{"ministryId":"m1","date":"14/09/2026"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.Contains(t, resp.Body.String(), appErrors.ErrValidation.Code)
	})

	t.Run("block date service conflict maps to envelope", func(t *testing.T) {
		svc := &availabilityServiceMock{
			blockErr: appErrors.Clone(appErrors.ErrConflict, "volunteer holds a confirmed assignment on this date; request a substitution instead"),
		}
		router := buildAvailabilityRouter(svc)

		req, _ := http.NewRequest(http.MethodPost, "/availability/blocked-dates",
			bytes.NewBufferString(`{"ministryId":"m1","date":"2026-09-14"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusConflict, resp.Code)
		require.Contains(t, resp.Body.String(), appErrors.ErrConflict.Code)
		require.Contains(t, resp.Body.String(), "request a substitution")
	})

	t.Run("can-block returns decision", func(t *testing.T) {
		svc := &availabilityServiceMock{decision: &models.AvailabilityDecision{
			ReasonCode: models.ReasonConflictingAssignment,
			Reason:     "volunteer holds a confirmed assignment on this date; request a substitution instead",
		}}
		router := buildAvailabilityRouter(svc)

		req, _ := http.NewRequest(http.MethodGet, "/availability/can-block?ministryId=m1&date=2026-09-14", nil)
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), models.ReasonConflictingAssignment)
	})

	t.Run("can-block requires params", func(t *testing.T) {
		router := buildAvailabilityRouter(&availabilityServiceMock{})

		req, _ := http.NewRequest(http.MethodGet, "/availability/can-block?date=2026-09-14", nil)
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("blocked-days defaults volunteer to caller", func(t *testing.T) {
		router := buildAvailabilityRouter(&availabilityServiceMock{})

		req, _ := http.NewRequest(http.MethodGet, "/availability/blocked-days?ministryId=m1&month=2026-09", nil)
		req.Header.Set("X-Test-User", "v1")
		resp := performRequest(router, req)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"2026-09"`)
	})
}
