package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// BlockedDate is a single day a volunteer marked as unavailable for a ministry.
type BlockedDate struct {
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// VolunteerAvailability holds the blocked-date calendar for one
// (tenant, volunteer, ministry) tuple. At most one active row exists per tuple;
// rows are deactivated, never deleted.
type VolunteerAvailability struct {
	ID                     string         `db:"id" json:"id"`
	TenantID               string         `db:"tenant_id" json:"tenant_id"`
	BranchID               *string        `db:"branch_id" json:"branch_id,omitempty"`
	VolunteerID            string         `db:"volunteer_id" json:"volunteer_id"`
	MinistryID             string         `db:"ministry_id" json:"ministry_id"`
	BlockedDates           types.JSONText `db:"blocked_dates" json:"blocked_dates"`
	MaxBlockedDaysPerMonth int            `db:"max_blocked_days_per_month" json:"max_blocked_days_per_month"`
	IsActive               bool           `db:"is_active" json:"is_active"`
	LastUpdated            time.Time      `db:"last_updated" json:"last_updated"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
}

// Dates decodes the blocked-date list.
func (v *VolunteerAvailability) Dates() ([]BlockedDate, error) {
	if len(v.BlockedDates) == 0 {
		return nil, nil
	}
	var dates []BlockedDate
	if err := json.Unmarshal(v.BlockedDates, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// EncodeBlockedDates marshals a blocked-date list for storage.
func EncodeBlockedDates(dates []BlockedDate) (types.JSONText, error) {
	if dates == nil {
		dates = []BlockedDate{}
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}

// MonthlyBlockedDaysInfo reports quota usage for one calendar month.
type MonthlyBlockedDaysInfo struct {
	Month string `json:"month"`
	Used  int    `json:"used"`
	Quota int    `json:"quota"`
}

// AvailabilityDecision is the outcome of an availability or block check.
// ReasonCode values are stable API contract strings.
type AvailabilityDecision struct {
	Allowed    bool   `json:"allowed"`
	ReasonCode string `json:"reason_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Stable reason codes for availability decisions.
const (
	ReasonDateBlocked           = "date_blocked"
	ReasonConflictingAssignment = "conflicting_assignment"
	ReasonMembershipInactive    = "membership_inactive"
	ReasonQuotaExceeded         = "quota_exceeded"
)

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// MonthKey renders the calendar month of a date as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
