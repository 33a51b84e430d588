package models

import "time"

// ServiceHistoryStatus is the realized outcome of one assignment.
type ServiceHistoryStatus string

const (
	ServiceHistoryStatusCompleted ServiceHistoryStatus = "completed"
	ServiceHistoryStatusMissed    ServiceHistoryStatus = "missed"
	ServiceHistoryStatusCancelled ServiceHistoryStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s ServiceHistoryStatus) Valid() bool {
	switch s {
	case ServiceHistoryStatusCompleted, ServiceHistoryStatusMissed, ServiceHistoryStatusCancelled:
		return true
	default:
		return false
	}
}

// ServiceHistoryEntry is an append-only record of a realized service outcome.
// Entries are never updated in place; corrections are new entries.
type ServiceHistoryEntry struct {
	ID          string               `db:"id" json:"id"`
	TenantID    string               `db:"tenant_id" json:"tenant_id"`
	VolunteerID string               `db:"volunteer_id" json:"volunteer_id"`
	ScaleID     string               `db:"scale_id" json:"scale_id"`
	FunctionID  string               `db:"function_id" json:"function_id"`
	MinistryID  string               `db:"ministry_id" json:"ministry_id"`
	ServiceDate time.Time            `db:"service_date" json:"service_date"`
	Status      ServiceHistoryStatus `db:"status" json:"status"`
	Notes       *string              `db:"notes" json:"notes,omitempty"`
	RecordedAt  time.Time            `db:"recorded_at" json:"recorded_at"`
}

// VolunteerServiceStats aggregates a volunteer's attendance record.
type VolunteerServiceStats struct {
	TotalServices     int     `db:"total_services" json:"total_services"`
	CompletedServices int     `db:"completed_services" json:"completed_services"`
	MissedServices    int     `db:"missed_services" json:"missed_services"`
	CancelledServices int     `db:"cancelled_services" json:"cancelled_services"`
	AttendanceRate    float64 `json:"attendance_rate"`
}
