package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScaleStatus represents lifecycle phases of a rostered service occurrence.
type ScaleStatus string

const (
	ScaleStatusDraft     ScaleStatus = "draft"
	ScaleStatusPublished ScaleStatus = "published"
	ScaleStatusOccurred  ScaleStatus = "occurred"
	ScaleStatusCancelled ScaleStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s ScaleStatus) Valid() bool {
	switch s {
	case ScaleStatusDraft, ScaleStatusPublished, ScaleStatusOccurred, ScaleStatusCancelled:
		return true
	default:
		return false
	}
}

// FunctionSlot is a role within a scale with a required/optional headcount.
type FunctionSlot struct {
	FunctionID    string `json:"function_id"`
	RequiredSlots int    `json:"required_slots"`
	OptionalSlots int    `json:"optional_slots"`
	IsRequired    bool   `json:"is_required"`
}

// Scale is a rostered event instance for a ministry on a date.
type Scale struct {
	ID            string         `db:"id" json:"id"`
	TenantID      string         `db:"tenant_id" json:"tenant_id"`
	BranchID      *string        `db:"branch_id" json:"branch_id,omitempty"`
	MinistryID    string         `db:"ministry_id" json:"ministry_id"`
	ServiceDate   time.Time      `db:"service_date" json:"service_date"`
	Status        ScaleStatus    `db:"status" json:"status"`
	AutoAssign    bool           `db:"auto_assign" json:"auto_assign"`
	Version       int            `db:"version" json:"version"`
	FunctionSlots types.JSONText `db:"function_slots" json:"function_slots"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Slots decodes the function-slot template.
func (s *Scale) Slots() ([]FunctionSlot, error) {
	if len(s.FunctionSlots) == 0 {
		return nil, nil
	}
	var slots []FunctionSlot
	if err := json.Unmarshal(s.FunctionSlots, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// AssignmentStatus tracks the state of a volunteer's slot in a scale.
type AssignmentStatus string

const (
	AssignmentStatusSuggested  AssignmentStatus = "suggested"
	AssignmentStatusConfirmed  AssignmentStatus = "confirmed"
	AssignmentStatusSwappedOut AssignmentStatus = "swapped_out"
)

// Valid returns true when the status is a supported value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusSuggested, AssignmentStatusConfirmed, AssignmentStatusSwappedOut:
		return true
	default:
		return false
	}
}

// Assignment binds a volunteer to a function slot of a scale.
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	TenantID    string           `db:"tenant_id" json:"tenant_id"`
	ScaleID     string           `db:"scale_id" json:"scale_id"`
	FunctionID  string           `db:"function_id" json:"function_id"`
	VolunteerID string           `db:"volunteer_id" json:"volunteer_id"`
	Status      AssignmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}
