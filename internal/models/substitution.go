package models

import "time"

// SubstitutionStatus tracks the swap-request state machine. pending is the only
// non-terminal state.
type SubstitutionStatus string

const (
	SubstitutionStatusPending   SubstitutionStatus = "pending"
	SubstitutionStatusAccepted  SubstitutionStatus = "accepted"
	SubstitutionStatusRejected  SubstitutionStatus = "rejected"
	SubstitutionStatusCancelled SubstitutionStatus = "cancelled"
	SubstitutionStatusExpired   SubstitutionStatus = "expired"
)

// Valid returns true when the status is a supported value.
func (s SubstitutionStatus) Valid() bool {
	switch s {
	case SubstitutionStatusPending, SubstitutionStatusAccepted, SubstitutionStatusRejected,
		SubstitutionStatusCancelled, SubstitutionStatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s SubstitutionStatus) Terminal() bool {
	return s.Valid() && s != SubstitutionStatusPending
}

// SwapDecision is the target's answer to a substitution request.
type SwapDecision string

const (
	SwapDecisionAccepted SwapDecision = "accepted"
	SwapDecisionRejected SwapDecision = "rejected"
)

// SubstitutionRequest is a peer-to-peer swap of a confirmed assignment.
type SubstitutionRequest struct {
	ID              string             `db:"id" json:"id"`
	TenantID        string             `db:"tenant_id" json:"tenant_id"`
	ScaleID         string             `db:"scale_id" json:"scale_id"`
	RequesterID     string             `db:"requester_id" json:"requester_id"`
	TargetID        string             `db:"target_id" json:"target_id"`
	FunctionID      string             `db:"function_id" json:"function_id"`
	Reason          string             `db:"reason" json:"reason,omitempty"`
	Status          SubstitutionStatus `db:"status" json:"status"`
	RejectionReason *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ExpiresAt       time.Time          `db:"expires_at" json:"expires_at"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// ExpiredAt reports whether the request has passed its horizon at the given
// instant while still pending.
func (r *SubstitutionRequest) ExpiredAt(now time.Time) bool {
	return r.Status == SubstitutionStatusPending && now.After(r.ExpiresAt)
}

// SwapCandidate annotates a qualified volunteer with advisory availability for
// candidate listings. Unavailable candidates are included so a UI can gray them
// out; the authoritative check happens at accept time.
type SwapCandidate struct {
	VolunteerID string             `json:"volunteer_id"`
	Level       QualificationLevel `json:"level"`
	IsAvailable bool               `json:"is_available"`
	ReasonCode  string             `json:"reason_code,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}
