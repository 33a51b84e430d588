package dto

// CreateSwapRequest opens a substitution request against the caller's
// confirmed assignment.
type CreateSwapRequest struct {
	ScaleID  string `json:"scaleId" validate:"required"`
	TargetID string `json:"targetId" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=500"`
}

// RespondSwapRequest carries the target's decision.
type RespondSwapRequest struct {
	Decision        string `json:"decision" validate:"required,oneof=accepted rejected"`
	RejectionReason string `json:"rejectionReason" validate:"omitempty,max=500"`
}
