package dto

// BlockDateRequest marks one calendar day as blocked for a ministry.
type BlockDateRequest struct {
	MinistryID string `json:"ministryId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"omitempty,max=500"`
}

// UnblockDateRequest removes a blocked day.
type UnblockDateRequest struct {
	MinistryID string `json:"ministryId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

// AvailabilityQuery scopes an availability read.
type AvailabilityQuery struct {
	MinistryID  string `form:"ministryId" json:"ministryId"`
	VolunteerID string `form:"volunteerId" json:"volunteerId"`
	Date        string `form:"date" json:"date"`
	Month       string `form:"month" json:"month"`
}
