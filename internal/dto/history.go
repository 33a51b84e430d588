package dto

// RecordServiceHistoryRequest appends one realized service outcome.
type RecordServiceHistoryRequest struct {
	VolunteerID string `json:"volunteerId" validate:"required"`
	ScaleID     string `json:"scaleId" validate:"required"`
	FunctionID  string `json:"functionId" validate:"required"`
	MinistryID  string `json:"ministryId" validate:"required"`
	ServiceDate string `json:"serviceDate" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,oneof=completed missed cancelled"`
	Notes       string `json:"notes" validate:"omitempty,max=1000"`
}

// ServiceStatsQuery scopes an aggregate stats read.
type ServiceStatsQuery struct {
	From string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}
