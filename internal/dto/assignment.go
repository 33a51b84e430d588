package dto

import "github.com/voluntix/roster-api/internal/models"

// SuggestedVolunteer is one ranked candidate for a function slot.
type SuggestedVolunteer struct {
	VolunteerID    string                    `json:"volunteerId"`
	Level          models.QualificationLevel `json:"level"`
	RecentServices int                       `json:"recentServices"`
}

// FunctionSuggestions holds the ranked candidates for one function slot.
type FunctionSuggestions struct {
	FunctionID     string               `json:"functionId"`
	RequiredSlots  int                  `json:"requiredSlots"`
	OptionalSlots  int                  `json:"optionalSlots"`
	IsRequired     bool                 `json:"isRequired"`
	AvailableCount int                  `json:"availableCount"`
	Volunteers     []SuggestedVolunteer `json:"volunteers"`
}

// ScaleSuggestionReport is the read-only output of the assignment engine.
type ScaleSuggestionReport struct {
	ScaleID                  string                `json:"scaleId"`
	ScaleVersion             int                   `json:"scaleVersion"`
	Suggestions              []FunctionSuggestions `json:"suggestions"`
	RequiresApproval         bool                  `json:"requiresApproval"`
	TotalVolunteersNeeded    int                   `json:"totalVolunteersNeeded"`
	TotalVolunteersAvailable int                   `json:"totalVolunteersAvailable"`
	Coverage                 int                   `json:"coverage"`
}

// ScaleDetail is a scale together with its assignment roster.
type ScaleDetail struct {
	Scale       models.Scale        `json:"scale"`
	Assignments []models.Assignment `json:"assignments"`
}

// AssignmentPick selects a volunteer for a function during confirmation.
type AssignmentPick struct {
	FunctionID  string `json:"functionId" validate:"required"`
	VolunteerID string `json:"volunteerId" validate:"required"`
}

// ConfirmAssignmentsRequest persists chosen suggestions on a draft scale.
type ConfirmAssignmentsRequest struct {
	Picks []AssignmentPick `json:"picks" validate:"required,min=1,dive"`
}
