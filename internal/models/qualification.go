package models

// QualificationLevel ranks a volunteer's skill for a function.
type QualificationLevel string

const (
	QualificationLevelBeginner     QualificationLevel = "beginner"
	QualificationLevelIntermediate QualificationLevel = "intermediate"
	QualificationLevelSpecialist   QualificationLevel = "specialist"
)

// Rank returns an ordinal for ranking comparisons; higher is better. Unknown
// levels rank below beginner.
func (l QualificationLevel) Rank() int {
	switch l {
	case QualificationLevelSpecialist:
		return 3
	case QualificationLevelIntermediate:
		return 2
	case QualificationLevelBeginner:
		return 1
	default:
		return 0
	}
}

// Qualification is the approved skill mapping of a volunteer to a function
// within a ministry. Owned by the identity/role collaborator; consumed here as
// a ranking input and eligibility filter.
type Qualification struct {
	TenantID    string             `db:"tenant_id" json:"tenant_id"`
	VolunteerID string             `db:"volunteer_id" json:"volunteer_id"`
	MinistryID  string             `db:"ministry_id" json:"ministry_id"`
	FunctionID  string             `db:"function_id" json:"function_id"`
	Level       QualificationLevel `db:"level" json:"level"`
	Approved    bool               `db:"approved" json:"approved"`
}
