package domain

import "time"

// PetitionCase is one O-1 petition being assembled for a beneficiary.
// ProcessingStatus carries the raw pipeline status string; it is written
// exclusively by the worker pipeline and read by the status tracker.
type PetitionCase struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	BeneficiaryName  string     `json:"beneficiary_name"`
	FieldOfEndeavor  string     `json:"field_of_endeavor"`
	ProcessingStatus string     `json:"processing_status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PetitionPayload is the body of a submission request: the evidence the
// eligibility backend scores before the pipeline is allowed to run.
type PetitionPayload struct {
	BeneficiaryName string            `json:"beneficiary_name"`
	FieldOfEndeavor string            `json:"field_of_endeavor"`
	DocumentIDs     []string          `json:"document_ids"`
	Answers         map[string]string `json:"answers,omitempty"`
}

// EligibilityDecision is the eligibility backend's verdict on a payload.
type EligibilityDecision struct {
	CanProceed        bool              `json:"can_proceed"`
	Message           string            `json:"message,omitempty"`
	DocumentSummaries map[string]string `json:"document_summaries,omitempty"`
	FieldStats        map[string]int    `json:"field_stats,omitempty"`
}

// DocumentAssessment is the analyzer's judgement of a single evidence
// document against the O-1 criteria.
type DocumentAssessment struct {
	Criteria []string `json:"criteria"`
	Strength string   `json:"strength"`
	Summary  string   `json:"summary"`
}

// PetitionResult is what the review page reads after the pipeline ends.
type PetitionResult struct {
	CaseID      string               `json:"case_id"`
	FilledForm  string               `json:"filled_form"`
	Sections    map[string]string    `json:"sections"`
	Assessments []DocumentAssessment `json:"assessments"`
	CompletedAt time.Time            `json:"completed_at"`
}
