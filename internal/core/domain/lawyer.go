package domain

// MatchCriteria narrows the lawyer search: the beneficiary's field of
// endeavor is required, visa type and location are optional.
type MatchCriteria struct {
	Field    string
	VisaType string
	State    string
	Limit    int
}

type LawyerMatch struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Firm       string   `json:"firm"`
	State      string   `json:"state"`
	VisaTypes  []string `json:"visa_types"`
	Fields     []string `json:"fields"`
	CasesWon   int      `json:"cases_won"`
	MatchScore float64  `json:"match_score"`
}
