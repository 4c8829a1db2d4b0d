package domain

type SearchFilter struct {
	CaseID  string
	Doctype string
}

type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Doctype    string  `json:"doctype"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}
