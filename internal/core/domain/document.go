package domain

import "time"

type DocumentStatus string

const (
	DocUploaded DocumentStatus = "uploaded"
	DocReady    DocumentStatus = "ready"
	DocFailed   DocumentStatus = "failed"
)

// Document is one piece of uploaded evidence attached to a case.
// Doctype is a lowercase alphanumeric token (resume, award, publication)
// interpolated into the pipeline status strings.
type Document struct {
	ID          string         `json:"id"`
	CaseID      string         `json:"case_id"`
	Doctype     string         `json:"doctype"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	PageCount   int            `json:"page_count,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
