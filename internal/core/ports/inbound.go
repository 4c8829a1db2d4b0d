package ports

import (
	"context"
	"io"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

// CaseService is the inbound contract for case lifecycle operations.
type CaseService interface {
	Open(ctx context.Context, userID, beneficiaryName, field string) (*domain.PetitionCase, error)
	GetByID(ctx context.Context, id string) (*domain.PetitionCase, error)
}

// DocumentIngestor is the inbound contract for evidence upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, caseID, doctype, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentService is the inbound contract for dashboard document CRUD.
type DocumentService interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// PetitionSubmitter is the inbound contract for the one-shot submission.
type PetitionSubmitter interface {
	Submit(ctx context.Context, caseID string, payload domain.PetitionPayload) (*domain.EligibilityDecision, error)
}

// CaseProcessor is the inbound contract for the asynchronous pipeline.
type CaseProcessor interface {
	ProcessByID(ctx context.Context, caseID string) error
}
