package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

type IngestDocumentUseCase struct {
	cases   ports.CaseRepository
	docs    ports.DocumentRepository
	storage ports.ObjectStorage
}

func NewIngestDocumentUseCase(
	cases ports.CaseRepository,
	docs ports.DocumentRepository,
	storage ports.ObjectStorage,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		cases:   cases,
		docs:    docs,
		storage: storage,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	caseID, doctype, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	doctype = strings.ToLower(strings.TrimSpace(doctype))
	if !isValidDoctype(doctype) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("doctype must be a non-empty alphanumeric token, got %q", doctype))
	}
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("verify case: %w", err)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		CaseID:      caseID,
		Doctype:     doctype,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.DocUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}
	return doc, nil
}

// The doctype is interpolated into pipeline status strings, which the
// progress normalizer parses as a single alphanumeric token.
func isValidDoctype(doctype string) bool {
	if doctype == "" {
		return false
	}
	for _, r := range doctype {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
