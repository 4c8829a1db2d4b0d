package usecase

import (
	"context"
	"fmt"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

type DocumentUseCase struct {
	docs ports.DocumentRepository
}

func NewDocumentUseCase(docs ports.DocumentRepository) *DocumentUseCase {
	return &DocumentUseCase{docs: docs}
}

func (uc *DocumentUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *DocumentUseCase) ListByCase(ctx context.Context, caseID string) ([]domain.Document, error) {
	docs, err := uc.docs.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	return docs, nil
}

func (uc *DocumentUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
