package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

type CaseUseCase struct {
	cases ports.CaseRepository
}

func NewCaseUseCase(cases ports.CaseRepository) *CaseUseCase {
	return &CaseUseCase{cases: cases}
}

func (uc *CaseUseCase) Open(ctx context.Context, userID, beneficiaryName, field string) (*domain.PetitionCase, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open case", errors.New("user id is required"))
	}
	if strings.TrimSpace(beneficiaryName) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open case", errors.New("beneficiary name is required"))
	}

	now := time.Now().UTC()
	c := &domain.PetitionCase{
		ID:               uuid.NewString(),
		UserID:           userID,
		BeneficiaryName:  beneficiaryName,
		FieldOfEndeavor:  field,
		ProcessingStatus: domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

func (uc *CaseUseCase) GetByID(ctx context.Context, id string) (*domain.PetitionCase, error) {
	c, err := uc.cases.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch case by id: %w", err)
	}
	return c, nil
}
