package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

// SubmitPetitionUseCase performs the one-shot eligibility submission.
// The in-flight map is owned by the instance, not shared globally:
// concurrent submissions of the same case join the pending call and
// share its outcome, so the remote endpoint is hit at most once per
// case until the call fails or is rejected.
type SubmitPetitionUseCase struct {
	eligibility ports.EligibilityService
	cases       ports.CaseRepository
	sessions    ports.SessionCache
	queue       ports.MessageQueue

	mu       sync.Mutex
	inflight map[string]*submission
	onJoin   func()
}

type submission struct {
	done     chan struct{}
	decision *domain.EligibilityDecision
	err      error
}

func NewSubmitPetitionUseCase(
	eligibility ports.EligibilityService,
	cases ports.CaseRepository,
	sessions ports.SessionCache,
	queue ports.MessageQueue,
) *SubmitPetitionUseCase {
	return &SubmitPetitionUseCase{
		eligibility: eligibility,
		cases:       cases,
		sessions:    sessions,
		queue:       queue,
		inflight:    make(map[string]*submission),
	}
}

// WithJoinObserver registers a callback invoked whenever a submission
// joins an already pending call for the same case.
func (uc *SubmitPetitionUseCase) WithJoinObserver(fn func()) *SubmitPetitionUseCase {
	uc.onJoin = fn
	return uc
}

func (uc *SubmitPetitionUseCase) Submit(
	ctx context.Context,
	caseID string,
	payload domain.PetitionPayload,
) (*domain.EligibilityDecision, error) {
	uc.mu.Lock()
	if s, ok := uc.inflight[caseID]; ok {
		uc.mu.Unlock()
		if uc.onJoin != nil {
			uc.onJoin()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
		}
		return s.decision, s.err
	}
	s := &submission{done: make(chan struct{})}
	uc.inflight[caseID] = s
	uc.mu.Unlock()

	s.decision, s.err = uc.submitOnce(ctx, caseID, payload)
	close(s.done)

	// Failed or rejected submissions release the guard so the user can
	// retry after fixing the flow; accepted ones keep it, making a
	// duplicate trigger a no-op that returns the same decision.
	if s.err != nil || s.decision == nil || !s.decision.CanProceed {
		uc.mu.Lock()
		delete(uc.inflight, caseID)
		uc.mu.Unlock()
	}
	return s.decision, s.err
}

func (uc *SubmitPetitionUseCase) submitOnce(
	ctx context.Context,
	caseID string,
	payload domain.PetitionPayload,
) (*domain.EligibilityDecision, error) {
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("verify case: %w", err)
	}

	decision, err := uc.eligibility.AnalyzePetition(ctx, caseID, payload)
	if err != nil {
		return nil, fmt.Errorf("analyze petition: %w", err)
	}
	if !decision.CanProceed {
		return decision, nil
	}

	if err := uc.sessions.SaveSummaries(ctx, caseID, decision.DocumentSummaries); err != nil {
		return nil, fmt.Errorf("cache document summaries: %w", err)
	}
	if len(decision.FieldStats) > 0 {
		if err := uc.sessions.SaveFieldStats(ctx, caseID, decision.FieldStats); err != nil {
			return nil, fmt.Errorf("cache field stats: %w", err)
		}
	}
	if err := uc.cases.MarkSubmitted(ctx, caseID); err != nil {
		return nil, fmt.Errorf("mark case submitted: %w", err)
	}
	if err := uc.queue.PublishCaseSubmitted(ctx, caseID); err != nil {
		return nil, fmt.Errorf("publish case submitted: %w", err)
	}
	return decision, nil
}
