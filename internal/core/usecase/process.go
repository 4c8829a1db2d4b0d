package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
)

// ProcessCaseUseCase runs the full petition pipeline for a submitted
// case. Every stage writes its raw status string to the case row; the
// status tracker on the API side turns those into display updates.
type ProcessCaseUseCase struct {
	cases    ports.CaseRepository
	docs     ports.DocumentRepository
	pages    ports.PageReader
	analyzer ports.EvidenceAnalyzer
	chunker  ports.Chunker
	embedder ports.Embedder
	vectorDB ports.VectorStore
	sections ports.SectionGenerator
	filler   ports.FormFiller
	sessions ports.SessionCache

	ragTopK int
}

func NewProcessCaseUseCase(
	cases ports.CaseRepository,
	docs ports.DocumentRepository,
	pages ports.PageReader,
	analyzer ports.EvidenceAnalyzer,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	sections ports.SectionGenerator,
	filler ports.FormFiller,
	sessions ports.SessionCache,
	ragTopK int,
) *ProcessCaseUseCase {
	if ragTopK <= 0 {
		ragTopK = 5
	}
	return &ProcessCaseUseCase{
		cases:    cases,
		docs:     docs,
		pages:    pages,
		analyzer: analyzer,
		chunker:  chunker,
		embedder: embedder,
		vectorDB: vectorDB,
		sections: sections,
		filler:   filler,
		sessions: sessions,
		ragTopK:  ragTopK,
	}
}

func (uc *ProcessCaseUseCase) ProcessByID(ctx context.Context, caseID string) error {
	result, err := uc.runPipeline(ctx, caseID)
	if err != nil {
		if failErr := uc.cases.MarkFailed(ctx, caseID, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark case failed: %v", err, failErr)
		}
		return err
	}

	if err := uc.sessions.SaveResult(ctx, caseID, result); err != nil {
		if failErr := uc.cases.MarkFailed(ctx, caseID, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark case failed: %v", err, failErr)
		}
		return fmt.Errorf("cache petition result: %w", err)
	}
	return uc.setStatus(ctx, caseID, domain.StatusCompleted)
}

func (uc *ProcessCaseUseCase) runPipeline(ctx context.Context, caseID string) (*domain.PetitionResult, error) {
	docs, err := uc.docs.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process case", errors.New("case has no documents"))
	}

	assessments := make([]domain.DocumentAssessment, 0, len(docs))
	for i := range docs {
		assessment, err := uc.analyzeDocument(ctx, caseID, &docs[i])
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}

	sections, err := uc.generateSections(ctx, caseID)
	if err != nil {
		return nil, err
	}

	formKey, err := uc.fillForm(ctx, caseID, sections)
	if err != nil {
		return nil, err
	}

	return &domain.PetitionResult{
		CaseID:      caseID,
		FilledForm:  formKey,
		Sections:    sections,
		Assessments: assessments,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// analyzeDocument walks a document page by page, indexing each page's
// chunks for retrieval, then asks the analyzer for a whole-document
// assessment against the criteria.
func (uc *ProcessCaseUseCase) analyzeDocument(ctx context.Context, caseID string, doc *domain.Document) (domain.DocumentAssessment, error) {
	if err := uc.setStatus(ctx, caseID, domain.DocStatus(doc.Doctype)); err != nil {
		return domain.DocumentAssessment{}, err
	}

	pages, err := uc.pages.Pages(ctx, doc)
	if err != nil {
		uc.markDocFailed(ctx, doc.ID, err)
		return domain.DocumentAssessment{}, fmt.Errorf("read document pages: %w", err)
	}
	if len(pages) == 0 {
		err := domain.WrapError(domain.ErrInvalidInput, "read document pages", errors.New("document has no extractable pages"))
		uc.markDocFailed(ctx, doc.ID, err)
		return domain.DocumentAssessment{}, err
	}
	if err := uc.docs.SetPageCount(ctx, doc.ID, len(pages)); err != nil {
		return domain.DocumentAssessment{}, fmt.Errorf("store page count: %w", err)
	}

	for i, pageText := range pages {
		if err := uc.setStatus(ctx, caseID, domain.DocPageStatus(doc.Doctype, i+1, len(pages))); err != nil {
			return domain.DocumentAssessment{}, err
		}
		if err := uc.indexPage(ctx, doc, pageText); err != nil {
			uc.markDocFailed(ctx, doc.ID, err)
			return domain.DocumentAssessment{}, err
		}
	}

	if err := uc.setStatus(ctx, caseID, domain.DocAnalysisStatus(doc.Doctype)); err != nil {
		return domain.DocumentAssessment{}, err
	}
	assessment, err := uc.analyzer.Analyze(ctx, doc.Doctype, strings.Join(pages, "\n\n"))
	if err != nil {
		uc.markDocFailed(ctx, doc.ID, err)
		return domain.DocumentAssessment{}, fmt.Errorf("analyze document: %w", err)
	}

	if err := uc.docs.UpdateStatus(ctx, doc.ID, domain.DocReady, ""); err != nil {
		return domain.DocumentAssessment{}, fmt.Errorf("mark document ready: %w", err)
	}
	return assessment, nil
}

func (uc *ProcessCaseUseCase) indexPage(ctx context.Context, doc *domain.Document, pageText string) error {
	chunks := uc.chunker.Split(pageText)
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed page chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed page chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	if err := uc.vectorDB.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index page chunks: %w", err)
	}
	return nil
}

// generateSections produces one RAG response per petition section, in
// stable order so the page counter in the status stream is meaningful.
func (uc *ProcessCaseUseCase) generateSections(ctx context.Context, caseID string) (map[string]string, error) {
	if err := uc.setStatus(ctx, caseID, domain.StatusGeneratingRAG); err != nil {
		return nil, err
	}

	summaries, err := uc.sessions.Summaries(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load cached summaries: %w", err)
	}

	names := append([]string(nil), uc.filler.SectionNames()...)
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for i, section := range names {
		if err := uc.setStatus(ctx, caseID, domain.RAGPageStatus(i+1, len(names))); err != nil {
			return nil, err
		}
		chunks, err := uc.retrieveEvidence(ctx, caseID, section)
		if err != nil {
			return nil, err
		}
		text, err := uc.sections.GenerateSection(ctx, section, summaries, chunks)
		if err != nil {
			return nil, fmt.Errorf("generate section %q: %w", section, err)
		}
		out[section] = text
	}
	return out, nil
}

func (uc *ProcessCaseUseCase) retrieveEvidence(ctx context.Context, caseID, section string) ([]domain.RetrievedChunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("embed section query: %w", err)
	}
	chunks, err := uc.vectorDB.Search(ctx, queryVector, uc.ragTopK, domain.SearchFilter{CaseID: caseID})
	if err != nil {
		return nil, fmt.Errorf("search evidence chunks: %w", err)
	}
	return chunks, nil
}

func (uc *ProcessCaseUseCase) fillForm(ctx context.Context, caseID string, sections map[string]string) (string, error) {
	if err := uc.setStatus(ctx, caseID, domain.StatusPreparingPDFFill); err != nil {
		return "", err
	}

	var pagesFilled int
	onPage := func(page, total int) {
		pagesFilled = total
		// Page progress is advisory; a failed status write must not
		// abort the fill mid-form.
		_ = uc.cases.UpdateProcessingStatus(ctx, caseID, domain.PDFPageStatus(page, total))
	}

	key, err := uc.filler.Fill(ctx, caseID, sections, onPage)
	if err != nil {
		return "", fmt.Errorf("fill petition form: %w", err)
	}
	if err := uc.setStatus(ctx, caseID, domain.PDFFillCompletedStatus(pagesFilled)); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *ProcessCaseUseCase) setStatus(ctx context.Context, caseID, status string) error {
	if err := uc.cases.UpdateProcessingStatus(ctx, caseID, status); err != nil {
		return fmt.Errorf("set status=%s: %w", status, err)
	}
	return nil
}

func (uc *ProcessCaseUseCase) markDocFailed(ctx context.Context, docID string, cause error) {
	if cause == nil {
		return
	}
	_ = uc.docs.UpdateStatus(ctx, docID, domain.DocFailed, cause.Error())
}
