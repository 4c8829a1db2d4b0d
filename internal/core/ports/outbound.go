package ports

import (
	"context"
	"io"

	"github.com/vmoroz/petition-assistant/internal/core/domain"
)

// CaseRepository persists case state. ProcessingStatus is the read side
// of the tracker polling loop; UpdateProcessingStatus is written only by
// the worker pipeline.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.PetitionCase) error
	GetByID(ctx context.Context, id string) (*domain.PetitionCase, error)
	ProcessingStatus(ctx context.Context, id string) (string, error)
	UpdateProcessingStatus(ctx context.Context, id, status string) error
	MarkSubmitted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errMessage string) error
}

// DocumentRepository persists evidence document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetPageCount(ctx context.Context, id string, pages int) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents and filled petition forms.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes case-submitted events.
type MessageQueue interface {
	PublishCaseSubmitted(ctx context.Context, caseID string) error
	SubscribeCaseSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// SessionCache holds the between-page blobs: document summaries, field
// stats, and the final petition result.
type SessionCache interface {
	SaveSummaries(ctx context.Context, caseID string, summaries map[string]string) error
	Summaries(ctx context.Context, caseID string) (map[string]string, error)
	SaveFieldStats(ctx context.Context, caseID string, stats map[string]int) error
	FieldStats(ctx context.Context, caseID string) (map[string]int, error)
	SaveResult(ctx context.Context, caseID string, result *domain.PetitionResult) error
	Result(ctx context.Context, caseID string) (*domain.PetitionResult, error)
}

// PageReader opens a stored document and exposes it page by page.
type PageReader interface {
	Pages(ctx context.Context, doc *domain.Document) ([]string, error)
}

// EvidenceAnalyzer scores document text against the O-1 criteria.
type EvidenceAnalyzer interface {
	Analyze(ctx context.Context, doctype, fullText string) (domain.DocumentAssessment, error)
}

// SectionGenerator writes one petition section from retrieved evidence.
type SectionGenerator interface {
	GenerateSection(ctx context.Context, section string, summaries map[string]string, chunks []domain.RetrievedChunk) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into retrievable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorStore indexes evidence chunks and performs semantic search.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
}

// FormFiller fills the petition PDF template page by page. Values are
// keyed by field source name; onPage reports fill progress (1-based
// page, total mapped pages) before each page is rendered. The returned
// key locates the filled form in object storage.
type FormFiller interface {
	SectionNames() []string
	Fill(ctx context.Context, caseID string, values map[string]string, onPage func(page, total int)) (string, error)
}

// EligibilityService is the remote analysis endpoint consulted once per
// submission.
type EligibilityService interface {
	AnalyzePetition(ctx context.Context, caseID string, payload domain.PetitionPayload) (*domain.EligibilityDecision, error)
}

// LawyerMatcher searches the lawyer graph for representation candidates.
type LawyerMatcher interface {
	MatchLawyers(ctx context.Context, criteria domain.MatchCriteria) ([]domain.LawyerMatch, error)
}
