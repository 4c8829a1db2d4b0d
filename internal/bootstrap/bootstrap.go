package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmoroz/petition-assistant/internal/config"
	"github.com/vmoroz/petition-assistant/internal/core/domain"
	"github.com/vmoroz/petition-assistant/internal/core/ports"
	"github.com/vmoroz/petition-assistant/internal/core/tracker"
	"github.com/vmoroz/petition-assistant/internal/core/usecase"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/cache/redis"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/chunking"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/eligibility"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/llm/ollama"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/match/neo4j"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/pdf/formfill"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/pdf/pages"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/queue/nats"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/repository/postgres"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/resilience"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/storage/localfs"
	"github.com/vmoroz/petition-assistant/internal/infrastructure/vector/qdrant"
	"github.com/vmoroz/petition-assistant/internal/observability/metrics"
)

// App wires the infrastructure adapters into the use cases both
// binaries share. The API binary serves the HTTP surface; the worker
// consumes the queue and runs the pipeline.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	CaseRepo ports.CaseRepository
	Sessions ports.SessionCache
	Matcher  ports.LawyerMatcher

	CaseUC    ports.CaseService
	IngestUC  ports.DocumentIngestor
	DocUC     ports.DocumentService
	SubmitUC  *usecase.SubmitPetitionUseCase
	ProcessUC ports.CaseProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	caseRepo := postgres.NewCaseRepository(db)
	if err := caseRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Logger:             logger,
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	sessions := redis.New(cfg.RedisAddr, cfg.RedisDB, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	if err := sessions.Ping(ctx); err != nil {
		logger.Warn("redis_unreachable_at_startup", "addr", cfg.RedisAddr, "error", err)
	}

	matcher, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, fmt.Errorf("init lawyer matcher: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	analyzer := ollama.NewAnalyzer(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)
	sectionWriter := ollama.NewSectionWriter(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	pageReader := pages.NewReader(storage)

	filler, err := formfill.New(cfg.FormTemplatePath, cfg.FieldMapPath, storage)
	if err != nil {
		return nil, fmt.Errorf("init form filler: %w", err)
	}

	eligibilityClient := eligibility.New(cfg.EligibilityBaseURL, cfg.EligibilityAPIToken).WithExecutor(executor)

	caseUC := usecase.NewCaseUseCase(caseRepo)
	ingestUC := usecase.NewIngestDocumentUseCase(caseRepo, docRepo, storage)
	docUC := usecase.NewDocumentUseCase(docRepo)
	submitUC := usecase.NewSubmitPetitionUseCase(eligibilityClient, caseRepo, sessions, queue)
	processUC := usecase.NewProcessCaseUseCase(
		caseRepo, docRepo, pageReader, analyzer, chunker, embedder,
		vectorDB, sectionWriter, filler, sessions, cfg.RAGTopK,
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		CaseRepo: caseRepo,
		Sessions: sessions,
		Matcher:  matcher,

		CaseUC:    caseUC,
		IngestUC:  ingestUC,
		DocUC:     docUC,
		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = sessions.Close()
			_ = matcher.Close(context.Background())
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// TrackerConfig converts the millisecond-denominated settings into the
// polling loop's bounds.
func (a *App) TrackerConfig() tracker.Config {
	return tracker.Config{
		Interval:    time.Duration(a.Config.TrackerIntervalMs) * time.Millisecond,
		MaxDuration: time.Duration(a.Config.TrackerMaxDurationMs) * time.Millisecond,
	}
}

// WithPollMetrics wraps a status source so every poll cycle is counted.
func WithPollMetrics(src tracker.StatusSource, m *metrics.HTTPServerMetrics, service string) tracker.StatusSource {
	return &instrumentedStatusSource{src: src, metrics: m, service: service}
}

type instrumentedStatusSource struct {
	src     tracker.StatusSource
	metrics *metrics.HTTPServerMetrics
	service string
}

func (s *instrumentedStatusSource) ProcessingStatus(ctx context.Context, caseID string) (string, error) {
	raw, err := s.src.ProcessingStatus(ctx, caseID)
	s.metrics.RecordPoll(s.service, err)
	return raw, err
}

// WithSubmitMetrics wraps a submitter so every submission outcome is
// counted.
func WithSubmitMetrics(submitter ports.PetitionSubmitter, m *metrics.HTTPServerMetrics, service string) ports.PetitionSubmitter {
	return &instrumentedSubmitter{submitter: submitter, metrics: m, service: service}
}

type instrumentedSubmitter struct {
	submitter ports.PetitionSubmitter
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func (s *instrumentedSubmitter) Submit(ctx context.Context, caseID string, payload domain.PetitionPayload) (*domain.EligibilityDecision, error) {
	decision, err := s.submitter.Submit(ctx, caseID, payload)
	switch {
	case err != nil:
		s.metrics.RecordSubmission(s.service, "error")
	case decision != nil && !decision.CanProceed:
		s.metrics.RecordSubmission(s.service, "rejected")
	default:
		s.metrics.RecordSubmission(s.service, "accepted")
	}
	return decision, err
}
