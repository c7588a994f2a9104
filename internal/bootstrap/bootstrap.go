// Package bootstrap wires configuration into the concrete adapters and
// use cases shared by the api and worker processes.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medreport/companion/internal/auth"
	"github.com/medreport/companion/internal/config"
	"github.com/medreport/companion/internal/core/ports"
	"github.com/medreport/companion/internal/core/usecase"
	"github.com/medreport/companion/internal/infrastructure/chunking"
	"github.com/medreport/companion/internal/infrastructure/explainer"
	"github.com/medreport/companion/internal/infrastructure/extractor"
	"github.com/medreport/companion/internal/infrastructure/knowledge"
	"github.com/medreport/companion/internal/infrastructure/llm/ollama"
	"github.com/medreport/companion/internal/infrastructure/medparse"
	natsqueue "github.com/medreport/companion/internal/infrastructure/queue/nats"
	"github.com/medreport/companion/internal/infrastructure/repository/postgres"
	"github.com/medreport/companion/internal/infrastructure/resilience"
	"github.com/medreport/companion/internal/infrastructure/sessionstate"
	"github.com/medreport/companion/internal/infrastructure/storage/localfs"
	"github.com/medreport/companion/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Queue    ports.MessageQueue
	Docs     ports.DocumentRepository
	Findings ports.FindingRepository
	Active   ports.ActiveDocumentStore
	Vectors  ports.VectorStore
	Auth     *auth.Service
	Ollama   *ollama.Client

	IngestUC  *usecase.IngestReportUseCase
	QueryUC   *usecase.AnswerQuestionUseCase
	AnalyzeUC *usecase.AnalyzeReportUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	docs := postgres.NewDocumentRepository(db)
	if err := docs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	findings := postgres.NewFindingRepository(db)
	if err := findings.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure findings schema: %w", err)
	}
	authService := auth.NewService(db, cfg.AuthTokenTTL)
	if err := authService.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure auth schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), log)
	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extract := extractor.New(storage, cfg.TesseractPath)

	active := newActiveStore(cfg, log)
	kb := knowledge.NewBase(embedder)
	explain := explainer.New(generator, log)
	parser := medparse.NewParser()

	ingestUC := usecase.NewIngestReportUseCase(docs, storage, extract, chunker, embedder, vectorDB, active, queue)
	queryUC := usecase.NewAnswerQuestionUseCase(docs, active, embedder, vectorDB, generator, cfg.RetrievalTopK)
	analyzeUC := usecase.NewAnalyzeReportUseCase(docs, findings, extract, parser, kb, explain)

	return &App{
		Config:   cfg,
		Log:      log,
		Queue:    queue,
		Docs:     docs,
		Findings: findings,
		Active:   active,
		Vectors:  vectorDB,
		Auth:     authService,
		Ollama:   ollamaClient,

		IngestUC:  ingestUC,
		QueryUC:   queryUC,
		AnalyzeUC: analyzeUC,

		closeFn: func() {
			queue.Close()
			if closer, ok := active.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
			_ = db.Close()
		},
	}, nil
}

// newActiveStore prefers Redis so active-document state survives process
// restarts; a dead Redis degrades to per-process memory instead of
// failing startup.
func newActiveStore(cfg config.Config, log *slog.Logger) ports.ActiveDocumentStore {
	store, err := sessionstate.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ActiveDocumentTTL)
	if err != nil {
		log.Warn("redis unavailable, using in-memory active-document store", "error", err)
		return sessionstate.NewMemory()
	}
	return store
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
