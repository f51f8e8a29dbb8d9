package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbraverman/leaselens/internal/config"
	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/policy"
	"github.com/tbraverman/leaselens/internal/core/ports"
	"github.com/tbraverman/leaselens/internal/core/rules"
	"github.com/tbraverman/leaselens/internal/core/usecase"
	"github.com/tbraverman/leaselens/internal/core/versiongraph"
	"github.com/tbraverman/leaselens/internal/infrastructure/export/excel"
	"github.com/tbraverman/leaselens/internal/infrastructure/extractor/doctext"
	"github.com/tbraverman/leaselens/internal/infrastructure/lineage/neo4jgraph"
	"github.com/tbraverman/leaselens/internal/infrastructure/oracle/ollama"
	"github.com/tbraverman/leaselens/internal/infrastructure/queue/nats"
	"github.com/tbraverman/leaselens/internal/infrastructure/repository/postgres"
	"github.com/tbraverman/leaselens/internal/infrastructure/resilience"
	"github.com/tbraverman/leaselens/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	Exporter ports.ReportExporter

	IngestUC    *usecase.IngestDocumentUseCase
	ProcessUC   *usecase.ProcessDocumentUseCase
	ReconcileUC *usecase.ReconcileUseCase
	QueryUC     *usecase.QueryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	rulesFile, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules file: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	groupStore := postgres.NewGroupRepository(db)
	if err := groupStore.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure groups schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	oracleClient := ollama.New(cfg.OracleURL, cfg.OracleModel,
		ollama.WithTimeout(time.Duration(cfg.OracleTimeoutMS)*time.Millisecond),
		ollama.WithAPIKey(cfg.OracleAPIKey),
		ollama.WithResilienceExecutor(executor),
	)
	classifier := ollama.NewClassifier(oracleClient)
	fieldExtractor := ollama.NewFields(oracleClient)

	extractor := doctext.NewExtractor(storage)

	var lineage ports.LineageProjector
	var closeLineage func()
	if cfg.Neo4jEnabled {
		projector, err := neo4jgraph.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, "")
		if err != nil {
			return nil, fmt.Errorf("init lineage projector: %w", err)
		}
		lineage = projector
		closeLineage = func() { _ = projector.Close(context.Background()) }
	}

	pol := policy.New(confidenceThreshold(cfg, rulesFile))
	engine := rules.NewEngine(rulesConfig(cfg, rulesFile), pol, logger)
	graph := versiongraph.New(engine, pol, logger)

	reconcileUC := usecase.NewReconcileUseCase(graph, scoringFields(rulesFile), groupStore, lineage, logger)
	if err := reconcileUC.Rehydrate(ctx); err != nil {
		return nil, fmt.Errorf("rehydrate lease groups: %w", err)
	}

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, classifier, fieldExtractor, reconcileUC, logger)
	queryUC := usecase.NewQueryUseCase(graph, groupStore, confidenceThreshold(cfg, rulesFile), logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		Repo:     repo,
		Exporter: excel.NewExporter(),

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		ReconcileUC: reconcileUC,
		QueryUC:     queryUC,

		closeFn: func() {
			queue.Close()
			if closeLineage != nil {
				closeLineage()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func confidenceThreshold(cfg config.Config, rulesFile config.RulesFile) float64 {
	if rulesFile.ConfidenceThreshold > 0 {
		return rulesFile.ConfidenceThreshold
	}
	return cfg.ConfidenceThreshold
}

func rulesConfig(cfg config.Config, rulesFile config.RulesFile) rules.Config {
	out := rules.Config{
		SquareFeetTolerance: cfg.SquareFeetTolerance,
		MoneyToleranceCents: domain.Cents(cfg.MoneyToleranceCents),
	}
	if rulesFile.Tolerances.SquareFeet > 0 {
		out.SquareFeetTolerance = rulesFile.Tolerances.SquareFeet
	}
	if rulesFile.Tolerances.MoneyCents > 0 {
		out.MoneyToleranceCents = domain.Cents(rulesFile.Tolerances.MoneyCents)
	}
	return out
}

func scoringFields(rulesFile config.RulesFile) usecase.ScoringFields {
	fields := usecase.DefaultScoringFields()
	if len(rulesFile.Scoring.LeaseCritical) > 0 {
		fields.LeaseCritical = rulesFile.Scoring.LeaseCritical
	}
	if len(rulesFile.Scoring.LeaseOptional) > 0 {
		fields.LeaseOptional = rulesFile.Scoring.LeaseOptional
	}
	if len(rulesFile.Scoring.AmendmentCritical) > 0 {
		fields.AmendmentCritical = rulesFile.Scoring.AmendmentCritical
	}
	if len(rulesFile.Scoring.AmendmentOptional) > 0 {
		fields.AmendmentOptional = rulesFile.Scoring.AmendmentOptional
	}
	return fields
}
