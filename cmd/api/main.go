package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	infraai "github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/ai"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/nfexml"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/pdfinfo"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/fiscal-ingest-api/internal/interfaces/http"
	"github.com/jhoicas/fiscal-ingest-api/internal/jobs"
	"github.com/jhoicas/fiscal-ingest-api/pkg/config"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ai_provider", cfg.AI.Provider).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.RunMigrations {
		if err := postgres.RunMigrations(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	vendorRepo := postgres.NewVendorRepository(pool)
	payableRepo := postgres.NewPayableRepository(pool)
	installmentRepo := postgres.NewInstallmentRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Archivo de los XML confirmados (opcional)
	var archiver ports.FileArchiver = storage.NopArchiver{}
	if cfg.Storage.ArchiveBucket != "" {
		gcs, err := storage.NewGCSArchiver(ctx, cfg.Storage.ArchiveBucket, cfg.Storage.ArchivePrefix, log)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente de Cloud Storage")
		}
		defer gcs.Close()
		archiver = gcs
	}

	aiSvc, closeAI, err := infraai.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("servicio de extracción")
	}
	defer func() {
		if err := closeAI(); err != nil {
			log.Warn().Err(err).Msg("cerrar servicio de extracción")
		}
	}()

	detector := ingest.NewDuplicateDetector(payableRepo, cfg.Import.DescriptionLabel)
	resolver := ingest.NewVendorResolver(vendorRepo)
	committer := ingest.NewCommitter(txRunner, ingest.CommitConfig{
		DescriptionLabel:  cfg.Import.DescriptionLabel,
		DefaultCategoryID: cfg.Import.DefaultCategoryID,
		DefaultBranchID:   cfg.Import.DefaultBranchID,
	})
	ingestLog := log.Component("ingest")
	orchestrator := ingest.NewOrchestrator(
		nfexml.NewExtractor(ingestLog), detector, resolver, committer, archiver, cfg.Import.Pause, ingestLog,
	)
	extraction := ingest.NewExtractionService(
		aiSvc, pdfinfo.New(),
		vendorRepo, categoryRepo, installmentRepo,
		detector, resolver, committer,
		ingest.ExtractionConfig{MaxBytes: cfg.Import.MaxUploadBytes, Timeout: cfg.AI.Timeout},
		log.Component("extract"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    int(cfg.Import.MaxUploadBytes) * 5,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Minute * 5,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Fiscal Ingest API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orchestrator:   orchestrator,
		Extraction:     extraction,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		Log:            log.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})

	// Carpeta de entrada programada (opcional)
	if cfg.Import.DropDir != "" {
		job := jobs.NewDropFolderJob(jobs.DropFolderConfig{
			Dir:      cfg.Import.DropDir,
			Schedule: cfg.Import.DropSchedule,
			TimeZone: cfg.Import.TimeZone,
			MaxBytes: cfg.Import.MaxUploadBytes,
		}, orchestrator, log.Component("drop"))
		scheduler, err := job.Start(gctx)
		if err != nil {
			log.Fatal().Err(err).Msg("job de carpeta de entrada")
		}
		g.Go(func() error {
			<-gctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}
	log.Info().Msg("aplicación detenida")
}
