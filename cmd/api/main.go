package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/config"
	"alfredoptarigan/resume-ats/internal/handlers"
	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

const (
	jobFetchTimeout = 15 * time.Second
	referenceLimit  = 3
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	// Initialize repositories
	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	log.Info("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	extractor := services.NewDocumentExtractor(cfg.Storage.MaxFileSize)
	fetcher := services.NewJobFetcher(jobFetchTimeout, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	augmenter := initAugmenter(ctx, cfg, log)

	analyzer := services.NewAnalyzerService(
		extractor,
		augmenter,
		fetcher,
		analysisRepo,
		docRepo,
		feedbackRepo,
		log,
	)
	log.Info("✅ Analyzer service initialized", zap.Bool("ai_enabled", augmenter != nil))

	// Initialize worker
	worker := services.NewWorker(
		analysisRepo,
		analyzer,
		cfg.Worker.Concurrency,
		log,
	)
	worker.Start(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume ATS API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Routes
	handlers.Register(app.Group("/api/v1"), handlers.Handlers{
		Upload:    handlers.NewUploadHandler(docRepo, storageService, log),
		Evaluate:  handlers.NewEvaluationHandler(analysisRepo, docRepo, worker),
		Result:    handlers.NewResultHandler(analysisRepo),
		Analyze:   handlers.NewAnalyzeHandler(analyzer, storageService, log),
		Stats:     handlers.NewStatsHandler(analysisRepo, feedbackRepo, log),
		AIEnabled: augmenter != nil,
	})

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume ATS API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/analyze",
				"POST /api/v1/match",
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
				"GET /api/v1/history",
				"GET /api/v1/stats",
				"POST /api/v1/feedback",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// initAugmenter returns nil when AI is disabled or cannot be set up; the
// heuristic path is always available.
func initAugmenter(ctx context.Context, cfg *config.Config, log *zap.Logger) services.Augmenter {
	if !cfg.AIAvailable() {
		log.Info("ℹ️ AI augmentation disabled")
		return nil
	}

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, log)
	if err != nil {
		log.Warn("⚠️ Gemini unavailable, continuing without AI", zap.Error(err))
		return nil
	}
	log.Info("✅ Gemini AI initialized successfully", zap.String("model", cfg.Gemini.Model))

	var retriever services.ContextRetriever
	if cfg.Qdrant.URL != "" {
		store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err == nil {
			err = store.InitCollection(ctx)
		}
		if err != nil {
			log.Warn("⚠️ Qdrant unavailable, prompts will not include reference postings", zap.Error(err))
		} else {
			retriever = services.NewReferenceRetriever(gemini, store, referenceLimit, log)
			log.Info("✅ Qdrant initialized successfully", zap.String("collection", cfg.Qdrant.Collection))
		}
	}

	return services.NewAugmenter(gemini, retriever, services.AugmenterConfig{
		MinInterval:    cfg.AI.MinInterval,
		MaxRetries:     cfg.AI.MaxRetries,
		InitialBackoff: cfg.AI.InitialBackoff,
	}, log)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
