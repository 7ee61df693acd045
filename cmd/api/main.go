package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/config"
	"github.com/terraed/terra-api/internal/database"
	"github.com/terraed/terra-api/internal/handler"
	"github.com/terraed/terra-api/internal/middleware"
	"github.com/terraed/terra-api/internal/phash"
	"github.com/terraed/terra-api/internal/repository"
	"github.com/terraed/terra-api/internal/router"
	"github.com/terraed/terra-api/internal/service"
	"github.com/terraed/terra-api/internal/verification"
	"github.com/terraed/terra-api/pkg/ai"
	cloud "github.com/terraed/terra-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	cache, err := connectCache(cfg, logger)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	natsConn := connectBroker(cfg, logger)
	if natsConn != nil {
		defer natsConn.Close()
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudSvc, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudSvc
	} else {
		logger.Warn().Msg("cloudinary not configured, evidence photos will not be stored")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	questRepo := repository.NewQuestRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	analyzer, moderator, generator := buildAICapabilities(cfg, logger)

	duplicateIndex := phash.NewIndex(submissionRepo, logger)

	verifier := verification.NewService(
		verification.NewMemoryStore(),
		analyzer,
		moderator,
		duplicateIndex,
		verification.Config{
			AutoPassThreshold:  cfg.Verification.AutoPassThreshold,
			ReviewThreshold:    cfg.Verification.ReviewThreshold,
			DuplicateThreshold: cfg.Verification.DuplicateThreshold,
			MaxFileSizeBytes:   int64(cfg.Verification.MaxFileSizeMB) * 1024 * 1024,
			AllowedImageTypes:  cfg.Verification.AllowedImageTypes,
			MaxImageAge:        cfg.Verification.MaxImageAge,
			AnalysisTimeout:    cfg.Verification.AnalysisTimeout,
		},
		logger,
	)

	var events service.EventPublisher
	if natsConn != nil {
		events = natsConn
	}

	questService := service.NewQuestService(questRepo, generator, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		questRepo,
		userRepo,
		walletRepo,
		uploader,
		verifier,
		events,
		service.PointsRules{
			MonthlyCap:         cfg.Points.MonthlyCap,
			StreakBonus:        cfg.Points.StreakBonus,
			StreakRequiredDays: cfg.Points.StreakRequiredDays,
		},
		cfg.Verification.MaxFileSizeMB,
		cfg.Verification.AllowedImageTypes,
		logger,
	)
	walletService := service.NewWalletService(walletRepo, userRepo, service.RedemptionRules{
		Minimum:     cfg.Points.RedemptionMinimum,
		WeeklyLimit: cfg.Points.MaxRedemptionsWeek,
	}, logger)
	leaderboardService := service.NewLeaderboardService(userRepo, submissionRepo, cache, cfg.LeaderboardCacheTTL, logger)
	seedService := service.NewSeedService(userRepo, questRepo, cfg.IsDevelopment(), logger)

	questHandler := handler.NewQuestHandler(questService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, validate, logger)
	verificationHandler := handler.NewVerificationHandler(verifier, logger)
	walletHandler := handler.NewWalletHandler(walletService, validate, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, logger)
	seedHandler := handler.NewSeedHandler(seedService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.Verification.MaxFileSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})

	var jwtMiddleware fiber.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	router.Register(app, cfg, router.Dependencies{
		QuestHandler:        questHandler,
		SubmissionHandler:   submissionHandler,
		VerificationHandler: verificationHandler,
		WalletHandler:       walletHandler,
		LeaderboardHandler:  leaderboardHandler,
		SeedHandler:         seedHandler,
		JWTMiddleware:       jwtMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildAICapabilities(cfg config.Config, logger zerolog.Logger) (ai.ImageAnalyzer, ai.ContentModerator, ai.QuestGenerator) {
	stubAnalyzer := ai.StubAnalyzer{}
	stubModerator := ai.StubModerator{}
	stubGenerator := ai.StubQuestGenerator{}

	if cfg.AIProvider != "openai" {
		logger.Info().Str("provider", cfg.AIProvider).Msg("using stub AI capabilities")
		return stubAnalyzer, stubModerator, stubGenerator
	}

	openAICfg := ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Logger: logger}

	analyzer, err := ai.NewOpenAIAnalyzer(openAICfg)
	if err != nil {
		log.Fatalf("failed to create openai client: %v", err)
	}

	generator, err := ai.NewOpenAIQuestGenerator(openAICfg)
	if err != nil {
		log.Fatalf("failed to create openai quest generator: %v", err)
	}

	return ai.WithAnalyzerFallback(analyzer, stubAnalyzer, logger),
		ai.WithModeratorFallback(analyzer, stubModerator, logger),
		generator
}

func connectCache(cfg config.Config, logger zerolog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("redis not configured, leaderboard caching disabled")
		return nil, nil
	}
	return database.ConnectRedis(cfg.RedisURL)
}

func connectBroker(cfg config.Config, logger zerolog.Logger) *nats.Conn {
	if cfg.NATSURL == "" {
		logger.Warn().Msg("nats not configured, verification events will not be published")
		return nil
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}

	return conn
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
