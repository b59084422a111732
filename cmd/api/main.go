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

	"github.com/examina/examina-api/internal/config"
	"github.com/examina/examina-api/internal/database"
	"github.com/examina/examina-api/internal/grading"
	"github.com/examina/examina-api/internal/handler"
	"github.com/examina/examina-api/internal/middleware"
	"github.com/examina/examina-api/internal/models"
	"github.com/examina/examina-api/internal/repository"
	"github.com/examina/examina-api/internal/router"
	"github.com/examina/examina-api/internal/service"
	"github.com/examina/examina-api/pkg/ai"
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

	if err := db.AutoMigrate(
		&models.Exam{},
		&models.Question{},
		&models.Criterion{},
		&models.Answer{},
		&models.ContentFragment{},
		&models.GradingRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	aiClient, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.AIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	fragmentRepo := repository.NewFragmentRepository(db)
	recordRepo := repository.NewGradingRecordRepository(db)

	limiter := grading.NewLimiter(int64(cfg.MaxConcurrentInvocations), cfg.InvocationDelay)
	examiner := grading.NewExaminer(aiClient, limiter, cfg.FallbackScore, logger)
	retriever := service.NewRetrievalService(fragmentRepo, logger)

	gradingService := service.NewGradingService(
		examRepo,
		answerRepo,
		recordRepo,
		retriever,
		examiner,
		grading.Config{DivergenceThreshold: cfg.DivergenceThreshold, TopK: cfg.RetrievalTopK},
		redisClient,
		natsConn,
		cfg.StatusCacheTTL,
		logger,
	)
	outcomeService := service.NewOutcomeService(examRepo, recordRepo, redisClient, logger)

	gradingHandler := handler.NewGradingHandler(gradingService, outcomeService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler: gradingHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
