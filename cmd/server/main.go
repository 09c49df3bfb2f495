package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"smartstudy-backend/internal/config"
	"smartstudy-backend/internal/database"
	"smartstudy-backend/internal/handlers"
	"smartstudy-backend/internal/logging"
	"smartstudy-backend/internal/middleware"
	"smartstudy-backend/internal/repository"
	"smartstudy-backend/internal/revision"
	"smartstudy-backend/internal/router"
	"smartstudy-backend/internal/services"
	"smartstudy-backend/internal/websocket"
	"smartstudy-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting smart study backend", "env", cfg.Env)

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "postgres connection failed", err)
	}
	defer pool.Close()
	logger.Info("postgres connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		fatal(logger, "database migration failed", err)
	}
	logger.Info("database migrations applied")

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		fatal(logger, "redis connection failed", err)
	}
	defer redisClients.Close()
	logger.Info("redis connected")

	// ──── Step 5: Load Revision Model ────
	var modelStore revision.ModelStore
	switch cfg.RevisionModelStore {
	case "redis":
		modelStore = revision.NewRedisModelStore(redisClients.Cache, cfg.RevisionModelKey)
	default:
		modelStore = revision.NewFileModelStore(cfg.RevisionModelPath)
	}
	if err := revision.Bootstrap(ctx, modelStore, revision.SeedSamples); err != nil {
		logger.Warn("revision model bootstrap failed, predictions will use the default interval", "error", err)
	}
	predictor := revision.NewPredictor(ctx, modelStore, logger)
	logger.Info("revision predictor initialized", "store", cfg.RevisionModelStore, "ready", predictor.Ready())

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	topicRepo := repository.NewStudyTopicRepo(pool)
	sessionRepo := repository.NewStudySessionRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	interactionRepo := repository.NewAIInteractionRepo(pool)
	txManager := database.NewTxManager(pool)

	// ──── Step 6: Initialize AI Tutor Providers ────
	var tutors []services.TutorProvider
	switch {
	case cfg.TutorAPIKey == "":
		logger.Warn("TUTOR_API_KEY not set, the AI tutor will answer with a fallback message")
	case cfg.TutorProvider == "gemini":
		gemini, err := services.NewGeminiTutor(ctx, cfg.TutorAPIKey, cfg.TutorModel)
		if err != nil {
			fatal(logger, "gemini client initialization failed", err)
		}
		defer gemini.Close()
		tutors = append(tutors, gemini)
	default:
		tutors = append(tutors, services.NewOpenAITutor(cfg.TutorAPIKey, cfg.TutorBaseURL, cfg.TutorModel))
	}
	for _, t := range tutors {
		logger.Info("ai tutor provider configured", "provider", t.Name())
	}

	catalogOwner := uuid.Nil
	if cfg.QuizCatalogOwnerID != "" {
		catalogOwner, err = uuid.Parse(cfg.QuizCatalogOwnerID)
		if err != nil {
			fatal(logger, "invalid QUIZ_CATALOG_OWNER_ID", err)
		}
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	publisher := websocket.NewPublisher(redisClients.Cache)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL, logger)
	authService := services.NewAuthService(userRepo, redisClients.Cache, jwtAuth)
	studyPlanService := services.NewStudyPlanService(txManager, topicRepo, sessionRepo, predictor, publisher, logger)
	quizService := services.NewQuizService(txManager, quizRepo, catalogOwner)
	tutorService := services.NewTutorService(tutors, interactionRepo, cfg.TutorMaxRetries, cfg.TutorRetryDelay, logger)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	studyPlanHandler := handlers.NewStudyPlanHandler(studyPlanService)
	quizHandler := handlers.NewQuizHandler(quizService)
	tutorHandler := handlers.NewTutorHandler(tutorService)

	// ──── Step 7: Start Reminder Workers and Scheduler ────
	reminderPool := worker.NewPool(redisClients.Cache, emailService, 2, logger)
	reminderPool.Start()
	reminderScheduler := services.NewRevisionReminderScheduler(topicRepo, reminderPool, redisClients.Cache, cfg.ReminderPollInterval, logger)
	reminderScheduler.Start()

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, logger)
	logger.Info("websocket hub started")

	// ──── Step 9: Start HTTP Server ────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRequestsPerMinute, time.Minute)
	r := router.New(
		jwtAuth,
		authLimiter,
		authHandler,
		studyPlanHandler,
		quizHandler,
		tutorHandler,
		wsHub.HandleWebSocket,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		reminderScheduler.Stop()
		reminderPool.Stop()
		authLimiter.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("smart study backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		fatal(logger, "server error", err)
	}
	<-shutdownDone
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
