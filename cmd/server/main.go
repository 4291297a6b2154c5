package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"story-server/internal/authutils"
	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/handler"
	"story-server/internal/interfaces"
	"story-server/internal/logger"
	"story-server/internal/messaging"
	"story-server/internal/middleware"
	"story-server/internal/service"
	"story-server/pkg/migration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)
	zapLogger.Info("Starting story server", zap.String("env", cfg.Env), zap.String("port", cfg.Port))

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	pool, err := database.NewPool(startCtx, cfg.Database(), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		migrator := migration.NewMigrator(migration.Config{
			MigrationsFS:   database.MigrationsFS,
			MigrationsPath: database.MigrationsPath,
		}, pool, logger.NewZerolog(cfg.LogLevel, os.Stdout))
		if err := migrator.Up(startCtx); err != nil {
			zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := database.NewRedisClient(startCtx, cfg.Redis(), zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var notifier interfaces.SolvedNotifier
	if cfg.RabbitMQURL != "" {
		conn, err := messaging.ConnectRabbitMQ(startCtx, cfg.RabbitMQURL, 20, 3*time.Second, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()
		publisher, ch, err := messaging.NewSheetSolvedPublisher(conn, cfg.SolvedEventsQueue, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to create sheet solved publisher", zap.Error(err))
		}
		defer ch.Close()
		notifier = publisher
	} else {
		zapLogger.Warn("RABBITMQ_URL is empty, solved notifications are disabled")
	}

	storyRepo := database.NewPgStoryRepository(zapLogger)
	playService := service.NewPlayService(service.PlayDeps{
		DB:                pool,
		TxManager:         database.NewPgTxManager(pool, zapLogger),
		StoryRepo:         storyRepo,
		SheetRepo:         database.NewPgSheetRepository(zapLogger),
		ProgressRepo:      database.NewPgProgressRepository(zapLogger),
		HistoryRepo:       database.NewPgHistoryRepository(zapLogger),
		StoryProgressRepo: database.NewPgStoryProgressRepository(zapLogger),
		SubscriberRepo:    storyRepo,
		Notifier:          notifier,
		Throttle:          database.NewRedisAnswerThrottle(redisClient, cfg.AnswerAttemptLimit, cfg.AnswerAttemptWindow, zapLogger),
		Logger:            zapLogger,
	})

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}
	playHandler := handler.NewPlayHandler(playService, verifier, zapLogger)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.ZapLoggingMiddlewareForGin(zapLogger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	playHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	// Публикация идет через канал RabbitMQ, который закрывается отложенно после выхода из main.
	if err := playService.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Solved notifications not flushed", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
