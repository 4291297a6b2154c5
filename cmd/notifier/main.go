package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-server/internal/config"
	"story-server/internal/logger"
	"story-server/internal/messaging"
	"story-server/internal/notifier"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/notifier.yaml", "path to notifier yaml config")
	flag.Parse()

	cfg, err := config.LoadNotifierConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load notifier config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 5*time.Minute)
	conn, err := messaging.ConnectRabbitMQ(connectCtx, cfg.RabbitMQ.URI, 50, 5*time.Second, zapLogger)
	cancelConnect()
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	sender, err := notifier.NewSMTPSender(cfg.SMTP, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init SMTP sender", zap.Error(err))
	}
	mailer := notifier.NewSolvedMailer(sender, zapLogger)
	processor := messaging.NewProcessor(zapLogger, mailer)
	consumer := messaging.NewConsumer(conn, zapLogger, cfg.QueueName, cfg.WorkerConcurrency, processor)

	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, zapLogger)

	consumerErrChan := make(chan error, 1)
	go func() {
		consumerErrChan <- consumer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		zapLogger.Info("Shutdown signal received")
		consumer.Stop()
		if err := <-consumerErrChan; err != nil {
			zapLogger.Error("Consumer stopped with error", zap.Error(err))
		}
	case err := <-consumerErrChan:
		if err != nil {
			zapLogger.Error("Consumer stopped with error", zap.Error(err))
		} else {
			zapLogger.Info("Consumer stopped")
		}
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := healthSrv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Failed to stop health check server", zap.Error(err))
	}
	zapLogger.Info("Notifier stopped")
}

func startHealthCheckServer(port string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting health check server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Health check server failed", zap.Error(err))
		}
	}()
	return srv
}
