package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studydeck/studydeck/internal/api"
	"github.com/studydeck/studydeck/internal/config"
	"github.com/studydeck/studydeck/internal/jobs"
	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/repository/sqlite"
	"github.com/studydeck/studydeck/internal/services"
	"github.com/studydeck/studydeck/internal/session"
	"github.com/studydeck/studydeck/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("studydeck server starting")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("review_worker_count=%d", cfg.ReviewWorkerCount)
	log.Debug("review_queue_size=%d", cfg.ReviewQueueSize)
	log.Debug("commit_timeout=%s", cfg.CommitTimeout)
	log.Debug("session_batch_limit=%d", cfg.SessionBatchLimit)

	database, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	cardRepo := sqlite.NewCardRepository(database.DB)

	reviewPool := worker.NewPool(cfg.ReviewWorkerCount, cfg.ReviewQueueSize)
	queue := jobs.NewWorkerQueue(reviewPool, cardRepo)

	srv := &api.Server{
		CardService: services.NewCardService(cardRepo),
		ReviewService: services.NewReviewService(cardRepo, queue,
			session.WithCommitTimeout(cfg.CommitTimeout),
			session.WithBatchLimit(cfg.SessionBatchLimit),
		),
		DB: database.DB,
	}

	ctx, cancel := context.WithCancel(context.Background())
	reviewPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping worker pool")
	cancel()
	reviewPool.Stop()

	log.Info("studydeck server stopped")
}
