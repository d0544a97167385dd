package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdeck/tasksync/internal/api"
	"github.com/opsdeck/tasksync/internal/config"
	"github.com/opsdeck/tasksync/internal/extract"
	"github.com/opsdeck/tasksync/internal/store"
	"github.com/opsdeck/tasksync/internal/syncer"
	"github.com/opsdeck/tasksync/internal/tasks"
	"github.com/opsdeck/tasksync/internal/tracker"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Task store and service
	taskStore := store.NewTaskStore(db)
	svc := tasks.NewService(taskStore, logger)

	// Tracker clients
	var clients []tracker.Client
	var teamBoard *tracker.TeamBoardClient

	if cfg.GoogleTasksEnabled {
		gt, err := tracker.NewGoogleTasksClient(context.Background(), cfg.GoogleCredentialsDir)
		if err != nil {
			logger.Warn("google tasks client unavailable, pushes to it will fail", "error", err)
		} else {
			clients = append(clients, gt)
		}
	}

	if cfg.TeamBoardURL != "" {
		teamBoard = tracker.NewTeamBoardClient(cfg.TeamBoardURL, cfg.TeamBoardToken, cfg.SyncTimeout)
		clients = append(clients, teamBoard)
	}

	registry := tracker.NewRegistry(clients...)

	// Sync engine
	gateway := syncer.NewGateway(svc, registry, cfg.SyncTimeout, logger)
	var lister tracker.StatusLister
	if teamBoard != nil {
		lister = teamBoard
	}
	reconciler := syncer.NewReconciler(svc, lister, cfg.SyncTimeout, logger)

	// Extraction adapter
	adapter := extract.NewAdapter(svc, logger)

	// Router
	router := api.NewRouter(db, svc, adapter, gateway, reconciler, teamBoard, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("task sync server starting", "addr", addr, "trackers", registry.Names())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
