package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articleforge/internal/api"
	"articleforge/internal/api/handler"
	"articleforge/internal/broker"
	"articleforge/internal/config"
	"articleforge/internal/generate"
	"articleforge/internal/logging"
	"articleforge/internal/pipeline"
	"articleforge/internal/ports"
	"articleforge/internal/store"
	"articleforge/pkg/router"
)

// @title ArticleForge API
// @version 1.0
// @description Article generation pipeline: staged jobs, schema validation, quality scoring, confidence badges.
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Init("info", "text")
		logging.New("main").Error("load config", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logging.New("main")

	var stateStore ports.StateStore
	if cfg.Database.Path != "" {
		sqlStore, err := store.OpenSQLStore(cfg.Database.Path)
		if err != nil {
			log.Error("open state store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		stateStore = sqlStore
	} else {
		log.Warn("no database path configured, using in-memory store")
		stateStore = store.NewMemStore()
	}

	var gen ports.Generator
	if cfg.Generator.Endpoint != "" {
		gen = generate.NewChatClient(cfg.Generator)
	} else {
		log.Warn("no generator endpoint configured, using offline stub")
		gen = generate.NewStub()
	}

	pipeCfg := pipeline.Config{
		Retry: pipeline.RetryConfig{
			MaxAttempts:       cfg.Pipeline.MaxAttempts,
			InitialDelay:      cfg.Pipeline.InitialBackoffDuration(),
			MaxDelay:          cfg.Pipeline.MaxBackoffDuration(),
			BackoffMultiplier: cfg.Pipeline.BackoffMultiplier,
			Jitter:            cfg.Pipeline.Jitter,
		},
		StageTimeout: cfg.Pipeline.StageTimeoutDuration(),
	}
	pipe := pipeline.New(gen, stateStore, pipeCfg, logging.New("pipeline"))

	queue := broker.NewMemory(cfg.Pipeline.QueueSize)
	workers := broker.NewWorkers(queue, pipe, cfg.Pipeline.Workers, logging.New("worker"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := broker.RecoverPending(ctx, stateStore, queue, log); err != nil {
		log.Error("recover interrupted jobs", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := workers.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker pool stopped", "error", err)
		}
	}()

	r := router.New(logging.New("http"))
	api.RegisterRoutes(r, &handler.Handler{
		Pipeline: pipe,
		Store:    stateStore,
		Broker:   queue,
		Log:      logging.New("handler"),
	})

	srv := &http.Server{Addr: cfg.Listen, Handler: r.Handler()}
	go func() {
		log.Info("server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
