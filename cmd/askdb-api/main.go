package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/askdb/askdb/internal/answer"
	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/connections"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/relevance"
	"github.com/askdb/askdb/internal/reports"
	"github.com/askdb/askdb/internal/session"
	"github.com/askdb/askdb/internal/sqlgen"
	s3store "github.com/askdb/askdb/internal/storage/s3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	sessionStore := session.NewRedisStore(session.Options{
		Address:  cfg.Sessions.RedisAddress,
		Password: cfg.Sessions.RedisPassword,
		DB:       cfg.Sessions.RedisDB,
		TTL:      cfg.Sessions.TTL,
	})
	defer func() { _ = sessionStore.Close() }()

	connectionStore := connections.NewStore(sessionStore.Client())

	modelClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	})
	if !modelClient.Enabled() {
		logger.Warn("no model api key configured, serving deterministic fallbacks only")
	}

	service := pipeline.NewService(pipeline.Options{
		Sessions:       sessionStore,
		Connections:    connectionStore,
		Selector:       relevance.NewSelector(modelClient, logger),
		Generator:      sqlgen.NewGenerator(modelClient, logger),
		Synthesizer:    answer.NewSynthesizer(modelClient, logger),
		Logger:         logger,
		HistoryWindow:  cfg.Pipeline.HistoryWindow,
		ResultSample:   cfg.Pipeline.ResultSample,
		MaxResultRows:  cfg.Pipeline.MaxResultRows,
		ConnectTimeout: cfg.Target.ConnectTimeout,
		QueryTimeout:   cfg.Target.QueryTimeout,
	})

	deps := api.Dependencies{
		Logger:      logger,
		Pipeline:    service,
		Sessions:    sessionStore,
		Connections: connectionStore,
		Readiness: api.CombineReadinessChecks(
			api.CheckSessionStoreConfig(cfg),
			api.CheckReportStoreConfig(cfg),
			sessionStore.Ping,
		),
		DependencyTimeout: time.Second,
	}

	if cfg.Reports.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.Reports.Endpoint,
			Region:           cfg.Reports.Region,
			Bucket:           cfg.Reports.Bucket,
			AccessKeyID:      cfg.Reports.AccessKeyID,
			SecretAccessKey:  cfg.Reports.SecretAccessKey,
			UseSSL:           cfg.Reports.UseSSL,
			Prefix:           cfg.Reports.Prefix,
			AutoCreateBucket: cfg.Reports.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize report store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Reports = reports.NewExporter(objectStore, sessionStore, logger)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
