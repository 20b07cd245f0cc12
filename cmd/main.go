package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankit071105/VedaScore/internal/analysis"
	"github.com/ankit071105/VedaScore/internal/api"
	"github.com/ankit071105/VedaScore/internal/config"
	"github.com/ankit071105/VedaScore/internal/configs/env"
	"github.com/ankit071105/VedaScore/internal/infra/mongo"
	redisInfra "github.com/ankit071105/VedaScore/internal/infra/redis"
	"github.com/ankit071105/VedaScore/internal/ingest"
	"github.com/ankit071105/VedaScore/internal/logger"
	"github.com/ankit071105/VedaScore/internal/metrics"
	"github.com/ankit071105/VedaScore/internal/plagiarism"
	"github.com/ankit071105/VedaScore/internal/repository"
	"github.com/ankit071105/VedaScore/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel)
	log.Info().Msg("Starting VedaScore server")

	if err := plagiarism.SetDefaultLanguage(cfg.DefaultLanguage); err != nil {
		log.Fatal().Err(err).Msg("Invalid default language")
	}

	metrics.InitPrometheus()
	metricsServer := api.StartServer("metrics", metrics.Handler(), cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	mongoRepo := repository.NewMongoRepository(mongoClient)
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure MongoDB indexes")
	}
	submissionsRepo := repository.NewSubmissionsRepository(mongoRepo)
	reportsRepo := repository.NewReportsRepository(mongoRepo)

	analysisClient := analysis.NewClient(cfg.AnalysisBaseURL, cfg.AnalysisAPIKey)
	if !analysisClient.Enabled() {
		log.Warn().Msg("ANALYSIS_BASE_URL not set, reports will carry no AI analysis")
	}

	statusStore := plagiarism.NewStatusStore(redisClient.Client)
	corpora := plagiarism.NewCorpusRegistry(submissionsRepo)

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.WorkerPoolSize)
	defer workerPool.Close()

	checker := plagiarism.NewChecker(
		submissionsRepo,
		reportsRepo,
		analysisClient,
		statusStore,
		workerPool,
		cfg.ReportThreshold,
	)

	ingestSvc := ingest.NewService(submissionsRepo, corpora)
	retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		ingestSvc,
		retryHandler,
		cfg.StreamRetentionDuration,
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	handler := api.NewHandler(cfg, corpora, checker, statusStore, submissionsRepo, reportsRepo)
	router := api.SetupRoutes(cfg, handler)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()
	log.Info().Msg("Redis consumer started")

	srv := api.StartServer("api", router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")
	consumerCancel()

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}
	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
