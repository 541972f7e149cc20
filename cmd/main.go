package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yungbote/medgraph-backend/internal/analytics"
	redisclient "github.com/yungbote/medgraph-backend/internal/clients/redis"
	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/db"
	"github.com/yungbote/medgraph-backend/internal/ingestion/pipeline"
	ingestjob "github.com/yungbote/medgraph-backend/internal/jobs/ingest"
	"github.com/yungbote/medgraph-backend/internal/jobs/riskupdate"
	"github.com/yungbote/medgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/medgraph-backend/internal/jobs/worker"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/medgraph-backend/internal/repos"
	"github.com/yungbote/medgraph-backend/internal/riskfactor"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graph store: Neo4j when configured, in-memory otherwise.
	var store graph.Store
	neoClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Error("Neo4j init failed", "error", err)
		os.Exit(1)
	}
	if neoClient != nil {
		defer neoClient.Close(ctx)
		neoStore, err := graph.NewNeo4jStore(neoClient, log)
		if err != nil {
			log.Error("Graph store init failed", "error", err)
			os.Exit(1)
		}
		neoStore.EnsureSchema(ctx)
		store = neoStore
		log.Info("Using Neo4j graph store")
	} else {
		store = graph.NewMemStore()
		log.Warn("NEO4J_URI not set, using in-memory graph store")
	}

	// Relational bookkeeping is optional; without it ingestion runs
	// unguarded.
	var runRepo repos.IngestionRunRepo
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Warn("Postgres init failed, ingestion runs will be unguarded", "error", err)
	} else {
		if err := postgresService.AutoMigrateAll(); err != nil {
			log.Warn("Postgres auto migration failed", "error", err)
		}
		runRepo = repos.NewIngestionRunRepo(postgresService.DB(), log)
	}

	// Optional analytics cache.
	var cache redisclient.AnalyticsCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		cache, err = redisclient.NewAnalyticsCache(log)
		if err != nil {
			log.Warn("Redis cache init failed, continuing without cache", "error", err)
		} else {
			defer cache.Close()
		}
	}

	// Constructing the analytics service probes the store's algorithm engine
	// once and logs which strategies this process will use.
	_ = analytics.NewService(ctx, store, cache, log)

	rfConfig, err := riskfactor.ConfigFromEnv()
	if err != nil {
		log.Error("Risk factor config load failed", "error", err)
		os.Exit(1)
	}
	riskService := riskfactor.NewService(store, rfConfig, log)

	pipelineCfg := pipeline.ConfigFromEnv()
	if whitelistPath := strings.TrimSpace(os.Getenv("INGEST_WHITELIST_PATH")); whitelistPath != "" {
		pipelineCfg.Whitelist, err = pipeline.LoadWhitelist(whitelistPath)
		if err != nil {
			log.Error("Whitelist load failed", "path", whitelistPath, "error", err)
			os.Exit(1)
		}
	}
	ingestPipeline := pipeline.NewPipeline(store, pipelineCfg, log)

	registry := runtime.NewRegistry()
	if err := registry.Register(ingestjob.NewHandler(ingestPipeline, store, runRepo, log)); err != nil {
		log.Error("Job registration failed", "error", err)
		os.Exit(1)
	}
	if err := registry.Register(riskupdate.NewHandler(riskService, log)); err != nil {
		log.Error("Job registration failed", "error", err)
		os.Exit(1)
	}
	jobWorker := worker.NewWorker(log, registry)
	jobWorker.Start(ctx)

	if sourcePath := strings.TrimSpace(os.Getenv("INGEST_SOURCE_PATH")); sourcePath != "" {
		if err := jobWorker.Submit(ingestjob.NewJob(sourcePath)); err != nil {
			log.Error("Ingestion submit failed", "error", err)
		} else {
			log.Info("Ingestion job submitted", "source_path", sourcePath)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")
}
