// Command ingest runs one ingestion pass over a relationship source file and
// prints the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/ingestion/pipeline"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/platform/neo4jdb"
)

func main() {
	sourcePath := flag.String("source", "", "path to the pipe-delimited relationship file")
	flag.Parse()
	if *sourcePath == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -source <file>")
		os.Exit(2)
	}

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

	ctx := context.Background()

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
	} else {
		store = graph.NewMemStore()
		log.Warn("NEO4J_URI not set, ingesting into in-memory store (results are discarded on exit)")
	}

	cfg := pipeline.ConfigFromEnv()
	if whitelistPath := strings.TrimSpace(os.Getenv("INGEST_WHITELIST_PATH")); whitelistPath != "" {
		cfg.Whitelist, err = pipeline.LoadWhitelist(whitelistPath)
		if err != nil {
			log.Error("Whitelist load failed", "path", whitelistPath, "error", err)
			os.Exit(1)
		}
	}

	report, err := pipeline.NewPipeline(store, cfg, log).Run(ctx, *sourcePath)
	if err != nil {
		log.Error("Ingestion failed", "source_path", *sourcePath, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error("Report marshal failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
