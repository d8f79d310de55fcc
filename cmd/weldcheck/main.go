// File path: cmd/weldcheck/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arclight-qa/weldcheck/internal/agent"
	"github.com/arclight-qa/weldcheck/internal/api"
	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/extract"
	"github.com/arclight-qa/weldcheck/internal/graph"
	graphmem "github.com/arclight-qa/weldcheck/internal/graph/memory"
	"github.com/arclight-qa/weldcheck/internal/graph/neo4j"
	"github.com/arclight-qa/weldcheck/internal/llm"
	"github.com/arclight-qa/weldcheck/internal/sqlite"
	"github.com/arclight-qa/weldcheck/internal/whisper"
	"github.com/arclight-qa/weldcheck/internal/workflow"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("weldcheck: .env file not loaded", "error", err)
	} else {
		logger.Info("weldcheck: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite job catalog")
	uploadRoot := flag.String("uploads", "", "directory for uploaded documents (default: system temp)")
	chunkSize := flag.Int("chunk-size", 0, "extraction chunk size in characters (0 uses default)")
	chunkOverlap := flag.Int("chunk-overlap", 0, "extraction chunk overlap in characters (0 uses default)")
	flag.Parse()

	logger.Info("weldcheck: startup initiated", "addr", *addr, "catalog", *catalogPath)

	if dir := filepath.Dir(*catalogPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("weldcheck: create catalog directory failed", "error", err, "dir", dir)
			fmt.Println("catalog directory error:", err)
			os.Exit(1)
		}
	}
	store, err := sqlite.Open(*catalogPath)
	if err != nil {
		logger.Error("weldcheck: catalog open failed", "error", err)
		fmt.Println("catalog error:", err)
		os.Exit(1)
	}
	defer store.Close()

	provider := llm.NewProvider()
	logger.Info("weldcheck: llm provider ready", "provider", provider.Name())

	ocrClient, err := whisper.NewFromEnv()
	if err != nil {
		logger.Error("weldcheck: ocr config invalid", "error", err)
		fmt.Println("ocr config error:", err)
		os.Exit(1)
	}
	if ocrClient != nil {
		logger.Info("weldcheck: ocr client ready")
	} else {
		logger.Info("weldcheck: ocr not configured; pdf uploads disabled")
	}

	requirements := requirementsClient(ctx)
	defer requirements.Close(context.Background())

	extractor := extract.NewExtractor(provider, extract.Config{
		ChunkSize:    *chunkSize,
		ChunkOverlap: *chunkOverlap,
	})
	manager := workflow.NewManager(store, extractor, ocrClient)
	analyzer := agent.NewAnalyzer(agent.NewModelFromEnv(), requirements)

	cfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*uploadRoot); trimmed != "" {
		cfg.UploadRoot = trimmed
	}
	server, err := api.NewServer(api.Deps{
		Store:        store,
		Provider:     provider,
		Workflow:     manager,
		Analyzer:     analyzer,
		Requirements: requirements,
		OCR:          ocrClient,
	}, &cfg)
	if err != nil {
		logger.Error("weldcheck: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("weldcheck: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("weldcheck: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("weldcheck: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

// requirementsClient prefers the Neo4j backend and falls back to the seeded
// in-memory clause set when no endpoint is configured or reachable.
func requirementsClient(ctx context.Context) graph.Client {
	logger := common.Logger()
	client, err := neo4j.NewFromEnv(ctx)
	if err != nil {
		logger.Warn("weldcheck: neo4j config invalid; using in-memory requirements", "error", err)
		return graphmem.NewService()
	}
	if client == nil {
		logger.Info("weldcheck: neo4j not configured; using in-memory requirements")
		return graphmem.NewService()
	}
	if !client.Available() {
		logger.Warn("weldcheck: neo4j unreachable; using in-memory requirements")
		client.Close(ctx)
		return graphmem.NewService()
	}
	if err := client.EnsureSchema(ctx); err != nil {
		logger.Warn("weldcheck: neo4j schema init failed; using in-memory requirements", "error", err)
		client.Close(ctx)
		return graphmem.NewService()
	}
	seeded := 0
	for _, req := range graphmem.Baseline() {
		if err := client.UpsertRequirement(ctx, req); err != nil {
			logger.Warn("weldcheck: requirement seed failed", "id", req.ID, "error", err)
			continue
		}
		seeded++
	}
	logger.Info("weldcheck: neo4j requirements graph ready", "seeded", seeded)
	return client
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}
