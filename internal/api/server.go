// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/arclight-qa/weldcheck/internal/agent"
	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/graph"
	"github.com/arclight-qa/weldcheck/internal/llm"
	"github.com/arclight-qa/weldcheck/internal/sqlite"
	"github.com/arclight-qa/weldcheck/internal/whisper"
	"github.com/arclight-qa/weldcheck/internal/workflow"
)

type Server struct {
	router       chi.Router
	store        *sqlite.Store
	provider     llm.Provider
	workflow     *workflow.Manager
	analyzer     *agent.Analyzer
	requirements graph.Client
	ocr          *whisper.Client
	uploadRoot   string
	maxUpload    int64
}

// Deps bundles the services the server exposes over HTTP.
type Deps struct {
	Store        *sqlite.Store
	Provider     llm.Provider
	Workflow     *workflow.Manager
	Analyzer     *agent.Analyzer
	Requirements graph.Client
	OCR          *whisper.Client
}

// Config controls upload handling for the API server.
type Config struct {
	UploadRoot     string
	MaxUploadBytes int64
}

// DefaultConfig returns the standard configuration used when no overrides are
// provided.
func DefaultConfig() Config {
	return Config{
		UploadRoot:     filepath.Join(os.TempDir(), "weldcheck_uploads"),
		MaxUploadBytes: 32 << 20,
	}
}

// Merge overlays non-empty configuration from the override onto the base.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.UploadRoot) != "" {
		result.UploadRoot = strings.TrimSpace(override.UploadRoot)
	}
	if override.MaxUploadBytes > 0 {
		result.MaxUploadBytes = override.MaxUploadBytes
	}
	return result
}

func NewServer(deps Deps, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow manager required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	if err := os.MkdirAll(configuration.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	requirements := deps.Requirements
	if requirements == nil {
		requirements = graph.NoopClient()
	}
	providerName := "unknown"
	if deps.Provider != nil {
		providerName = deps.Provider.Name()
	}
	logger.Info(
		"api: building server",
		"provider", providerName,
		"ocr_available", deps.OCR.Available(),
		"graph_available", requirements.Available(),
		"catalog_available", deps.Store != nil,
	)
	srv := &Server{
		router:       chi.NewRouter(),
		store:        deps.Store,
		provider:     deps.Provider,
		workflow:     deps.Workflow,
		analyzer:     deps.Analyzer,
		requirements: requirements,
		ocr:          deps.OCR,
		uploadRoot:   configuration.UploadRoot,
		maxUpload:    configuration.MaxUploadBytes,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/compare/upload", s.handleCompareUpload)
	s.router.Get("/v1/compare/status", s.handleCompareStatus)
	s.router.Get("/v1/compare/report", s.handleCompareReport)
	s.router.Post("/v1/compare/stop", s.handleCompareStop)
	s.router.Get("/v1/jobs", s.handleJobs)
	s.router.Post("/v1/agent/analyze", s.handleAgentAnalyze)
	s.router.Get("/v1/status", s.handleStatus)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Handle("/debug/vars", expvar.Handler())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
