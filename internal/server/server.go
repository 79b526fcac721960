// Package server exposes the scan and analysis operations over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/repolens/repolens/internal/storage"
	"github.com/repolens/repolens/internal/types"
)

// IssueScanner runs an incremental scan of a repository
type IssueScanner interface {
	Scan(ctx context.Context, repo string) (*types.ScanResult, error)
}

// IssueAnalyzer answers a question about a repository's cached issues
type IssueAnalyzer interface {
	Analyze(ctx context.Context, repo, question string) (string, error)
}

// Server wires the HTTP API over the store, scanner and analyzer
type Server struct {
	store    storage.Storage
	scanner  IssueScanner
	analyzer IssueAnalyzer
	logger   *slog.Logger
}

// New creates a Server. A nil logger discards all log output.
func New(store storage.Storage, scanner IssueScanner, analyzer IssueAnalyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{store: store, scanner: scanner, analyzer: analyzer, logger: logger}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/scan", s.handleScan)
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/repos/:owner/:name/status", s.handleStatus)
	}

	return router
}

// Run serves the API on addr until the listener fails
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", addr)
	return srv.ListenAndServe()
}
