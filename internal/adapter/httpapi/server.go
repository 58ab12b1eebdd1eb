// Package httpapi serves the analysis REST API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabateri/water-quality/internal/pipeline"
)

var countryCodeRe = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Server bundles the router and the analyzer behind the REST API.
type Server struct {
	addr     string
	analyzer *pipeline.Analyzer
	logger   *slog.Logger
	engine   *gin.Engine
}

// New constructs a server with routes and middleware.
func New(addr string, analyzer *pipeline.Analyzer, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{addr: addr, analyzer: analyzer, logger: logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/api/v1/analyze", s.handleAnalyze)
}

// handleAnalyze runs the full analysis for a postal code. The recoverable
// "nothing to report" outcomes return 404 with a user-facing message;
// upstream and internal failures map to 502 and 500.
func (s *Server) handleAnalyze(c *gin.Context) {
	countryCode := strings.TrimSpace(c.PostForm("country_code"))
	postalCode := strings.TrimSpace(c.PostForm("postal_code"))

	if !countryCodeRe.MatchString(countryCode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "country_code must be a two-letter code",
		})
		return
	}
	if postalCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "postal_code is required",
		})
		return
	}

	report, err := s.analyzer.FullAnalysis(c.Request.Context(), strings.ToUpper(countryCode), postalCode)
	if err != nil {
		status, message := mapAnalysisError(err)
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	c.JSON(http.StatusOK, report)
}

func mapAnalysisError(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrNoLocation):
		return http.StatusNotFound, "could not find coordinates for the given postal code"
	case errors.Is(err, pipeline.ErrNoStation):
		return http.StatusNotFound, "no monitoring station with coordinates found for this country"
	case errors.Is(err, pipeline.ErrNoResults):
		return http.StatusNotFound, "no analyzable measurements for the nearest water body"
	case errors.Is(err, pipeline.ErrNoRecords):
		return http.StatusBadGateway, "monitoring data is unavailable for this country"
	case errors.Is(err, pipeline.ErrNoThresholds):
		return http.StatusInternalServerError, "contaminant threshold table is unavailable"
	default:
		return http.StatusInternalServerError, "analysis failed"
	}
}
