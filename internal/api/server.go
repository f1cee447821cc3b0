// Package api exposes statistics and chart zoom control over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spcdash/domain/core"
	"spcdash/internal"
	"spcdash/internal/datasource"
	apperrors "spcdash/internal/errors"
	"spcdash/ports"
)

// Config holds API server settings
type Config struct {
	Port             string
	GinMode          string
	OutlierThreshold float64
	Debounce         time.Duration
	MaxCharts        int
}

// Server is the JSON API
type Server struct {
	config  Config
	router  *gin.Engine
	loader  *datasource.Loader
	catalog ports.Catalog
	source  string
	charts  *Registry
	logger  *internal.Logger
}

// NewServer wires the routes. catalog may be nil.
func NewServer(config Config, loader *datasource.Loader, catalog ports.Catalog, sourceName string) *Server {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:  config,
		router:  router,
		loader:  loader,
		catalog: catalog,
		source:  sourceName,
		charts:  NewRegistry(config.MaxCharts),
		logger:  internal.DefaultLogger.With("api"),
	}
	router.Use(s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/cd-data", s.handleRecords)
		api.GET("/entities", s.handleEntities)
		api.GET("/monitors", s.handleMonitors)
		api.GET("/stats", s.handleStats)
		api.GET("/limits", s.handleLimits)

		charts := api.Group("/charts")
		charts.POST("", s.handleCreateChart)
		charts.GET("/:id", s.handleGetChart)
		charts.DELETE("/:id", s.handleDeleteChart)
		charts.POST("/:id/wheel", s.handleWheel)
		charts.POST("/:id/drag", s.handleDrag)
		charts.POST("/:id/view", s.handleSwitchView)
		charts.POST("/:id/reset", s.handleReset)
		charts.POST("/:id/filter", s.handleChartFilter)
		charts.POST("/:id/entity", s.handleChartEntity)
	}
}

// Handler returns the router for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Charts exposes the chart registry
func (s *Server) Charts() *Registry {
	return s.charts
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// respondError maps application and domain errors onto HTTP statuses
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.GetCode(err)
	if code == "UNKNOWN" {
		switch {
		case core.IsNotFoundError(err):
			status, code = http.StatusNotFound, apperrors.CodeNotFound
		case core.IsValidationError(err):
			status, code = http.StatusBadRequest, apperrors.CodeValidationError
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
