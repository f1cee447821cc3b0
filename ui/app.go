// Package ui serves the human-readable statistics report with chi.
package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spcdash/internal"
	"spcdash/internal/datasource"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	config    Config
	router    *chi.Mux
	loader    *datasource.Loader
	source    string
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port             string
	OutlierThreshold float64
}

// NewApp creates a new UI application
func NewApp(config Config, loader *datasource.Loader, sourceName string) (*App, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		config:    config,
		router:    chi.NewRouter(),
		loader:    loader,
		source:    sourceName,
		templates: templates,
		logger:    internal.DefaultLogger.With("ui"),
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		target := "/report"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
	a.router.Get("/report", a.handleReport)
	a.router.Get("/report.md", a.handleReportMarkdown)
}

// Handler returns the router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("UI listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
