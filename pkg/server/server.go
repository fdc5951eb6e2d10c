// Package server serves the dashboard over HTTP with gin.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// Refresher drops cached snapshots so the next run refetches.
type Refresher interface {
	Invalidate(ctx context.Context) error
}

// Server owns the routes and the pipeline they run.
type Server struct {
	pipeline  *pipeline.Pipeline
	refresher Refresher
	logger    *zap.Logger
	version   string
	startTime time.Time
}

// New creates a Server. refresher may be nil when the source is not cached.
func New(p *pipeline.Pipeline, refresher Refresher, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline:  p,
		refresher: refresher,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), requestMetrics())

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.page)
	api := r.Group("/api")
	{
		api.GET("/dashboard", s.dashboard)
		api.POST("/refresh", s.refresh)
	}
	r.GET("/healthz", s.liveness)
	r.GET("/readyz", s.readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}

// QueryKey is the query parameter carrying selections for column, e.g.
// "project_team" for "Project Team".
func QueryKey(column string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(column), " ", "_"))
}

var templateFuncs = template.FuncMap{
	"queryKey": QueryKey,
	"statusClass": func(v string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "-")
	},
}
