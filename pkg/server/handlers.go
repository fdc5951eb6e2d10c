package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/output"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

// Error codes returned in the JSON envelope.
const (
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeTableNotFound     = "TABLE_NOT_FOUND"
	CodeRefreshFailed     = "REFRESH_FAILED"
)

const (
	hintSourceUnavailable = "Could not load Google Sheet. Check credentials, spreadsheet_id, and sharing permissions."
	hintTableNotFound     = "Worksheet not found. Check the worksheet name in the config."
)

// userHeader is set by an authenticating proxy in front of the server.
const userHeader = "X-Forwarded-User"

// session builds the run context from the query string. Each filter column
// takes repeated values, as a multi-select form submits them.
func (s *Server) session(c *gin.Context) pipeline.Session {
	sel := pipeline.Selections{}
	for _, col := range s.pipeline.Schema().FilterColumns {
		var values []string
		// one query value is one cell value; names like "Smith, John" stay whole
		for _, v := range c.QueryArray(QueryKey(col)) {
			if strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			sel[col] = values
		}
	}
	return pipeline.NewSession(c.GetHeader(userHeader), sel)
}

// errorStatus maps a failed run onto an HTTP status, code and hint.
func errorStatus(err error) (int, string, string) {
	if errors.Is(err, pipeline.ErrTableNotFound) {
		return http.StatusNotFound, CodeTableNotFound, hintTableNotFound
	}
	return http.StatusServiceUnavailable, CodeSourceUnavailable, hintSourceUnavailable
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, code, hint := errorStatus(err)
	c.AbortWithStatusJSON(status, output.ErrorResponse{Error: err.Error(), Code: code, Hint: hint})
}

func (s *Server) dashboard(c *gin.Context) {
	dash, err := s.pipeline.Run(c.Request.Context(), s.session(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) refresh(c *gin.Context) {
	if s.refresher != nil {
		if err := s.refresher.Invalidate(c.Request.Context()); err != nil {
			s.logger.Warn("cache invalidation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, output.ErrorResponse{
				Error: err.Error(),
				Code:  CodeRefreshFailed,
			})
			return
		}
	}
	s.dashboard(c)
}

type pageData struct {
	Dashboard *pipeline.Dashboard
	Error     string
	Hint      string
}

func (s *Server) page(c *gin.Context) {
	dash, err := s.pipeline.Run(c.Request.Context(), s.session(c))
	if err != nil {
		status, _, hint := errorStatus(err)
		c.HTML(status, "dashboard.html", pageData{Error: err.Error(), Hint: hint})
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", pageData{Dashboard: dash})
}

// HealthResponse is the body of /readyz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (s *Server) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readiness runs the pipeline once with no filters. With a cache in front
// this is cheap after the first call.
func (s *Server) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	status, code := "healthy", http.StatusOK
	if dash, err := s.pipeline.Run(ctx, pipeline.NewSession("readyz", nil)); err != nil {
		checks["source"] = "unhealthy: " + err.Error()
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else {
		checks["source"] = "healthy"
		checks["state"] = string(dash.State)
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
