package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/agenthands/cross/internal/audit"
	"github.com/agenthands/cross/internal/config"
	"github.com/agenthands/cross/internal/core"
	"github.com/agenthands/cross/internal/core/model"
	"github.com/agenthands/cross/internal/core/summary"
	"github.com/agenthands/cross/internal/observability"
)

// AuditSink stores finished runs. *audit.Recorder implements it.
type AuditSink interface {
	Record(ctx context.Context, res *model.Result) error
	Recent(ctx context.Context, limit int) ([]audit.RunRecord, error)
}

type Server struct {
	Engine     *core.Engine
	Audit      AuditSink
	Logger     hclog.Logger
	Summarizer *summary.Summarizer

	timeout   time.Duration
	bulkLimit int
	spec      atomic.Pointer[model.ComparisonSpec]
}

// NewServer wires the engine to HTTP. sink may be nil to disable the audit
// trail.
func NewServer(cfg *config.Config, engine *core.Engine, sink AuditSink, logger hclog.Logger) *Server {
	s := &Server{
		Engine:     engine,
		Audit:      sink,
		Logger:     logger,
		Summarizer: summary.NewSummarizer(cfg.Summary.MaxDisagreements),
		timeout:    time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		bulkLimit:  cfg.Concurrency.BulkCompare,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig swaps in the default comparison of cfg. In-flight
// requests keep the comparison they started with.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if !cfg.HasComparison() {
		s.spec.Store(nil)
		return
	}
	spec := cfg.Comparison
	s.spec.Store(&spec)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.instrument())

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(observability.MetricsHandler()))
	r.POST("/overview", s.Overview)
	r.POST("/compare", s.Compare)
	r.POST("/compare/batch", s.CompareBatch)
	r.GET("/runs", s.Runs)

	return r
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		observability.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), duration)
		s.Logger.Info("request", "method", c.Request.Method, "path", path, "status", status, "duration", duration)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type OverviewRequest struct {
	Reference *model.Table `json:"reference" binding:"required"`
	Extracted *model.Table `json:"extracted" binding:"required"`
}

func (s *Server) Overview(c *gin.Context) {
	var req OverviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	c.JSON(http.StatusOK, s.Engine.Overview(req.Reference, req.Extracted))
}

type CompareRequest struct {
	Reference *model.Table `json:"reference" binding:"required"`
	Extracted *model.Table `json:"extracted" binding:"required"`
	// Falls back to the configured comparison when omitted.
	Spec *model.ComparisonSpec `json:"spec"`
}

// Compare answers with the full result, or with the plain-text digest when
// called with ?format=text.
func (s *Server) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	spec, ok := s.resolveSpec(req.Spec)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No comparison spec given and none configured"})
		return
	}

	ctx, cancel := s.withTimeout(c.Request.Context())
	defer cancel()

	res, err := s.Engine.Compare(ctx, req.Reference, req.Extracted, spec)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.record(ctx, res)

	if c.Query("format") == "text" {
		c.String(http.StatusOK, s.Summarizer.Summarize(res))
		return
	}
	c.JSON(http.StatusOK, res)
}

type BatchRequest struct {
	Jobs []core.Job `json:"jobs" binding:"required"`
}

type BatchItem struct {
	ID     string        `json:"id"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
	Kind   string        `json:"kind,omitempty"`
}

func (s *Server) CompareBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	for i := range req.Jobs {
		if empty(req.Jobs[i].Spec) {
			spec, ok := s.resolveSpec(nil)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No comparison spec given and none configured", "job": req.Jobs[i].ID})
				return
			}
			req.Jobs[i].Spec = spec
		}
	}

	ctx, cancel := s.withTimeout(c.Request.Context())
	defer cancel()

	results, err := s.Engine.CompareBatch(ctx, req.Jobs, s.bulkLimit)
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]BatchItem, len(results))
	for i, r := range results {
		items[i] = BatchItem{ID: r.ID, Result: r.Result}
		if r.Err != nil {
			items[i].Error = r.Err.Error()
			items[i].Kind = model.ErrorKind(r.Err)
			continue
		}
		s.record(ctx, r.Result)
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (s *Server) Runs(c *gin.Context) {
	if s.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit trail is disabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	runs, err := s.Audit.Recent(c.Request.Context(), limit)
	if err != nil {
		s.Logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) resolveSpec(spec *model.ComparisonSpec) (model.ComparisonSpec, bool) {
	if spec != nil {
		return *spec, true
	}
	if def := s.spec.Load(); def != nil {
		return *def, true
	}
	return model.ComparisonSpec{}, false
}

func empty(spec model.ComparisonSpec) bool {
	return spec.KeyColumn == "" && len(spec.KeyColumns) == 0 && len(spec.Columns) == 0
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// record writes res to the audit trail. A failing sink never fails the
// request.
func (s *Server) record(ctx context.Context, res *model.Result) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, res); err != nil {
		s.Logger.Warn("failed to record comparison run", "run_id", res.RunID, "error", err)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Comparison timed out"})
	case errors.Is(err, context.Canceled):
		// client went away
		c.Status(499)
	case model.ErrorKind(err) != "":
		s.Logger.Warn("comparison rejected", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": model.ErrorKind(err)})
	default:
		s.Logger.Error("comparison failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare tables"})
	}
}
