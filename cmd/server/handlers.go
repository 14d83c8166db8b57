package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/creator"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/reporting"
	"contract-risk-lab/internal/storage"
)

// maxBodyBytes caps request bodies; requests carry only an address and a chain.
const maxBodyBytes = 1 << 16

// Options configures a Server.
type Options struct {
	// Backend names the storage in /status.
	Backend string
	// Timeout bounds each analysis. Defaults to 300s.
	Timeout time.Duration
	Logger  *log.Logger
}

// Server serves the analysis endpoints.
type Server struct {
	svc     *analysis.Service
	backend string
	timeout time.Duration
	logger  *log.Logger
	started time.Time

	mu           sync.Mutex
	inFlight     int
	completed    int
	failed       int
	lastAnalysis time.Time
}

// NewServer creates a Server.
func NewServer(svc *analysis.Service, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &Server{
		svc:     svc,
		backend: opts.Backend,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		started: time.Now(),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	// Status endpoint
	r.GET("/status", s.handleStatus)

	v1 := r.Group("/v1")

	// Analyses
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/quick-check", s.handleQuickCheck)
	v1.POST("/trace-creator", s.handleTraceCreator)
	v1.POST("/analyze-interactions", s.handleInteractions)
	v1.GET("/ws/analyze", s.handleWSAnalyze)

	// Stored results
	v1.GET("/projects", s.handleProjects)
	v1.GET("/history", s.handleHistory)
	v1.GET("/scores", s.handleScores)
	v1.GET("/deployer", s.handleDeployer)
	v1.GET("/counterparty", s.handleCounterparty)

	return r
}

// analyzeRequest is the body of every POST /v1 endpoint.
type analyzeRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	// Refresh bypasses the freshness window of creator and interaction analyses.
	Refresh bool `json:"refresh"`
}

// target is a validated request.
type target struct {
	chain   domain.Chain
	address string
	refresh bool
}

func decodeRequest(c *gin.Context) (target, error) {
	var req analyzeRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(&req); err != nil {
		return target{}, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return parseTarget(req.Address, req.Chain, req.Refresh)
}

// queryTarget validates the address and chain query parameters.
func queryTarget(c *gin.Context) (target, error) {
	return parseTarget(c.Query("address"), c.Query("chain"), false)
}

func parseTarget(address, chainName string, refresh bool) (target, error) {
	ch, err := domain.ParseChain(chainName)
	if err != nil {
		return target{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return target{}, fmt.Errorf("%w: %q", analysis.ErrInvalidAddress, address)
	}
	return target{chain: ch, address: addr, refresh: refresh}, nil
}

var errBadRequest = errors.New("bad request")

func (s *Server) handleAnalyze(c *gin.Context) {
	t, err := decodeRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := track(s, c.Request.Context(), func(ctx context.Context) (*domain.ContractAnalysis, error) {
		return s.svc.AnalyzeContract(ctx, t.chain, t.address, nil)
	})
	if err != nil {
		s.log("analyze %s on %s failed: %v", t.address, t.chain, err)
		writeError(c, err)
		return
	}

	if c.Query("format") == "markdown" {
		writeMarkdown(c, reporting.RenderContract(res))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleQuickCheck(c *gin.Context) {
	t, err := decodeRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := track(s, c.Request.Context(), func(ctx context.Context) (*domain.QuickCheck, error) {
		return s.svc.QuickCheck(ctx, t.chain, t.address)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "markdown" {
		writeMarkdown(c, reporting.RenderQuickCheck(res))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleTraceCreator(c *gin.Context) {
	t, err := decodeRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := track(s, c.Request.Context(), func(ctx context.Context) (*domain.CreatorAnalysis, error) {
		return s.svc.TraceCreator(ctx, t.chain, t.address, t.refresh)
	})
	if err != nil {
		s.log("trace %s on %s failed: %v", t.address, t.chain, err)
		writeError(c, err)
		return
	}

	if c.Query("format") == "markdown" {
		writeMarkdown(c, reporting.RenderCreator(res))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleInteractions(c *gin.Context) {
	t, err := decodeRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := track(s, c.Request.Context(), func(ctx context.Context) (*domain.InteractionAnalysis, error) {
		return s.svc.AnalyzeInteractions(ctx, t.chain, t.address, t.refresh)
	})
	if err != nil {
		s.log("interactions %s on %s failed: %v", t.address, t.chain, err)
		writeError(c, err)
		return
	}

	switch c.Query("format") {
	case "markdown":
		writeMarkdown(c, reporting.RenderInteraction(res))
	case "csv":
		out, err := reporting.RenderCounterpartiesCSV(res)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.svc.Projects(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(projects))
}

func (s *Server) handleHistory(c *gin.Context) {
	t, err := queryTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := s.svc.ContractHistory(c.Request.Context(), t.chain, t.address, queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(history))
}

func (s *Server) handleScores(c *gin.Context) {
	t, err := queryTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	kind := domain.AnalysisKind(c.Query("kind"))
	switch kind {
	case "":
		kind = domain.KindContract
	case domain.KindContract, domain.KindCreator:
	default:
		writeError(c, fmt.Errorf("%w: unknown kind %q", errBadRequest, kind))
		return
	}

	start, end := int64(queryInt(c, "start", 0)), int64(queryInt(c, "end", 0))
	scores, err := s.svc.ScoreHistory(c.Request.Context(), kind, t.chain, t.address, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(scores))
}

func (s *Server) handleDeployer(c *gin.Context) {
	t, err := queryTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	traces, err := s.svc.DeployerTraces(c.Request.Context(), t.chain, t.address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(traces))
}

func (s *Server) handleCounterparty(c *gin.Context) {
	t, err := queryTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	edges, err := s.svc.CounterpartyEdges(c.Request.Context(), t.chain, t.address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(edges))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string         `json:"status"`
	Uptime       string         `json:"uptime"`
	Started      time.Time      `json:"started"`
	Chains       []domain.Chain `json:"chains"`
	Storage      string         `json:"storage"`
	InFlight     int            `json:"in_flight"`
	Completed    int            `json:"completed"`
	Failed       int            `json:"failed"`
	LastAnalysis *time.Time     `json:"last_analysis,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Started:   s.started,
		Chains:    s.svc.Chains(),
		Storage:   s.backend,
		InFlight:  s.inFlight,
		Completed: s.completed,
		Failed:    s.failed,
	}
	if !s.lastAnalysis.IsZero() {
		last := s.lastAnalysis
		resp.LastAnalysis = &last
	}

	c.JSON(http.StatusOK, resp)
}

// track runs fn under the request timeout and updates the status counters.
func track[T any](s *Server, parent context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	res, err := fn(ctx)

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.failed++
	} else {
		s.completed++
		s.lastAnalysis = time.Now()
	}
	s.mu.Unlock()

	return res, err
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, analysis.ErrInvalidAddress),
		errors.Is(err, chain.ErrUnsupportedChain),
		errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNoContractCode),
		errors.Is(err, creator.ErrCreatorNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorResponse{Error: err.Error()})
}

func writeMarkdown(c *gin.Context, md string) {
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func (s *Server) log(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
